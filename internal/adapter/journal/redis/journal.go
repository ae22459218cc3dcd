package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tx-resource-manager/internal/core/domain"
	"tx-resource-manager/internal/core/ports"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const (
	statePrefix     = "txjournal:state:"
	heuristicPrefix = "txjournal:heuristic:"
)

// Journal implements ports.TransactionJournal using Redis lists. Each
// transaction gets one append-only list of state transitions and, when
// needed, a second list of heuristic records. Entries expire after the
// configured retention.
type Journal struct {
	client    *goredis.Client
	retention time.Duration
}

// NewJournal creates a Redis-backed transaction journal. retention of zero
// keeps entries forever.
func NewJournal(client *goredis.Client, retention time.Duration) *Journal {
	return &Journal{
		client:    client,
		retention: retention,
	}
}

// RecordState appends one state transition to the transaction's log.
func (j *Journal) RecordState(ctx context.Context, txID uuid.UUID, state domain.TransactionState) error {
	entry := ports.JournalEntry{State: state, At: time.Now().UTC()}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal journal entry: %w", err)
	}

	key := statePrefix + txID.String()
	pipe := j.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	if j.retention > 0 {
		pipe.Expire(ctx, key, j.retention)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis journal append: %w", err)
	}
	return nil
}

// RecordHeuristic appends one heuristic record to the transaction's log.
func (j *Journal) RecordHeuristic(ctx context.Context, txID uuid.UUID, rec ports.HeuristicRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal heuristic record: %w", err)
	}

	key := heuristicPrefix + txID.String()
	pipe := j.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	if j.retention > 0 {
		pipe.Expire(ctx, key, j.retention)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis heuristic append: %w", err)
	}
	return nil
}

// History returns the recorded state transitions, oldest first. A transaction
// with no journal yields an empty history.
func (j *Journal) History(ctx context.Context, txID uuid.UUID) ([]ports.JournalEntry, error) {
	raw, err := j.client.LRange(ctx, statePrefix+txID.String(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis journal read: %w", err)
	}

	entries := make([]ports.JournalEntry, 0, len(raw))
	for _, item := range raw {
		var entry ports.JournalEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("unmarshal journal entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Heuristics returns the recorded heuristic outcomes for a transaction.
func (j *Journal) Heuristics(ctx context.Context, txID uuid.UUID) ([]ports.HeuristicRecord, error) {
	raw, err := j.client.LRange(ctx, heuristicPrefix+txID.String(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis heuristic read: %w", err)
	}

	records := make([]ports.HeuristicRecord, 0, len(raw))
	for _, item := range raw {
		var rec ports.HeuristicRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal heuristic record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}
