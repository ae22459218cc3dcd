package ports

import (
	"context"
	"time"

	"tx-resource-manager/internal/core/domain"

	"github.com/google/uuid"
)

// CommitParticipant is one enlisted resource in a distributed transaction.
// Every method may fail; a failure is distinguishable from a negative vote.
type CommitParticipant interface {
	// ID identifies the participant in logs and heuristic reports.
	ID() string
	// Vote is the prepare phase: the participant answers whether it can
	// commit. An error counts as a negative vote.
	Vote(ctx context.Context) (domain.Vote, error)
	// CommitOnePhase commits without a preceding prepare. Valid only when
	// the participant is the sole member of the transaction.
	CommitOnePhase(ctx context.Context) error
	// Commit makes the prepared changes permanent.
	Commit(ctx context.Context) error
	// Rollback undoes enlisted or prepared changes.
	Rollback(ctx context.Context) error
	// Forget releases any state retained for heuristic reporting.
	Forget(ctx context.Context) error
}

// ParticipantOutcome is the per-participant result of one phase message.
type ParticipantOutcome struct {
	ParticipantID string
	Phase         domain.Phase
	Vote          domain.Vote // meaningful only for the prepare phase
	Err           error
}

// Propagator dispatches one phase message to a set of participants and
// collects every outcome. One participant's failure must never prevent
// collection of the others' outcomes. The dispatch strategy (same-goroutine
// or worker fan-out) is fixed per coordinator at activation time.
type Propagator interface {
	Propagate(ctx context.Context, phase domain.Phase, participants []CommitParticipant) []ParticipantOutcome
	// Mode returns the effective dispatch mode, so the configured value is
	// observable in tests and over the admin API.
	Mode() string
}

// JournalEntry is one recorded state transition.
type JournalEntry struct {
	State domain.TransactionState `json:"state"`
	At    time.Time               `json:"at"`
}

// HeuristicRecord captures a participant that disagreed with the commit
// decision.
type HeuristicRecord struct {
	ParticipantID string    `json:"participant_id"`
	Detail        string    `json:"detail"`
	At            time.Time `json:"at"`
}

// TransactionJournal is the opaque recovery-log collaborator. The coordinator
// records transitions through it; the persistence format is not owned by this
// runtime. Implementations must be safe for concurrent use.
type TransactionJournal interface {
	RecordState(ctx context.Context, txID uuid.UUID, state domain.TransactionState) error
	RecordHeuristic(ctx context.Context, txID uuid.UUID, rec HeuristicRecord) error
	History(ctx context.Context, txID uuid.UUID) ([]JournalEntry, error)
}
