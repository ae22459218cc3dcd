package manager

import (
	"context"
	"sort"
	"sync"
	"time"

	"tx-resource-manager/config"
	"tx-resource-manager/internal/coordinator"
	"tx-resource-manager/internal/core/domain"
	"tx-resource-manager/internal/core/ports"
	"tx-resource-manager/pkg/txerror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TransactionManager is the runtime entry point for distributed transactions.
// It creates coordinators with the configured dispatch strategy, tracks the
// active set and keeps lifetime counters for the admin API.
type TransactionManager struct {
	cfg        config.CoordinatorConfig
	log        zerolog.Logger
	propagator ports.Propagator
	journal    ports.TransactionJournal // nil = journaling disabled

	mu     sync.RWMutex
	active map[uuid.UUID]*coordinator.Coordinator
	closed bool

	started   uint64
	committed uint64
	aborted   uint64
	heuristic uint64
}

// Counters is a point-in-time snapshot of the manager's lifetime totals.
type Counters struct {
	Active    int    `json:"active"`
	Started   uint64 `json:"started"`
	Committed uint64 `json:"committed"`
	Aborted   uint64 `json:"aborted"`
	Heuristic uint64 `json:"heuristic"`
}

// TransactionInfo describes one transaction over the admin API.
type TransactionInfo struct {
	ID               uuid.UUID               `json:"id"`
	State            domain.TransactionState `json:"state"`
	Mode             string                  `json:"mode"`
	ParticipantCount int                     `json:"participant_count"`
	StartedAt        time.Time               `json:"started_at"`
	Heuristic        bool                    `json:"heuristic"`
}

// Option configures a TransactionManager at construction.
type Option func(*TransactionManager)

// WithJournal passes a recovery journal down to every coordinator.
func WithJournal(j ports.TransactionJournal) Option {
	return func(m *TransactionManager) { m.journal = j }
}

// New builds a manager whose dispatch strategy is fixed by cfg.PropagationMode.
func New(cfg config.CoordinatorConfig, log zerolog.Logger, opts ...Option) *TransactionManager {
	m := &TransactionManager{
		cfg:    cfg,
		log:    log.With().Str("component", "tx_manager").Logger(),
		active: make(map[uuid.UUID]*coordinator.Coordinator),
	}
	for _, opt := range opts {
		opt(m)
	}
	switch cfg.PropagationMode {
	case config.PropagationConcurrent:
		m.propagator = coordinator.NewConcurrentPropagator(m.log, cfg.WorkerLimit)
	default:
		m.propagator = coordinator.NewSyncPropagator(m.log)
	}
	return m
}

// Mode returns the dispatch mode every new transaction will use.
func (m *TransactionManager) Mode() string { return m.propagator.Mode() }

// Begin starts a new transaction and registers it in the active set.
func (m *TransactionManager) Begin(ctx context.Context) (*coordinator.Coordinator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, txerror.ErrInvalidState("begin", "manager closed")
	}

	var opts []coordinator.Option
	if m.journal != nil {
		opts = append(opts, coordinator.WithJournal(m.journal))
	}
	opts = append(opts, coordinator.WithOnTerminated(m.deregister))

	c := coordinator.New(m.propagator, m.cfg.MaxTimeout, m.log, opts...)
	m.active[c.ID()] = c
	m.started++
	m.log.Debug().Str("tx_id", c.ID().String()).Int("active", len(m.active)).Msg("transaction started")
	return c, nil
}

// Get looks up an active transaction.
func (m *TransactionManager) Get(id uuid.UUID) (*coordinator.Coordinator, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.active[id]
	return c, ok
}

// List snapshots the active transactions, oldest first.
func (m *TransactionManager) List() []TransactionInfo {
	m.mu.RLock()
	coords := make([]*coordinator.Coordinator, 0, len(m.active))
	for _, c := range m.active {
		coords = append(coords, c)
	}
	m.mu.RUnlock()

	sort.Slice(coords, func(i, j int) bool {
		return coords[i].StartedAt().Before(coords[j].StartedAt())
	})

	infos := make([]TransactionInfo, len(coords))
	for i, c := range coords {
		infos[i] = describe(c)
	}
	return infos
}

// Counters returns the manager's lifetime totals.
func (m *TransactionManager) Counters() Counters {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Counters{
		Active:    len(m.active),
		Started:   m.started,
		Committed: m.committed,
		Aborted:   m.aborted,
		Heuristic: m.heuristic,
	}
}

// Shutdown rolls back every still-active transaction and refuses new ones.
// Safe to call more than once.
func (m *TransactionManager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	coords := make([]*coordinator.Coordinator, 0, len(m.active))
	for _, c := range m.active {
		coords = append(coords, c)
	}
	m.mu.Unlock()

	for _, c := range coords {
		if err := c.Rollback(ctx); err != nil {
			m.log.Warn().Str("tx_id", c.ID().String()).Err(err).Msg("rollback on shutdown failed")
		}
	}
	m.log.Info().Int("rolled_back", len(coords)).Msg("transaction manager shut down")
}

// deregister runs as each coordinator's termination hook.
func (m *TransactionManager) deregister(c *coordinator.Coordinator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.active[c.ID()]; !ok {
		return
	}
	delete(m.active, c.ID())
	if c.Committed() {
		m.committed++
	} else {
		m.aborted++
	}
	if c.Heuristic() {
		m.heuristic++
	}
}

func describe(c *coordinator.Coordinator) TransactionInfo {
	return TransactionInfo{
		ID:               c.ID(),
		State:            c.State(),
		Mode:             c.Mode(),
		ParticipantCount: c.ParticipantCount(),
		StartedAt:        c.StartedAt(),
		Heuristic:        c.Heuristic(),
	}
}
