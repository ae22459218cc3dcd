package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tx-resource-manager/internal/core/domain"
	"tx-resource-manager/internal/core/ports"
	"tx-resource-manager/pkg/txerror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Coordinator drives the two-phase-commit protocol for one distributed
// transaction. It owns the enlisted participant set, walks the state machine
// ACTIVE -> PREPARING -> PREPARED -> COMMITTING -> COMMITTED (or the abort
// path through ABORTING -> ABORTED) and finishes in TERMINATED once every
// participant has been told to forget and every termination listener fired.
//
// The dispatch strategy is injected once at construction and fixed for the
// coordinator's lifetime.
type Coordinator struct {
	id           uuid.UUID
	log          zerolog.Logger
	propagator   ports.Propagator
	journal      ports.TransactionJournal // nil = journaling disabled
	phaseTimeout time.Duration
	startedAt    time.Time
	onTerminated func(*Coordinator)

	mu         sync.Mutex
	state      domain.TransactionState
	enlisted   []enlistment
	frozen     bool // set once the first phase message goes out
	terminated bool // listeners fired, outcome fixed
	committed  bool
	heuristics []ports.ParticipantOutcome
}

type enlistment struct {
	participant ports.CommitParticipant
	listener    ports.TerminationListener // may be nil
}

// Option configures a Coordinator at construction.
type Option func(*Coordinator)

// WithJournal records state transitions through the given journal.
func WithJournal(j ports.TransactionJournal) Option {
	return func(c *Coordinator) { c.journal = j }
}

// WithOnTerminated registers a hook fired after the coordinator reaches
// TERMINATED. Used by the transaction manager to deregister.
func WithOnTerminated(fn func(*Coordinator)) Option {
	return func(c *Coordinator) { c.onTerminated = fn }
}

// New creates a coordinator in the ACTIVE state.
func New(propagator ports.Propagator, phaseTimeout time.Duration, log zerolog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		id:           uuid.New(),
		propagator:   propagator,
		phaseTimeout: phaseTimeout,
		startedAt:    time.Now(),
		state:        domain.StateActive,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = log.With().
		Str("component", "coordinator").
		Str("tx_id", c.id.String()).
		Str("mode", propagator.Mode()).
		Logger()
	return c
}

// ID returns the transaction identity.
func (c *Coordinator) ID() uuid.UUID { return c.id }

// StartedAt returns when the transaction began.
func (c *Coordinator) StartedAt() time.Time { return c.startedAt }

// Mode returns the effective phase-dispatch mode.
func (c *Coordinator) Mode() string { return c.propagator.Mode() }

// State returns the current protocol state.
func (c *Coordinator) State() domain.TransactionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ParticipantCount returns the number of enlisted participants.
func (c *Coordinator) ParticipantCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.enlisted)
}

// Committed reports whether the transaction's outcome was commit.
func (c *Coordinator) Committed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.committed
}

// Heuristic reports whether participant outcomes disagreed after the commit
// decision.
func (c *Coordinator) Heuristic() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.heuristics) > 0
}

// Heuristics returns the recorded per-participant heuristic outcomes.
func (c *Coordinator) Heuristics() []ports.ParticipantOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ports.ParticipantOutcome, len(c.heuristics))
	copy(out, c.heuristics)
	return out
}

// Enlist adds a participant and, optionally, the termination listener of its
// owning pooled connection. The participant set freezes as soon as any phase
// message has been sent.
func (c *Coordinator) Enlist(p ports.CommitParticipant, listener ports.TerminationListener) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != domain.StateActive || c.frozen {
		return txerror.ErrInvalidState("enlist", string(c.state))
	}
	c.enlisted = append(c.enlisted, enlistment{participant: p, listener: listener})
	c.log.Debug().Str("participant", p.ID()).Int("enlisted", len(c.enlisted)).Msg("participant enlisted")
	return nil
}

// Commit drives the transaction to completion. With a single participant the
// one-phase optimization applies: no prepare round, one combined commit
// message. Otherwise all participants vote, and only a unanimous yes leads to
// the commit phase; any negative vote or vote failure forces rollback,
// surfaced as TransactionRolledBack.
//
// A participant failing after a positive vote does not abort the transaction:
// the outcome stays COMMITTED, the discrepancy is recorded as a heuristic and
// returned as ParticipantCommitFailure. It is reported exactly once and never
// retried.
func (c *Coordinator) Commit(ctx context.Context) error {
	c.mu.Lock()
	if c.state != domain.StateActive || c.frozen {
		state := c.state
		c.mu.Unlock()
		return txerror.ErrInvalidState("commit", string(state))
	}
	n := len(c.enlisted)
	c.frozen = true
	c.mu.Unlock()

	switch n {
	case 0:
		// Nothing enlisted: the transaction commits vacuously.
		if !c.transitionIf(ctx, domain.StateCommitted, domain.StateActive) {
			return txerror.ErrTransactionRolledBack(errors.New("transaction aborted before commit"))
		}
		c.terminate(ctx, true)
		return nil
	case 1:
		return c.commitOnePhase(ctx)
	default:
		if err := c.prepare(ctx); err != nil {
			return err
		}
		return c.commitDecided(ctx)
	}
}

// Rollback aborts the transaction. Valid while no commit decision has been
// made (ACTIVE, PREPARING, PREPARED).
func (c *Coordinator) Rollback(ctx context.Context) error {
	c.mu.Lock()
	if !c.state.CanRollback() {
		state := c.state
		c.mu.Unlock()
		return txerror.ErrInvalidState("rollback", string(state))
	}
	c.frozen = true
	c.mu.Unlock()

	// abort claims the state machine atomically; losing the claim means a
	// concurrent driver reached a commit decision first.
	if !c.abort(ctx) {
		return txerror.ErrInvalidState("rollback", string(c.State()))
	}
	return nil
}

// prepare runs the vote phase. Unanimous yes moves to PREPARED; anything else
// forces rollback. A rollback arriving while votes are in flight wins: the
// transition out of PREPARING fails and the commit attempt reports rolled
// back without sending a commit message.
func (c *Coordinator) prepare(ctx context.Context) error {
	if !c.transitionIf(ctx, domain.StatePreparing, domain.StateActive) {
		return txerror.ErrTransactionRolledBack(errors.New("transaction aborted before prepare"))
	}

	phaseCtx, cancel := context.WithTimeout(ctx, c.phaseTimeout)
	outcomes := c.propagator.Propagate(phaseCtx, domain.PhasePrepare, c.participants())
	cancel()

	var veto error
	timedOut := false
	for _, out := range outcomes {
		if out.Err != nil {
			if errors.Is(out.Err, context.DeadlineExceeded) {
				timedOut = true
			}
			veto = fmt.Errorf("participant %s failed to vote: %w", out.ParticipantID, out.Err)
		} else if out.Vote == domain.VoteNo {
			veto = fmt.Errorf("participant %s voted no", out.ParticipantID)
		}
	}
	if veto != nil {
		c.log.Info().Err(veto).Msg("prepare vetoed, rolling back")
		c.abort(ctx)
		if timedOut {
			return txerror.ErrTransactionTimeout(veto)
		}
		return txerror.ErrTransactionRolledBack(veto)
	}

	if !c.transitionIf(ctx, domain.StatePrepared, domain.StatePreparing) {
		return txerror.ErrTransactionRolledBack(errors.New("transaction aborted during prepare"))
	}
	return nil
}

// commitDecided runs the second phase after a unanimous yes vote.
func (c *Coordinator) commitDecided(ctx context.Context) error {
	if !c.transitionIf(ctx, domain.StateCommitting, domain.StatePrepared) {
		return txerror.ErrTransactionRolledBack(errors.New("transaction aborted before commit phase"))
	}

	phaseCtx, cancel := context.WithTimeout(ctx, c.phaseTimeout)
	outcomes := c.propagator.Propagate(phaseCtx, domain.PhaseCommit, c.participants())
	cancel()

	var failures []ports.ParticipantOutcome
	for _, out := range outcomes {
		if out.Err != nil {
			failures = append(failures, out)
		}
	}

	c.mu.Lock()
	c.heuristics = append(c.heuristics, failures...)
	c.mu.Unlock()
	c.transitionIf(ctx, domain.StateCommitted, domain.StateCommitting)

	for _, f := range failures {
		c.recordHeuristic(ctx, f)
	}
	c.terminate(ctx, true)

	if len(failures) > 0 {
		f := failures[0]
		return txerror.ErrParticipantCommitFailure(f.ParticipantID, f.Err)
	}
	return nil
}

// commitOnePhase skips the vote round for a sole participant. There is no
// cross-participant agreement to coordinate, so a failure simply means the
// resource rolled back.
func (c *Coordinator) commitOnePhase(ctx context.Context) error {
	if !c.transitionIf(ctx, domain.StateCommitting, domain.StateActive) {
		return txerror.ErrTransactionRolledBack(errors.New("transaction aborted before commit"))
	}

	phaseCtx, cancel := context.WithTimeout(ctx, c.phaseTimeout)
	outcomes := c.propagator.Propagate(phaseCtx, domain.PhaseCommitOnePhase, c.participants())
	cancel()

	if err := outcomes[0].Err; err != nil {
		c.log.Info().Err(err).Msg("one-phase commit failed, resource rolled back")
		c.transitionIf(ctx, domain.StateAborted, domain.StateCommitting)
		c.terminate(ctx, false)
		return txerror.ErrTransactionRolledBack(err)
	}

	c.transitionIf(ctx, domain.StateCommitted, domain.StateCommitting)
	c.terminate(ctx, true)
	return nil
}

// abort propagates rollback to every enlisted participant and terminates.
// Individual rollback failures are logged and collected; they cannot stop the
// abort from completing. The ABORTING transition is the interlock: only one
// caller wins it, and it is only reachable while no commit decision stands.
// Reports whether this caller drove the abort.
func (c *Coordinator) abort(ctx context.Context) bool {
	if !c.transitionIf(ctx, domain.StateAborting,
		domain.StateActive, domain.StatePreparing, domain.StatePrepared) {
		return false
	}

	phaseCtx, cancel := context.WithTimeout(ctx, c.phaseTimeout)
	outcomes := c.propagator.Propagate(phaseCtx, domain.PhaseRollback, c.participants())
	cancel()

	for _, out := range outcomes {
		if out.Err != nil {
			c.log.Warn().
				Str("participant", out.ParticipantID).
				Err(out.Err).
				Msg("participant failed to roll back")
		}
	}

	c.transitionIf(ctx, domain.StateAborted, domain.StateAborting)
	c.terminate(ctx, false)
	return true
}

// terminate closes the loop: every participant is told to forget, every
// registered listener hears the outcome (which returns pooled connections to
// their pool), and the coordinator parks in TERMINATED. Runs at most once;
// later callers find the outcome already fixed and back off.
func (c *Coordinator) terminate(ctx context.Context, committed bool) {
	c.mu.Lock()
	if c.terminated {
		c.mu.Unlock()
		return
	}
	c.terminated = true
	c.committed = committed
	listeners := make([]ports.TerminationListener, 0, len(c.enlisted))
	for _, e := range c.enlisted {
		if e.listener != nil {
			listeners = append(listeners, e.listener)
		}
	}
	c.mu.Unlock()

	participants := c.participants()
	if len(participants) > 0 {
		phaseCtx, cancel := context.WithTimeout(ctx, c.phaseTimeout)
		outcomes := c.propagator.Propagate(phaseCtx, domain.PhaseForget, participants)
		cancel()
		for _, out := range outcomes {
			if out.Err != nil {
				c.log.Warn().Str("participant", out.ParticipantID).Err(out.Err).Msg("forget failed")
			}
		}
	}

	outcome := domain.Outcome{
		TransactionID: c.id,
		Committed:     committed,
		Heuristic:     c.Heuristic(),
	}
	for _, l := range listeners {
		l.TransactionTerminated(outcome)
	}

	c.transition(ctx, domain.StateTerminated)

	if c.onTerminated != nil {
		c.onTerminated(c)
	}
}

// transitionIf moves the state machine only when the current state is one of
// from, and reports whether it did. This is what serializes concurrent phase
// drivers: a driver whose source state was stolen stands down instead of
// overwriting the other driver's progress.
func (c *Coordinator) transitionIf(ctx context.Context, next domain.TransactionState, from ...domain.TransactionState) bool {
	c.mu.Lock()
	prev := c.state
	ok := false
	for _, s := range from {
		if prev == s {
			ok = true
			break
		}
	}
	if !ok {
		c.mu.Unlock()
		c.log.Debug().Str("from", string(prev)).Str("to", string(next)).Msg("state transition refused")
		return false
	}
	c.state = next
	c.mu.Unlock()

	c.journalTransition(ctx, prev, next)
	return true
}

// transition moves the state machine unconditionally. Only used for the final
// step into TERMINATED, which the terminate guard already makes exclusive.
func (c *Coordinator) transition(ctx context.Context, next domain.TransactionState) {
	c.mu.Lock()
	prev := c.state
	c.state = next
	c.mu.Unlock()

	c.journalTransition(ctx, prev, next)
}

// journalTransition logs and journals a completed step. Journal failures are
// logged, never fatal: the journal is a best-effort collaborator.
func (c *Coordinator) journalTransition(ctx context.Context, prev, next domain.TransactionState) {
	c.log.Debug().Str("from", string(prev)).Str("to", string(next)).Msg("state transition")

	if c.journal != nil {
		if err := c.journal.RecordState(context.WithoutCancel(ctx), c.id, next); err != nil {
			c.log.Warn().Err(err).Str("state", string(next)).Msg("failed to journal state transition")
		}
	}
}

func (c *Coordinator) recordHeuristic(ctx context.Context, out ports.ParticipantOutcome) {
	c.log.Warn().
		Str("participant", out.ParticipantID).
		Err(out.Err).
		Msg("heuristic outcome: participant failed after commit decision")
	if c.journal == nil {
		return
	}
	rec := ports.HeuristicRecord{
		ParticipantID: out.ParticipantID,
		Detail:        out.Err.Error(),
		At:            time.Now().UTC(),
	}
	if err := c.journal.RecordHeuristic(context.WithoutCancel(ctx), c.id, rec); err != nil {
		c.log.Warn().Err(err).Msg("failed to journal heuristic outcome")
	}
}

func (c *Coordinator) participants() []ports.CommitParticipant {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ports.CommitParticipant, len(c.enlisted))
	for i, e := range c.enlisted {
		out[i] = e.participant
	}
	return out
}
