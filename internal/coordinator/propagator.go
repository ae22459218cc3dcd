package coordinator

import (
	"context"
	"fmt"

	"tx-resource-manager/config"
	"tx-resource-manager/internal/core/domain"
	"tx-resource-manager/internal/core/ports"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// SyncPropagator messages each participant sequentially on the calling
// goroutine. The caller blocks for the cumulative duration of all calls,
// in enlistment order.
type SyncPropagator struct {
	log zerolog.Logger
}

// NewSyncPropagator creates the same-goroutine dispatch strategy.
func NewSyncPropagator(log zerolog.Logger) *SyncPropagator {
	return &SyncPropagator{log: log.With().Str("propagator", config.PropagationSync).Logger()}
}

// Mode implements ports.Propagator.
func (p *SyncPropagator) Mode() string { return config.PropagationSync }

// Propagate implements ports.Propagator.
func (p *SyncPropagator) Propagate(ctx context.Context, phase domain.Phase, participants []ports.CommitParticipant) []ports.ParticipantOutcome {
	outcomes := make([]ports.ParticipantOutcome, len(participants))
	for i, participant := range participants {
		outcomes[i] = deliver(ctx, phase, participant)
		p.logOutcome(phase, outcomes[i])
	}
	return outcomes
}

func (p *SyncPropagator) logOutcome(phase domain.Phase, out ports.ParticipantOutcome) {
	logPhaseOutcome(p.log, phase, out)
}

// ConcurrentPropagator fans each phase message out onto worker goroutines and
// blocks only until all of them report back. Wall-clock cost approaches the
// slowest single participant; ordering between participants is not
// guaranteed, only the join barrier is.
type ConcurrentPropagator struct {
	log   zerolog.Logger
	limit int
}

// NewConcurrentPropagator creates the worker fan-out strategy. limit caps the
// number of simultaneously dispatched participant calls.
func NewConcurrentPropagator(log zerolog.Logger, limit int) *ConcurrentPropagator {
	if limit < 1 {
		limit = 1
	}
	return &ConcurrentPropagator{
		log:   log.With().Str("propagator", config.PropagationConcurrent).Logger(),
		limit: limit,
	}
}

// Mode implements ports.Propagator.
func (p *ConcurrentPropagator) Mode() string { return config.PropagationConcurrent }

// Propagate implements ports.Propagator. Each participant writes into its own
// outcome slot, so no participant's failure can suppress another's result.
func (p *ConcurrentPropagator) Propagate(ctx context.Context, phase domain.Phase, participants []ports.CommitParticipant) []ports.ParticipantOutcome {
	outcomes := make([]ports.ParticipantOutcome, len(participants))
	var g errgroup.Group
	g.SetLimit(p.limit)
	for i, participant := range participants {
		g.Go(func() error {
			outcomes[i] = deliver(ctx, phase, participant)
			logPhaseOutcome(p.log, phase, outcomes[i])
			return nil
		})
	}
	_ = g.Wait() // join barrier; workers never return errors
	return outcomes
}

// deliver sends one phase message to one participant. A panicking participant
// is contained and reported as a failed outcome.
func deliver(ctx context.Context, phase domain.Phase, participant ports.CommitParticipant) (out ports.ParticipantOutcome) {
	out = ports.ParticipantOutcome{ParticipantID: participant.ID(), Phase: phase}
	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("participant panic: %v", r)
			if phase == domain.PhasePrepare {
				out.Vote = domain.VoteNo
			}
		}
	}()

	switch phase {
	case domain.PhasePrepare:
		vote, err := participant.Vote(ctx)
		out.Vote = vote
		out.Err = err
		if err != nil {
			// A participant failing to vote counts as a negative vote.
			out.Vote = domain.VoteNo
		}
	case domain.PhaseCommit:
		out.Err = participant.Commit(ctx)
	case domain.PhaseCommitOnePhase:
		out.Err = participant.CommitOnePhase(ctx)
	case domain.PhaseRollback:
		out.Err = participant.Rollback(ctx)
	case domain.PhaseForget:
		out.Err = participant.Forget(ctx)
	default:
		out.Err = fmt.Errorf("unknown phase %q", phase)
	}
	return out
}

func logPhaseOutcome(log zerolog.Logger, phase domain.Phase, out ports.ParticipantOutcome) {
	if out.Err != nil {
		log.Warn().
			Str("participant", out.ParticipantID).
			Str("phase", string(phase)).
			Err(out.Err).
			Msg("phase message failed")
		return
	}
	log.Debug().
		Str("participant", out.ParticipantID).
		Str("phase", string(phase)).
		Str("vote", string(out.Vote)).
		Msg("phase message delivered")
}
