package coordinator

import (
	"context"
	"errors"
	"testing"
	"time"

	"tx-resource-manager/internal/core/domain"
	"tx-resource-manager/internal/core/ports"
	"tx-resource-manager/internal/core/ports/mocks"
	"tx-resource-manager/pkg/txerror"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testPhaseTimeout = 2 * time.Second

func newTestCoordinator(t *testing.T, mode string, opts ...Option) *Coordinator {
	t.Helper()
	var p ports.Propagator
	switch mode {
	case "concurrent":
		p = NewConcurrentPropagator(zerolog.Nop(), 8)
	default:
		p = NewSyncPropagator(zerolog.Nop())
	}
	return New(p, testPhaseTimeout, zerolog.Nop(), opts...)
}

func yesParticipant(ctrl *gomock.Controller, id string) *mocks.MockCommitParticipant {
	p := mocks.NewMockCommitParticipant(ctrl)
	p.EXPECT().ID().Return(id).AnyTimes()
	return p
}

func TestCoordinator_CommitTwoPhase_AllYes(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := newTestCoordinator(t, "sync")

	for _, id := range []string{"rm-a", "rm-b"} {
		p := yesParticipant(ctrl, id)
		p.EXPECT().Vote(gomock.Any()).Return(domain.VoteYes, nil)
		p.EXPECT().Commit(gomock.Any()).Return(nil)
		p.EXPECT().Forget(gomock.Any()).Return(nil)
		require.NoError(t, c.Enlist(p, nil))
	}

	err := c.Commit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.StateTerminated, c.State())
	assert.False(t, c.Heuristic())
}

func TestCoordinator_CommitConcurrent_AllYes(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := newTestCoordinator(t, "concurrent")

	for _, id := range []string{"rm-a", "rm-b", "rm-c"} {
		p := yesParticipant(ctrl, id)
		p.EXPECT().Vote(gomock.Any()).Return(domain.VoteYes, nil)
		p.EXPECT().Commit(gomock.Any()).Return(nil)
		p.EXPECT().Forget(gomock.Any()).Return(nil)
		require.NoError(t, c.Enlist(p, nil))
	}

	require.NoError(t, c.Commit(context.Background()))
	assert.Equal(t, domain.StateTerminated, c.State())
	assert.Equal(t, "concurrent", c.Mode())
}

func TestCoordinator_CommitOnePhase_SingleParticipant(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := newTestCoordinator(t, "sync")

	p := yesParticipant(ctrl, "rm-solo")
	// The sole participant must see a combined message: no separate
	// prepare or commit round.
	p.EXPECT().CommitOnePhase(gomock.Any()).Return(nil)
	p.EXPECT().Forget(gomock.Any()).Return(nil)
	require.NoError(t, c.Enlist(p, nil))

	require.NoError(t, c.Commit(context.Background()))
	assert.Equal(t, domain.StateTerminated, c.State())
}

func TestCoordinator_CommitOnePhase_FailureRollsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := newTestCoordinator(t, "sync")

	p := yesParticipant(ctrl, "rm-solo")
	p.EXPECT().CommitOnePhase(gomock.Any()).Return(errors.New("commit refused"))
	p.EXPECT().Forget(gomock.Any()).Return(nil)

	listener := mocks.NewMockTerminationListener(ctrl)
	listener.EXPECT().TransactionTerminated(domain.Outcome{
		TransactionID: c.ID(),
		Committed:     false,
	})
	require.NoError(t, c.Enlist(p, listener))

	err := c.Commit(context.Background())

	require.Error(t, err)
	assert.True(t, txerror.Is(err, txerror.CodeRolledBack))
	assert.Equal(t, domain.StateTerminated, c.State())
}

func TestCoordinator_CommitEmpty(t *testing.T) {
	c := newTestCoordinator(t, "sync")

	require.NoError(t, c.Commit(context.Background()))
	assert.Equal(t, domain.StateTerminated, c.State())
}

func TestCoordinator_NegativeVoteForcesRollback(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := newTestCoordinator(t, "sync")

	willing := yesParticipant(ctrl, "rm-willing")
	willing.EXPECT().Vote(gomock.Any()).Return(domain.VoteYes, nil)
	willing.EXPECT().Rollback(gomock.Any()).Return(nil)
	willing.EXPECT().Forget(gomock.Any()).Return(nil)

	refusing := yesParticipant(ctrl, "rm-refusing")
	refusing.EXPECT().Vote(gomock.Any()).Return(domain.VoteNo, nil)
	refusing.EXPECT().Rollback(gomock.Any()).Return(nil)
	refusing.EXPECT().Forget(gomock.Any()).Return(nil)

	require.NoError(t, c.Enlist(willing, nil))
	require.NoError(t, c.Enlist(refusing, nil))

	err := c.Commit(context.Background())

	require.Error(t, err)
	assert.True(t, txerror.Is(err, txerror.CodeRolledBack))
	assert.Contains(t, err.Error(), "rm-refusing")
	assert.Equal(t, domain.StateTerminated, c.State())

	// No commit was ever sent: neither participant has a Commit
	// expectation, so the controller would fail on an unexpected call.
}

func TestCoordinator_VoteFailureCountsAsNegativeVote(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := newTestCoordinator(t, "sync")

	healthy := yesParticipant(ctrl, "rm-healthy")
	healthy.EXPECT().Vote(gomock.Any()).Return(domain.VoteYes, nil)
	healthy.EXPECT().Rollback(gomock.Any()).Return(nil)
	healthy.EXPECT().Forget(gomock.Any()).Return(nil)

	broken := yesParticipant(ctrl, "rm-broken")
	broken.EXPECT().Vote(gomock.Any()).Return(domain.Vote(""), errors.New("prepare log unwritable"))
	broken.EXPECT().Rollback(gomock.Any()).Return(nil)
	broken.EXPECT().Forget(gomock.Any()).Return(nil)

	require.NoError(t, c.Enlist(healthy, nil))
	require.NoError(t, c.Enlist(broken, nil))

	err := c.Commit(context.Background())

	require.Error(t, err)
	assert.True(t, txerror.Is(err, txerror.CodeRolledBack))
	assert.Equal(t, domain.StateTerminated, c.State())
}

func TestCoordinator_VoteTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := NewSyncPropagator(zerolog.Nop())
	c := New(p, 30*time.Millisecond, zerolog.Nop())

	for _, id := range []string{"rm-a", "rm-b"} {
		stuck := yesParticipant(ctrl, id)
		stuck.EXPECT().Vote(gomock.Any()).DoAndReturn(func(ctx context.Context) (domain.Vote, error) {
			<-ctx.Done()
			return domain.VoteNo, ctx.Err()
		})
		stuck.EXPECT().Rollback(gomock.Any()).Return(nil)
		stuck.EXPECT().Forget(gomock.Any()).Return(nil)
		require.NoError(t, c.Enlist(stuck, nil))
	}

	err := c.Commit(context.Background())

	require.Error(t, err)
	assert.True(t, txerror.Is(err, txerror.CodeTransactionTimeout))
	assert.Equal(t, domain.StateTerminated, c.State())
}

func TestCoordinator_CommitPhaseFailureIsHeuristic(t *testing.T) {
	ctrl := gomock.NewController(t)
	journal := mocks.NewMockTransactionJournal(ctrl)
	journal.EXPECT().RecordState(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	c := newTestCoordinator(t, "sync", WithJournal(journal))

	journal.EXPECT().RecordHeuristic(gomock.Any(), c.ID(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ interface{}, rec ports.HeuristicRecord) error {
			assert.Equal(t, "rm-flaky", rec.ParticipantID)
			assert.Contains(t, rec.Detail, "disk full")
			return nil
		})

	solid := yesParticipant(ctrl, "rm-solid")
	solid.EXPECT().Vote(gomock.Any()).Return(domain.VoteYes, nil)
	solid.EXPECT().Commit(gomock.Any()).Return(nil)
	solid.EXPECT().Forget(gomock.Any()).Return(nil)

	flaky := yesParticipant(ctrl, "rm-flaky")
	flaky.EXPECT().Vote(gomock.Any()).Return(domain.VoteYes, nil)
	flaky.EXPECT().Commit(gomock.Any()).Return(errors.New("disk full"))
	flaky.EXPECT().Forget(gomock.Any()).Return(nil)

	listener := mocks.NewMockTerminationListener(ctrl)
	listener.EXPECT().TransactionTerminated(gomock.Any()).Do(func(out domain.Outcome) {
		assert.True(t, out.Committed, "the decision stands despite the failure")
		assert.True(t, out.Heuristic)
	})

	require.NoError(t, c.Enlist(solid, listener))
	require.NoError(t, c.Enlist(flaky, nil))

	err := c.Commit(context.Background())

	// The failure is reported exactly once and the transaction still
	// counts as committed.
	require.Error(t, err)
	assert.True(t, txerror.Is(err, txerror.CodeParticipantCommit))
	assert.Equal(t, domain.StateTerminated, c.State())
	assert.True(t, c.Heuristic())
	require.Len(t, c.Heuristics(), 1)
	assert.Equal(t, "rm-flaky", c.Heuristics()[0].ParticipantID)
}

func TestCoordinator_Rollback(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := newTestCoordinator(t, "sync")

	p := yesParticipant(ctrl, "rm-a")
	p.EXPECT().Rollback(gomock.Any()).Return(nil)
	p.EXPECT().Forget(gomock.Any()).Return(nil)

	listener := mocks.NewMockTerminationListener(ctrl)
	listener.EXPECT().TransactionTerminated(domain.Outcome{
		TransactionID: c.ID(),
		Committed:     false,
	})

	require.NoError(t, c.Enlist(p, listener))
	require.NoError(t, c.Rollback(context.Background()))
	assert.Equal(t, domain.StateTerminated, c.State())
}

func TestCoordinator_RollbackFailureStillTerminates(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := newTestCoordinator(t, "sync")

	p := yesParticipant(ctrl, "rm-a")
	p.EXPECT().Rollback(gomock.Any()).Return(errors.New("connection dropped"))
	p.EXPECT().Forget(gomock.Any()).Return(nil)
	require.NoError(t, c.Enlist(p, nil))

	require.NoError(t, c.Rollback(context.Background()))
	assert.Equal(t, domain.StateTerminated, c.State())
}

func TestCoordinator_RollbackDuringPrepareWinsOverCommit(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := newTestCoordinator(t, "sync")

	voteEntered := make(chan struct{})
	release := make(chan struct{})

	stuck := yesParticipant(ctrl, "rm-stuck")
	stuck.EXPECT().Vote(gomock.Any()).DoAndReturn(func(ctx context.Context) (domain.Vote, error) {
		close(voteEntered)
		<-release
		return domain.VoteYes, nil
	})
	stuck.EXPECT().Rollback(gomock.Any()).Return(nil)
	stuck.EXPECT().Forget(gomock.Any()).Return(nil)

	idle := yesParticipant(ctrl, "rm-idle")
	idle.EXPECT().Vote(gomock.Any()).Return(domain.VoteYes, nil).MaxTimes(1)
	idle.EXPECT().Rollback(gomock.Any()).Return(nil)
	idle.EXPECT().Forget(gomock.Any()).Return(nil)

	// Exactly one termination event, and it carries the abort outcome.
	listener := mocks.NewMockTerminationListener(ctrl)
	listener.EXPECT().TransactionTerminated(domain.Outcome{
		TransactionID: c.ID(),
		Committed:     false,
	}).Times(1)

	require.NoError(t, c.Enlist(stuck, listener))
	require.NoError(t, c.Enlist(idle, nil))

	commitErr := make(chan error, 1)
	go func() { commitErr <- c.Commit(context.Background()) }()

	<-voteEntered
	require.NoError(t, c.Rollback(context.Background()))
	assert.Equal(t, domain.StateTerminated, c.State())
	close(release)

	err := <-commitErr

	// The commit driver stands down: no Commit expectation exists on either
	// participant, so the controller would fail if one were delivered.
	require.Error(t, err)
	assert.True(t, txerror.Is(err, txerror.CodeRolledBack))
	assert.Equal(t, domain.StateTerminated, c.State())
	assert.False(t, c.Committed())
}

func TestCoordinator_EnlistAfterTermination(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := newTestCoordinator(t, "sync")
	require.NoError(t, c.Commit(context.Background()))

	err := c.Enlist(yesParticipant(ctrl, "rm-late"), nil)

	require.Error(t, err)
	assert.True(t, txerror.Is(err, txerror.CodeInvalidState))
}

func TestCoordinator_CommitTwice(t *testing.T) {
	c := newTestCoordinator(t, "sync")
	require.NoError(t, c.Commit(context.Background()))

	err := c.Commit(context.Background())

	require.Error(t, err)
	assert.True(t, txerror.Is(err, txerror.CodeInvalidState))
}

func TestCoordinator_RollbackAfterCommit(t *testing.T) {
	c := newTestCoordinator(t, "sync")
	require.NoError(t, c.Commit(context.Background()))

	err := c.Rollback(context.Background())

	require.Error(t, err)
	assert.True(t, txerror.Is(err, txerror.CodeInvalidState))
}

func TestCoordinator_JournalRecordsTransitions(t *testing.T) {
	ctrl := gomock.NewController(t)
	journal := mocks.NewMockTransactionJournal(ctrl)

	var states []domain.TransactionState
	journal.EXPECT().RecordState(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ interface{}, state domain.TransactionState) error {
			states = append(states, state)
			return nil
		}).AnyTimes()

	c := newTestCoordinator(t, "sync", WithJournal(journal))

	for _, id := range []string{"rm-a", "rm-b"} {
		p := yesParticipant(ctrl, id)
		p.EXPECT().Vote(gomock.Any()).Return(domain.VoteYes, nil)
		p.EXPECT().Commit(gomock.Any()).Return(nil)
		p.EXPECT().Forget(gomock.Any()).Return(nil)
		require.NoError(t, c.Enlist(p, nil))
	}

	require.NoError(t, c.Commit(context.Background()))

	assert.Equal(t, []domain.TransactionState{
		domain.StatePreparing,
		domain.StatePrepared,
		domain.StateCommitting,
		domain.StateCommitted,
		domain.StateTerminated,
	}, states)
}

func TestCoordinator_JournalFailureIsNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	journal := mocks.NewMockTransactionJournal(ctrl)
	journal.EXPECT().RecordState(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("journal store unavailable")).AnyTimes()

	c := newTestCoordinator(t, "sync", WithJournal(journal))

	p := yesParticipant(ctrl, "rm-a")
	p.EXPECT().CommitOnePhase(gomock.Any()).Return(nil)
	p.EXPECT().Forget(gomock.Any()).Return(nil)
	require.NoError(t, c.Enlist(p, nil))

	require.NoError(t, c.Commit(context.Background()))
	assert.Equal(t, domain.StateTerminated, c.State())
}

func TestCoordinator_OnTerminatedHookFires(t *testing.T) {
	var got *Coordinator
	c := newTestCoordinator(t, "sync", WithOnTerminated(func(done *Coordinator) { got = done }))

	require.NoError(t, c.Commit(context.Background()))

	require.NotNil(t, got)
	assert.Equal(t, c.ID(), got.ID())
}

func TestCoordinator_ForgetFailureIsNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := newTestCoordinator(t, "sync")

	p := yesParticipant(ctrl, "rm-a")
	p.EXPECT().CommitOnePhase(gomock.Any()).Return(nil)
	p.EXPECT().Forget(gomock.Any()).Return(errors.New("already gone"))
	require.NoError(t, c.Enlist(p, nil))

	require.NoError(t, c.Commit(context.Background()))
	assert.Equal(t, domain.StateTerminated, c.State())
}
