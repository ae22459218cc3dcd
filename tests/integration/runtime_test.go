package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"tx-resource-manager/config"
	"tx-resource-manager/internal/core/domain"
	"tx-resource-manager/internal/manager"
	"tx-resource-manager/internal/pool"
	"tx-resource-manager/pkg/txerror"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRuntime struct {
	factory *memFactory
	ledger  *memLedger
	pool    *pool.Pool
	manager *manager.TransactionManager
}

func newTestRuntime(t *testing.T, mode string, disablePooling bool) *testRuntime {
	t.Helper()
	factory := newMemFactory()
	poolCfg := config.PoolConfig{
		MinSize:             1,
		MaxSize:             4,
		BorrowTimeout:       2 * time.Second,
		IdleTimeout:         time.Minute,
		MaintenanceInterval: time.Minute,
		TestOnBorrow:        true,
		BorrowRetryLimit:    3,
		DisablePooling:      disablePooling,
	}

	p, err := pool.New(context.Background(), poolCfg, factory, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	m := manager.New(config.CoordinatorConfig{
		PropagationMode: mode,
		MaxTimeout:      2 * time.Second,
		WorkerLimit:     4,
	}, zerolog.Nop())
	t.Cleanup(func() { m.Shutdown(context.Background()) })

	return &testRuntime{
		factory: factory,
		ledger:  newMemLedger(),
		pool:    p,
		manager: m,
	}
}

// transfer runs the full loop once: borrow connections, enlist one staged
// balance change per connection, drive the transaction, and rely on
// termination listeners to return the connections.
func (rt *testRuntime) transfer(t *testing.T, parts ...*memParticipant) error {
	t.Helper()
	ctx := context.Background()

	tx, err := rt.manager.Begin(ctx)
	require.NoError(t, err)

	for _, part := range parts {
		conn, err := rt.pool.Borrow(ctx, 0)
		require.NoError(t, err)
		require.NoError(t, tx.Enlist(part, conn))
	}

	return tx.Commit(ctx)
}

func TestFullCommitLoop(t *testing.T) {
	for _, mode := range []string{config.PropagationSync, config.PropagationConcurrent} {
		t.Run(mode, func(t *testing.T) {
			rt := newTestRuntime(t, mode, false)

			debit := newMemParticipant("rm-debit", rt.ledger, "alice", -100)
			credit := newMemParticipant("rm-credit", rt.ledger, "bob", +100)

			require.NoError(t, rt.transfer(t, debit, credit))

			assert.Equal(t, -100, rt.ledger.balance("alice"))
			assert.Equal(t, 100, rt.ledger.balance("bob"))
			assert.True(t, debit.sawPhase(domain.PhasePrepare))
			assert.True(t, credit.sawPhase(domain.PhaseCommit))
			assert.True(t, debit.sawPhase(domain.PhaseForget))

			// Termination listeners returned both connections.
			assert.Equal(t, 2, rt.pool.AvailableSize())

			counters := rt.manager.Counters()
			assert.Equal(t, 0, counters.Active)
			assert.Equal(t, uint64(1), counters.Committed)
		})
	}
}

func TestRollbackLoopOnNegativeVote(t *testing.T) {
	for _, mode := range []string{config.PropagationSync, config.PropagationConcurrent} {
		t.Run(mode, func(t *testing.T) {
			rt := newTestRuntime(t, mode, false)

			debit := newMemParticipant("rm-debit", rt.ledger, "alice", -100)
			credit := newMemParticipant("rm-credit", rt.ledger, "bob", +100)
			credit.voteNo = true

			err := rt.transfer(t, debit, credit)
			require.Error(t, err)
			assert.True(t, txerror.Is(err, txerror.CodeRolledBack))

			assert.Equal(t, 0, rt.ledger.balance("alice"))
			assert.Equal(t, 0, rt.ledger.balance("bob"))
			assert.True(t, debit.sawPhase(domain.PhaseRollback))
			assert.False(t, debit.sawPhase(domain.PhaseCommit))

			assert.Equal(t, 2, rt.pool.AvailableSize())
			assert.Equal(t, uint64(1), rt.manager.Counters().Aborted)
		})
	}
}

func TestHeuristicLoop(t *testing.T) {
	rt := newTestRuntime(t, config.PropagationSync, false)

	debit := newMemParticipant("rm-debit", rt.ledger, "alice", -100)
	credit := newMemParticipant("rm-credit", rt.ledger, "bob", +100)
	credit.commitErr = errCommitRefused

	err := rt.transfer(t, debit, credit)
	require.Error(t, err)
	assert.True(t, txerror.Is(err, txerror.CodeParticipantCommit))

	// The decision stands: the healthy participant committed, the failed one
	// is tagged, never retried.
	assert.Equal(t, -100, rt.ledger.balance("alice"))
	assert.Equal(t, 0, rt.ledger.balance("bob"))
	assert.Equal(t, 2, rt.pool.AvailableSize())

	counters := rt.manager.Counters()
	assert.Equal(t, uint64(1), counters.Committed)
	assert.Equal(t, uint64(1), counters.Heuristic)
}

func TestOnePhaseLoop(t *testing.T) {
	rt := newTestRuntime(t, config.PropagationSync, false)

	solo := newMemParticipant("rm-solo", rt.ledger, "alice", 50)

	require.NoError(t, rt.transfer(t, solo))

	assert.Equal(t, 50, rt.ledger.balance("alice"))
	assert.True(t, solo.sawPhase(domain.PhaseCommitOnePhase))
	assert.False(t, solo.sawPhase(domain.PhasePrepare))
	assert.False(t, solo.sawPhase(domain.PhaseCommit))
}

func TestUnpooledLoop(t *testing.T) {
	rt := newTestRuntime(t, config.PropagationSync, true)

	assert.Equal(t, 0, rt.pool.AvailableSize())
	assert.Equal(t, 0, rt.pool.TotalSize())

	ctx := context.Background()
	tx, err := rt.manager.Begin(ctx)
	require.NoError(t, err)

	conn, err := rt.pool.Borrow(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, rt.pool.TotalSize())
	assert.Equal(t, 0, rt.pool.AvailableSize())

	part := newMemParticipant("rm-solo", rt.ledger, "alice", 25)
	require.NoError(t, tx.Enlist(part, conn))
	require.NoError(t, tx.Commit(ctx))

	// Pass-through mode destroys the handle instead of recycling it.
	assert.Equal(t, 0, rt.pool.TotalSize())
	created, destroyed := rt.factory.counts()
	assert.Equal(t, created, destroyed)
	assert.Equal(t, 25, rt.ledger.balance("alice"))
}

func TestPooledRecyclingAcrossTransactions(t *testing.T) {
	rt := newTestRuntime(t, config.PropagationSync, false)

	for i := 0; i < 5; i++ {
		part := newMemParticipant(fmt.Sprintf("rm-%d", i), rt.ledger, "alice", 10)
		require.NoError(t, rt.transfer(t, part))
	}

	assert.Equal(t, 50, rt.ledger.balance("alice"))

	// Five sequential transactions reuse the same physical connection.
	created, _ := rt.factory.counts()
	assert.Equal(t, 1, created)
	assert.Equal(t, uint64(5), rt.manager.Counters().Committed)
}

func TestConcurrentTransactions(t *testing.T) {
	rt := newTestRuntime(t, config.PropagationConcurrent, false)

	const workers = 8
	errCh := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			part := newMemParticipant(fmt.Sprintf("rm-%d", i), rt.ledger, "shared", 1)
			ctx := context.Background()
			tx, err := rt.manager.Begin(ctx)
			if err != nil {
				errCh <- err
				return
			}
			conn, err := rt.pool.Borrow(ctx, 2*time.Second)
			if err != nil {
				errCh <- err
				return
			}
			if err := tx.Enlist(part, conn); err != nil {
				errCh <- err
				return
			}
			errCh <- tx.Commit(ctx)
		}(i)
	}
	for i := 0; i < workers; i++ {
		require.NoError(t, <-errCh)
	}

	assert.Equal(t, workers, rt.ledger.balance("shared"))
	assert.Equal(t, uint64(workers), rt.manager.Counters().Committed)
	assert.Equal(t, 0, rt.manager.Counters().Active)
	assert.LessOrEqual(t, rt.pool.TotalSize(), 4, "bounded by max size")
}
