package pool

import (
	"sync"
	"time"

	"tx-resource-manager/internal/core/domain"
	"tx-resource-manager/internal/core/ports"

	"github.com/google/uuid"
)

// PooledConnection owns exactly one physical connection for its whole
// lifetime. It cycles between AVAILABLE and BORROWED; BROKEN and DESTROYED
// are one-way. It implements ports.TerminationListener so the coordinator can
// hand the connection back to the pool when the borrowing transaction ends.
type PooledConnection struct {
	id        uuid.UUID
	physical  ports.PhysicalConnection
	createdAt time.Time
	pool      *Pool

	mu           sync.Mutex
	state        domain.ConnectionState
	lastBorrowed time.Time
	idleSince    time.Time
}

func newPooledConnection(p *Pool, physical ports.PhysicalConnection, state domain.ConnectionState) *PooledConnection {
	now := time.Now()
	return &PooledConnection{
		id:        uuid.New(),
		physical:  physical,
		createdAt: now,
		pool:      p,
		state:     state,
		idleSince: now,
	}
}

// ID returns the connection's identity.
func (c *PooledConnection) ID() uuid.UUID {
	return c.id
}

// Physical exposes the raw handle for the exclusive use of the current
// borrower. Never shared between goroutines.
func (c *PooledConnection) Physical() ports.PhysicalConnection {
	return c.physical
}

// State returns the current lifecycle state.
func (c *PooledConnection) State() domain.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CreatedAt returns the creation timestamp.
func (c *PooledConnection) CreatedAt() time.Time {
	return c.createdAt
}

// LastBorrowed returns when the connection was most recently lent out.
func (c *PooledConnection) LastBorrowed() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastBorrowed
}

// MarkBroken flags the connection so the pool destroys it instead of
// recycling it on return. Called by the borrower when the physical handle
// misbehaved mid-use.
func (c *PooledConnection) MarkBroken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == domain.ConnBorrowed {
		c.state = domain.ConnBroken
	}
}

// Return hands the connection back to its pool outside of any transaction.
func (c *PooledConnection) Return() {
	c.pool.Return(c)
}

// TransactionTerminated implements ports.TerminationListener. The borrowing
// transaction has fully ended; the pool's return/destroy rules decide whether
// the connection is recycled.
func (c *PooledConnection) TransactionTerminated(outcome domain.Outcome) {
	c.pool.log.Debug().
		Str("conn_id", c.id.String()).
		Str("tx_id", outcome.TransactionID.String()).
		Bool("committed", outcome.Committed).
		Bool("heuristic", outcome.Heuristic).
		Msg("transaction terminated, releasing connection")
	c.pool.Return(c)
}

func (c *PooledConnection) setBorrowed(now time.Time) {
	c.mu.Lock()
	c.state = domain.ConnBorrowed
	c.lastBorrowed = now
	c.mu.Unlock()
}

func (c *PooledConnection) setAvailable(now time.Time) {
	c.mu.Lock()
	c.state = domain.ConnAvailable
	c.idleSince = now
	c.mu.Unlock()
}

// setDestroyed claims the one-way step into DESTROYED and reports whether
// this caller won it. The winner is the only one allowed to destroy the
// physical handle; the factory's DestroyPhysical contract is at most once.
func (c *PooledConnection) setDestroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == domain.ConnDestroyed {
		return false
	}
	c.state = domain.ConnDestroyed
	return true
}

func (c *PooledConnection) idleDuration(now time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return now.Sub(c.idleSince)
}

func (c *PooledConnection) age(now time.Time) time.Duration {
	return now.Sub(c.createdAt)
}
