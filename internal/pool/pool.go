package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tx-resource-manager/config"
	"tx-resource-manager/internal/core/domain"
	"tx-resource-manager/internal/core/ports"
	"tx-resource-manager/pkg/txerror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Pool is a bounded collection of pooled connections. The membership lock is
// held only for short bookkeeping sections; physical creation, validation and
// destruction always run unlocked so slow I/O never blocks unrelated
// borrowers.
//
// When pooling is disabled the pool degenerates to a pass-through: every
// borrow creates a fresh connection (tracked only so Shutdown can reach it)
// and every return destroys one. No AVAILABLE set exists in that mode.
type Pool struct {
	cfg     config.PoolConfig
	factory ports.ConnectionFactory
	log     zerolog.Logger

	mu       sync.Mutex
	conns    map[uuid.UUID]*PooledConnection // all owned connections
	idle     []*PooledConnection
	reserved int // slots held for in-flight creation
	closed   bool

	signal   chan struct{} // pulsed when a slot or idle connection frees up
	closedCh chan struct{}
	maintWG  sync.WaitGroup
}

// Stats is a point-in-time snapshot of pool sizes.
type Stats struct {
	Available int  `json:"available"`
	Borrowed  int  `json:"borrowed"`
	Total     int  `json:"total"`
	MinSize   int  `json:"min_size"`
	MaxSize   int  `json:"max_size"`
	Unpooled  bool `json:"unpooled"`
}

// New creates a pool around the given factory. In pooled mode it pre-fills
// the minimum size and starts the maintenance cycle; with pooling disabled it
// does neither, since there is no steady-state pool to maintain.
func New(ctx context.Context, cfg config.PoolConfig, factory ports.ConnectionFactory, log zerolog.Logger) (*Pool, error) {
	p := &Pool{
		cfg:      cfg,
		factory:  factory,
		log:      log.With().Str("component", "pool").Logger(),
		conns:    make(map[uuid.UUID]*PooledConnection),
		signal:   make(chan struct{}, 1),
		closedCh: make(chan struct{}),
	}

	if cfg.DisablePooling {
		p.log.Info().Msg("pooling disabled, operating in pass-through mode")
		return p, nil
	}

	for i := 0; i < cfg.MinSize; i++ {
		physical, err := factory.CreatePhysical(ctx)
		if err != nil {
			p.log.Error().Err(err).Msg("pre-fill failed, shutting pool down")
			_ = p.Shutdown(ctx)
			return nil, txerror.ErrCreateConnectionFailed(err)
		}
		c := newPooledConnection(p, physical, domain.ConnAvailable)
		p.mu.Lock()
		p.conns[c.id] = c
		p.idle = append(p.idle, c)
		p.mu.Unlock()
	}

	if cfg.MaintenanceInterval > 0 {
		p.maintWG.Add(1)
		go p.maintainLoop()
	}

	p.log.Info().
		Int("min_size", cfg.MinSize).
		Int("max_size", cfg.MaxSize).
		Dur("borrow_timeout", cfg.BorrowTimeout).
		Msg("connection pool initialised")
	return p, nil
}

// Borrow acquires a connection, blocking up to timeout for capacity. A zero
// timeout fails immediately when nothing is available. The returned
// connection is BORROWED and exclusively owned by the caller until it is
// returned or its transaction terminates.
func (p *Pool) Borrow(ctx context.Context, timeout time.Duration) (*PooledConnection, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	attempts := 0
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, txerror.ErrPoolClosed()
		}

		if p.cfg.DisablePooling {
			p.reserved++
			p.mu.Unlock()
			return p.createBorrowed(ctx)
		}

		if n := len(p.idle); n > 0 {
			c := p.idle[n-1] // LIFO keeps hot connections hot
			p.idle = p.idle[:n-1]
			c.setBorrowed(time.Now())
			more := len(p.idle) > 0 || len(p.conns)+p.reserved < p.cfg.MaxSize
			p.mu.Unlock()
			if more {
				p.wake() // cascade: other waiters may still be served
			}

			if p.cfg.TestOnBorrow && !p.factory.Validate(ctx, c.physical) {
				p.log.Warn().Str("conn_id", c.id.String()).Msg("validation failed on borrow, discarding connection")
				p.discard(ctx, c)
				attempts++
				if attempts >= p.cfg.BorrowRetryLimit {
					return nil, txerror.ErrCreateConnectionFailed(
						fmt.Errorf("validation failed for %d consecutive candidates", attempts))
				}
				continue
			}
			return c, nil
		}

		if len(p.conns)+p.reserved < p.cfg.MaxSize {
			p.reserved++
			more := len(p.idle) > 0 || len(p.conns)+p.reserved < p.cfg.MaxSize
			p.mu.Unlock()
			if more {
				p.wake()
			}
			return p.createBorrowed(ctx)
		}
		p.mu.Unlock()

		// Pool is full and nothing is idle: wait for a slot.
		if timeout == 0 {
			return nil, txerror.ErrPoolExhausted()
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, txerror.ErrPoolExhausted()
		}
		timer := time.NewTimer(remaining)
		select {
		case <-p.signal:
			timer.Stop()
		case <-timer.C:
			return nil, txerror.ErrPoolExhausted()
		case <-p.closedCh:
			timer.Stop()
			return nil, txerror.ErrPoolClosed()
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
}

// createBorrowed performs the unlocked create step after a slot has been
// reserved, then commits the result under the lock. TestOnBorrow does not
// apply here: the factory just built and handed over the physical handle, so
// it is assumed healthy until proven otherwise.
func (p *Pool) createBorrowed(ctx context.Context) (*PooledConnection, error) {
	physical, err := p.factory.CreatePhysical(ctx)

	p.mu.Lock()
	p.reserved--
	if err != nil {
		p.mu.Unlock()
		p.wake() // slot released, let waiters retry
		return nil, txerror.ErrCreateConnectionFailed(err)
	}
	if p.closed {
		p.mu.Unlock()
		p.destroyPhysical(context.WithoutCancel(ctx), physical)
		return nil, txerror.ErrPoolClosed()
	}
	c := newPooledConnection(p, physical, domain.ConnBorrowed)
	c.lastBorrowed = c.createdAt
	p.conns[c.id] = c
	p.mu.Unlock()

	p.log.Debug().Str("conn_id", c.id.String()).Msg("created physical connection")
	return c, nil
}

// Return hands a borrowed connection back. In pooled mode a healthy
// connection becomes AVAILABLE again; a BROKEN one, or any connection when
// pooling is disabled, is destroyed immediately.
func (p *Pool) Return(c *PooledConnection) {
	state := c.State()
	if state != domain.ConnBorrowed && state != domain.ConnBroken {
		p.log.Warn().
			Str("conn_id", c.id.String()).
			Str("state", string(state)).
			Msg("ignoring return of connection not lent out")
		return
	}
	broken := state == domain.ConnBroken

	p.mu.Lock()
	if p.closed || p.cfg.DisablePooling || broken {
		delete(p.conns, c.id)
		p.mu.Unlock()
		if c.setDestroyed() {
			p.destroyPhysical(context.Background(), c.physical)
		}
		p.wake()
		return
	}
	c.setAvailable(time.Now())
	p.idle = append(p.idle, c)
	p.mu.Unlock()
	p.wake()
}

// discard removes a connection that failed validation while nominally
// borrowed. The freed slot is signalled to waiters.
func (p *Pool) discard(ctx context.Context, c *PooledConnection) {
	p.mu.Lock()
	delete(p.conns, c.id)
	p.mu.Unlock()
	if c.setDestroyed() {
		p.destroyPhysical(ctx, c.physical)
	}
	p.wake()
}

// Shutdown destroys every owned connection regardless of state. Idempotent:
// the second call is a no-op. Subsequent borrows fail with PoolClosed.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	all := make([]*PooledConnection, 0, len(p.conns))
	for _, c := range p.conns {
		all = append(all, c)
	}
	p.conns = make(map[uuid.UUID]*PooledConnection)
	p.idle = nil
	p.mu.Unlock()

	close(p.closedCh)
	p.maintWG.Wait()

	for _, c := range all {
		// A racing Return or discard may have destroyed the handle already.
		if c.setDestroyed() {
			p.destroyPhysical(ctx, c.physical)
		}
	}

	p.log.Info().Int("destroyed", len(all)).Msg("connection pool shut down")
	return nil
}

// AvailableSize reports the number of idle connections. Constant zero when
// pooling is disabled: no AVAILABLE set exists in that mode.
func (p *Pool) AvailableSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cfg.DisablePooling {
		return 0
	}
	return len(p.idle)
}

// TotalSize reports the number of owned connections. With pooling disabled
// this is the live in-flight count, so size accounting stays truthful even
// though no steady-state pool exists.
func (p *Pool) TotalSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

// Stats returns a snapshot for observability.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	available := len(p.idle)
	if p.cfg.DisablePooling {
		available = 0
	}
	return Stats{
		Available: available,
		Borrowed:  len(p.conns) - len(p.idle),
		Total:     len(p.conns),
		MinSize:   p.cfg.MinSize,
		MaxSize:   p.cfg.MaxSize,
		Unpooled:  p.cfg.DisablePooling,
	}
}

// maintainLoop runs the periodic eviction cycle until shutdown.
func (p *Pool) maintainLoop() {
	defer p.maintWG.Done()
	ticker := time.NewTicker(p.cfg.MaintenanceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.maintain()
		case <-p.closedCh:
			return
		}
	}
}

// maintain evicts idle connections past the idle timeout down to the minimum
// size, and any idle connection past the maximum lifetime. Victims are
// selected under the lock but destroyed outside it.
func (p *Pool) maintain() {
	now := time.Now()

	p.mu.Lock()
	var victims []*PooledConnection
	kept := p.idle[:0]
	for _, c := range p.idle {
		tooOld := p.cfg.MaxLifetime > 0 && c.age(now) > p.cfg.MaxLifetime
		idleTooLong := p.cfg.IdleTimeout > 0 && c.idleDuration(now) > p.cfg.IdleTimeout
		shrinkable := len(p.conns)-len(victims) > p.cfg.MinSize
		if tooOld || (idleTooLong && shrinkable) {
			victims = append(victims, c)
			delete(p.conns, c.id)
			continue
		}
		kept = append(kept, c)
	}
	p.idle = kept
	p.mu.Unlock()

	for _, c := range victims {
		if c.setDestroyed() {
			p.destroyPhysical(context.Background(), c.physical)
		}
		p.wake()
	}
	if len(victims) > 0 {
		p.log.Debug().Int("evicted", len(victims)).Msg("maintenance cycle evicted idle connections")
	}
}

func (p *Pool) destroyPhysical(ctx context.Context, physical ports.PhysicalConnection) {
	if err := p.factory.DestroyPhysical(ctx, physical); err != nil {
		p.log.Warn().Err(err).Msg("failed to destroy physical connection")
	}
}

// wake nudges one waiting borrower. Non-blocking: a pending pulse already
// guarantees a wakeup.
func (p *Pool) wake() {
	select {
	case p.signal <- struct{}{}:
	default:
	}
}
