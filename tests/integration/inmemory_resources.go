package integration

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"tx-resource-manager/internal/core/domain"
	"tx-resource-manager/internal/core/ports"
)

// --- In-Memory Ledger ---

// memLedger is the shared resource-manager state the participants mutate.
type memLedger struct {
	mu       sync.Mutex
	balances map[string]int
}

func newMemLedger() *memLedger {
	return &memLedger{balances: make(map[string]int)}
}

func (l *memLedger) apply(account string, delta int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] += delta
}

func (l *memLedger) balance(account string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}

// --- In-Memory Connection Factory ---

type memPhysical struct {
	id     int
	closed bool
}

type memFactory struct {
	mu         sync.Mutex
	nextID     int
	created    int
	destroyed  int
	validateOK bool
}

func newMemFactory() *memFactory {
	return &memFactory{validateOK: true}
}

func (f *memFactory) CreatePhysical(_ context.Context) (ports.PhysicalConnection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.created++
	return &memPhysical{id: f.nextID}, nil
}

func (f *memFactory) DestroyPhysical(_ context.Context, physical ports.PhysicalConnection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conn, ok := physical.(*memPhysical)
	if !ok {
		return fmt.Errorf("unexpected physical type %T", physical)
	}
	conn.closed = true
	f.destroyed++
	return nil
}

func (f *memFactory) Validate(_ context.Context, physical ports.PhysicalConnection) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	conn, ok := physical.(*memPhysical)
	return ok && !conn.closed && f.validateOK
}

func (f *memFactory) counts() (created, destroyed int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created, f.destroyed
}

// --- In-Memory Commit Participant ---

// memParticipant stages one balance change against the ledger and applies it
// only on commit.
type memParticipant struct {
	id      string
	ledger  *memLedger
	account string
	delta   int

	voteNo    bool
	commitErr error

	mu     sync.Mutex
	phases []domain.Phase
}

func newMemParticipant(id string, ledger *memLedger, account string, delta int) *memParticipant {
	return &memParticipant{id: id, ledger: ledger, account: account, delta: delta}
}

func (p *memParticipant) record(phase domain.Phase) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.phases = append(p.phases, phase)
}

func (p *memParticipant) sawPhase(phase domain.Phase) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, seen := range p.phases {
		if seen == phase {
			return true
		}
	}
	return false
}

func (p *memParticipant) ID() string { return p.id }

func (p *memParticipant) Vote(_ context.Context) (domain.Vote, error) {
	p.record(domain.PhasePrepare)
	if p.voteNo {
		return domain.VoteNo, nil
	}
	return domain.VoteYes, nil
}

func (p *memParticipant) CommitOnePhase(_ context.Context) error {
	p.record(domain.PhaseCommitOnePhase)
	if p.commitErr != nil {
		return p.commitErr
	}
	p.ledger.apply(p.account, p.delta)
	return nil
}

func (p *memParticipant) Commit(_ context.Context) error {
	p.record(domain.PhaseCommit)
	if p.commitErr != nil {
		return p.commitErr
	}
	p.ledger.apply(p.account, p.delta)
	return nil
}

func (p *memParticipant) Rollback(_ context.Context) error {
	p.record(domain.PhaseRollback)
	p.delta = 0
	return nil
}

func (p *memParticipant) Forget(_ context.Context) error {
	p.record(domain.PhaseForget)
	return nil
}

var errCommitRefused = errors.New("commit refused by resource")
