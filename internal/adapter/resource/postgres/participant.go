package postgres

import (
	"context"
	"fmt"

	"tx-resource-manager/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is the slice of a pgx connection the participant needs.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Participant adapts one PostgreSQL session to the commit protocol using
// prepared transactions. The vote phase runs PREPARE TRANSACTION, pinning the
// session's work under a global identifier; the decision phase then runs
// COMMIT PREPARED or ROLLBACK PREPARED. The one-phase path skips the prepare
// entirely and issues a plain COMMIT.
//
// A Participant is bound to a single transaction and is not safe for
// concurrent use; the coordinator serializes phase messages per participant.
type Participant struct {
	conn     Execer
	gid      string
	prepared bool
	began    bool
}

// NewParticipant binds a session to transaction txID. branch distinguishes
// multiple sessions enlisted in the same transaction.
func NewParticipant(conn Execer, txID uuid.UUID, branch int) *Participant {
	return &Participant{
		conn: conn,
		gid:  fmt.Sprintf("txm-%s-%d", txID, branch),
	}
}

// ID implements ports.CommitParticipant.
func (p *Participant) ID() string { return p.gid }

// Begin opens the local transaction the participant will manage.
func (p *Participant) Begin(ctx context.Context) error {
	if p.began {
		return fmt.Errorf("transaction %s already begun", p.gid)
	}
	if _, err := p.conn.Exec(ctx, "BEGIN"); err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	p.began = true
	return nil
}

// Exec runs application work inside the participant's local transaction.
func (p *Participant) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if !p.began {
		return pgconn.CommandTag{}, fmt.Errorf("transaction %s not begun", p.gid)
	}
	if p.prepared {
		return pgconn.CommandTag{}, fmt.Errorf("transaction %s already prepared", p.gid)
	}
	return p.conn.Exec(ctx, sql, args...)
}

// Vote prepares the local transaction. After a successful prepare the work
// survives a session crash and can only be resolved by the decision phase.
func (p *Participant) Vote(ctx context.Context) (domain.Vote, error) {
	if _, err := p.conn.Exec(ctx, fmt.Sprintf("PREPARE TRANSACTION '%s'", p.gid)); err != nil {
		return domain.VoteNo, fmt.Errorf("prepare transaction %s: %w", p.gid, err)
	}
	p.prepared = true
	return domain.VoteYes, nil
}

// CommitOnePhase commits directly, without a prepare round.
func (p *Participant) CommitOnePhase(ctx context.Context) error {
	if _, err := p.conn.Exec(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("commit %s: %w", p.gid, err)
	}
	return nil
}

// Commit resolves the prepared transaction.
func (p *Participant) Commit(ctx context.Context) error {
	if !p.prepared {
		return fmt.Errorf("transaction %s not prepared", p.gid)
	}
	if _, err := p.conn.Exec(ctx, fmt.Sprintf("COMMIT PREPARED '%s'", p.gid)); err != nil {
		return fmt.Errorf("commit prepared %s: %w", p.gid, err)
	}
	p.prepared = false
	return nil
}

// Rollback undoes the local transaction, prepared or not.
func (p *Participant) Rollback(ctx context.Context) error {
	stmt := "ROLLBACK"
	if p.prepared {
		stmt = fmt.Sprintf("ROLLBACK PREPARED '%s'", p.gid)
	}
	if _, err := p.conn.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("rollback %s: %w", p.gid, err)
	}
	p.prepared = false
	return nil
}

// Forget releases local bookkeeping. PostgreSQL keeps no heuristic state, so
// there is nothing to clean up server-side.
func (p *Participant) Forget(_ context.Context) error {
	p.began = false
	return nil
}
