package postgres

import (
	"context"
	"fmt"

	"tx-resource-manager/config"
	"tx-resource-manager/internal/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// Factory implements ports.ConnectionFactory over single pgx connections.
// Each physical connection is one dedicated session, which PostgreSQL
// prepared transactions require.
type Factory struct {
	cfg config.DatabaseConfig
	log zerolog.Logger
}

// NewFactory creates a PostgreSQL connection factory.
func NewFactory(cfg config.DatabaseConfig, log zerolog.Logger) *Factory {
	return &Factory{
		cfg: cfg,
		log: log.With().Str("component", "pg_factory").Logger(),
	}
}

// CreatePhysical opens and verifies a new database session.
func (f *Factory) CreatePhysical(ctx context.Context) (ports.PhysicalConnection, error) {
	conn, err := pgx.Connect(ctx, f.cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	f.log.Debug().Str("host", f.cfg.Host).Msg("physical connection established")
	return conn, nil
}

// DestroyPhysical closes the session.
func (f *Factory) DestroyPhysical(ctx context.Context, physical ports.PhysicalConnection) error {
	conn, ok := physical.(*pgx.Conn)
	if !ok {
		return fmt.Errorf("unexpected physical connection type %T", physical)
	}
	return conn.Close(ctx)
}

// Ping verifies database connectivity with a short-lived session.
func (f *Factory) Ping(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, f.cfg.DSN())
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer conn.Close(ctx)
	return conn.Ping(ctx)
}

// Validate reports whether the session is still usable.
func (f *Factory) Validate(ctx context.Context, physical ports.PhysicalConnection) bool {
	conn, ok := physical.(*pgx.Conn)
	if !ok {
		return false
	}
	if conn.IsClosed() {
		return false
	}
	return conn.Ping(ctx) == nil
}
