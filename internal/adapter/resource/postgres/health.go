package postgres

import "context"

// Pinger is the connectivity probe the health check needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck implements ports.HealthChecker for PostgreSQL.
type HealthCheck struct {
	conn Pinger
}

// NewHealthCheck creates a PostgreSQL health checker.
func NewHealthCheck(conn Pinger) *HealthCheck {
	return &HealthCheck{conn: conn}
}

// Ping checks PostgreSQL connectivity.
func (h *HealthCheck) Ping(ctx context.Context) error {
	return h.conn.Ping(ctx)
}

// Name returns the dependency name.
func (h *HealthCheck) Name() string {
	return "postgresql"
}
