package ports

import (
	"context"

	"tx-resource-manager/internal/core/domain"
)

// PhysicalConnection is the raw resource handle produced by a
// ConnectionFactory. The pool owns it exclusively but treats it as opaque;
// only the factory that created it knows how to validate or destroy it.
type PhysicalConnection interface{}

// ConnectionFactory creates and disposes of physical resource connections.
// It has no knowledge of pooling policy.
type ConnectionFactory interface {
	// CreatePhysical opens a new physical connection.
	CreatePhysical(ctx context.Context) (PhysicalConnection, error)
	// DestroyPhysical closes the physical connection. Called at most once
	// per handle.
	DestroyPhysical(ctx context.Context, conn PhysicalConnection) error
	// Validate reports whether the connection is still usable.
	Validate(ctx context.Context, conn PhysicalConnection) bool
}

// TerminationListener is notified when the transaction that borrowed a
// connection's resource has fully terminated. The pooled connection owning
// the enlisted participant registers itself here; the coordinator holds the
// listener for notification only and never extends its lifetime.
type TerminationListener interface {
	TransactionTerminated(outcome domain.Outcome)
}
