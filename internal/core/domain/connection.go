package domain

// ConnectionState is the lifecycle state of a pooled connection. Transitions
// are monotonic except AVAILABLE<->BORROWED, which cycles.
type ConnectionState string

const (
	ConnAvailable ConnectionState = "AVAILABLE"
	ConnBorrowed  ConnectionState = "BORROWED"
	ConnBroken    ConnectionState = "BROKEN"
	ConnDestroyed ConnectionState = "DESTROYED"
)

// Reusable returns true if the connection may be handed to another borrower.
func (s ConnectionState) Reusable() bool {
	return s == ConnAvailable
}
