package txerror

import (
	"errors"
	"fmt"
	"net/http"
)

// TxError is a structured error carrying a stable code. Pool and coordinator
// failures must reach callers as distinguishable kinds, never as a generic
// failure, so every taxonomy entry below has its own constructor.
type TxError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to clients)
}

func (e *TxError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *TxError) Unwrap() error {
	return e.Err
}

// New creates a new TxError.
func New(code string, message string, httpStatus int) *TxError {
	return &TxError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with a TxError.
func Wrap(code string, message string, httpStatus int, err error) *TxError {
	return &TxError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// CodeOf extracts the error code from err, or "" if err is not a TxError.
func CodeOf(err error) string {
	var txErr *TxError
	if errors.As(err, &txErr) {
		return txErr.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return CodeOf(err) == code
}

// Error codes, grouped by subsystem.
const (
	CodePoolExhausted          = "POOL_001"
	CodePoolClosed             = "POOL_002"
	CodeCreateConnectionFailed = "POOL_003"
	CodeInvalidState           = "TXN_001"
	CodeTransactionTimeout     = "TXN_002"
	CodeParticipantCommit      = "TXN_003"
	CodeRolledBack             = "TXN_004"
	CodeTransactionNotFound    = "TXN_005"
	CodeInvalidAPIKey          = "AUTH_001"
	CodeInvalidToken           = "AUTH_002"
	CodeInternal               = "SYS_001"
)

// ---- Connection Pool (POOL) ----

// ErrPoolExhausted: no connection became available within the borrow timeout.
// Recoverable by retrying the borrow.
func ErrPoolExhausted() *TxError {
	return New(CodePoolExhausted, "Connection pool exhausted", http.StatusServiceUnavailable)
}

// ErrPoolClosed: the pool has been shut down. Not retryable.
func ErrPoolClosed() *TxError {
	return New(CodePoolClosed, "Connection pool is closed", http.StatusConflict)
}

// ErrCreateConnectionFailed: physical connection creation failed, or the
// validation retry budget was exhausted without producing a usable connection.
func ErrCreateConnectionFailed(err error) *TxError {
	return Wrap(CodeCreateConnectionFailed, "Failed to create physical connection", http.StatusBadGateway, err)
}

// ---- Transaction Coordination (TXN) ----

// ErrInvalidState: an operation was attempted from a state that does not
// permit it (e.g. enlisting after the participant set is frozen).
func ErrInvalidState(op string, state string) *TxError {
	return New(CodeInvalidState, fmt.Sprintf("Operation %s invalid in state %s", op, state), http.StatusConflict)
}

// ErrTransactionTimeout: the phase budget elapsed. Pre-decision this forces
// rollback; post-decision it is reported as part of a heuristic outcome.
func ErrTransactionTimeout(err error) *TxError {
	return Wrap(CodeTransactionTimeout, "Transaction phase timed out", http.StatusGatewayTimeout, err)
}

// ErrParticipantCommitFailure: a participant voted yes but failed to commit.
// The discrepancy is recorded as a heuristic outcome and surfaced, never
// retried automatically.
func ErrParticipantCommitFailure(participantID string, err error) *TxError {
	return Wrap(CodeParticipantCommit,
		fmt.Sprintf("Participant %s failed after commit decision", participantID),
		http.StatusInternalServerError, err)
}

// ErrTransactionRolledBack: the transaction was rolled back, either on request
// or forced by a negative/failed vote during prepare.
func ErrTransactionRolledBack(cause error) *TxError {
	return Wrap(CodeRolledBack, "Transaction rolled back", http.StatusConflict, cause)
}

// ErrTransactionNotFound indicates the transaction is not in the active set.
func ErrTransactionNotFound(id string) *TxError {
	return New(CodeTransactionNotFound, fmt.Sprintf("Transaction %s not found", id), http.StatusNotFound)
}

// ---- Admin API (AUTH) ----

func ErrInvalidAPIKey() *TxError {
	return New(CodeInvalidAPIKey, "Invalid API key", http.StatusUnauthorized)
}

func ErrInvalidToken() *TxError {
	return New(CodeInvalidToken, "Invalid or expired token", http.StatusUnauthorized)
}

// ---- System (SYS) ----

// InternalError wraps an unexpected failure.
func InternalError(err error) *TxError {
	return Wrap(CodeInternal, "Internal error", http.StatusInternalServerError, err)
}
