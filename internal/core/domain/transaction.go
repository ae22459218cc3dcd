package domain

import (
	"github.com/google/uuid"
)

// TransactionState is the coordinator's position in the two-phase-commit
// protocol.
type TransactionState string

const (
	StateActive     TransactionState = "ACTIVE"
	StatePreparing  TransactionState = "PREPARING"
	StatePrepared   TransactionState = "PREPARED"
	StateCommitting TransactionState = "COMMITTING"
	StateCommitted  TransactionState = "COMMITTED"
	StateAborting   TransactionState = "ABORTING"
	StateAborted    TransactionState = "ABORTED"
	StateTerminated TransactionState = "TERMINATED"
)

// IsDecided returns true once the commit/abort outcome is fixed.
func (s TransactionState) IsDecided() bool {
	return s == StateCommitted || s == StateAborted || s == StateTerminated
}

// IsTerminal returns true when all participants have been told to forget
// and all termination listeners have fired.
func (s TransactionState) IsTerminal() bool {
	return s == StateTerminated
}

// CanRollback returns true if a rollback may still be initiated. Once the
// commit decision is made, resources that committed cannot be rolled back.
func (s TransactionState) CanRollback() bool {
	return s == StateActive || s == StatePreparing || s == StatePrepared
}

// Vote is a participant's answer to the prepare phase.
type Vote string

const (
	VoteYes Vote = "YES"
	VoteNo  Vote = "NO"
)

// Phase identifies a two-phase-commit protocol message.
type Phase string

const (
	PhasePrepare        Phase = "PREPARE"
	PhaseCommit         Phase = "COMMIT"
	PhaseCommitOnePhase Phase = "COMMIT_ONE_PHASE"
	PhaseRollback       Phase = "ROLLBACK"
	PhaseForget         Phase = "FORGET"
)

// Outcome is delivered to each participant's termination listener when the
// transaction reaches its terminal state. Heuristic marks a disagreement
// between participant results after the commit decision; it is reported,
// never retried.
type Outcome struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	Committed     bool      `json:"committed"`
	Heuristic     bool      `json:"heuristic"`
}
