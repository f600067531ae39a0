package transfer

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/suportemr7bank/speedseven/internal/domain/ledger"
)

// State defines the money transfer lifecycle states
type State string

const (
	StateCreated        State = "CREA"
	StateWaitingOp      State = "WTOP"
	StateWaitingReceipt State = "WREC"
	StateFinished       State = "FINI"
	StateError          State = "ERRO"
)

// Event defines the inputs driving state transitions
type Event string

const (
	// EventApproveDeferred approves a deposit whose policy term defers the
	// ledger operation to a scheduled date
	EventApproveDeferred Event = "APPROVE_DEFERRED"

	// EventApproveImmediate approves a deposit with no term; the ledger
	// operation is executed right away
	EventApproveImmediate Event = "APPROVE_IMMEDIATE"

	// EventApproveWithdraw approves a withdraw; funds are deducted
	// immediately but the transfer waits for a receipt
	EventApproveWithdraw Event = "APPROVE_WITHDRAW"

	// EventDisapprove rejects the request with no ledger effect
	EventDisapprove Event = "DISAPPROVE"

	// EventComplete finishes a transfer waiting on a scheduled operation or
	// on a receipt
	EventComplete Event = "COMPLETE"

	// EventScheduleFailed fails a deferred transfer whose schedule ran out
	// of trials
	EventScheduleFailed Event = "SCHEDULE_FAILED"
)

// ErrInvalidTransition rejects events that are not legal in the current state
type ErrInvalidTransition struct {
	From  State
	Event Event
}

func (e ErrInvalidTransition) Error() string {
	return "invalid transfer transition: " + string(e.Event) + " from state " + string(e.From)
}

var transitions = map[State]map[Event]State{
	StateCreated: {
		EventApproveDeferred:  StateWaitingOp,
		EventApproveImmediate: StateFinished,
		EventApproveWithdraw:  StateWaitingReceipt,
		EventDisapprove:       StateError,
	},
	StateWaitingOp: {
		EventComplete:       StateFinished,
		EventScheduleFailed: StateError,
	},
	StateWaitingReceipt: {
		EventComplete: StateFinished,
	},
}

// Transition returns the state reached by applying event in the given state,
// or ErrInvalidTransition. FINISHED and ERROR are terminal.
func Transition(from State, event Event) (State, error) {
	if next, ok := transitions[from][event]; ok {
		return next, nil
	}
	return from, ErrInvalidTransition{From: from, Event: event}
}

// MoneyTransfer is a client or operator request to move funds in or out of an
// application account. It is never deleted; only approval, rejection and the
// scheduled completion step mutate it.
type MoneyTransfer struct {
	ID             uuid.UUID            `json:"id"`
	AccountID      uuid.UUID            `json:"account_id"`
	Operation      ledger.OperationType `json:"operation"`
	State          State                `json:"state"`
	Value          decimal.Decimal      `json:"value"`
	Receipt        string               `json:"receipt,omitempty"`
	DisplayMessage string               `json:"display_message,omitempty"`
	ErrorMessage   string               `json:"error_message,omitempty"`
	IsAutomatic    bool                 `json:"is_automatic"`
	RequesterID    uuid.UUID            `json:"requester_id"`
	ApproverID     *uuid.UUID           `json:"approver_id,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	ApprovedAt     *time.Time           `json:"approved_at,omitempty"`
	FinishedAt     *time.Time           `json:"finished_at,omitempty"`
}

// New creates a transfer request in the CREATED state
func New(accountID uuid.UUID, op ledger.OperationType, value decimal.Decimal, requesterID uuid.UUID) *MoneyTransfer {
	return &MoneyTransfer{
		ID:          uuid.New(),
		AccountID:   accountID,
		Operation:   op,
		State:       StateCreated,
		Value:       value,
		RequesterID: requesterID,
		CreatedAt:   time.Now(),
	}
}

// IsDeposit reports whether the transfer puts funds into the account
func (t *MoneyTransfer) IsDeposit() bool {
	return t.Operation == ledger.OperationTypeDeposit
}

// IsWithdraw reports whether the transfer takes funds out of the account
func (t *MoneyTransfer) IsWithdraw() bool {
	return t.Operation.IsWithdraw()
}

// Approved reports whether the transfer passed the approval gate
func (t *MoneyTransfer) Approved() bool {
	return t.State == StateWaitingOp || t.State == StateWaitingReceipt || t.State == StateFinished
}

// Apply moves the transfer to the next state or fails without mutating it
func (t *MoneyTransfer) Apply(event Event) error {
	next, err := Transition(t.State, event)
	if err != nil {
		return err
	}
	t.State = next
	return nil
}
