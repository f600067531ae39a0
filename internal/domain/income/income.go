package income

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// State defines the monthly income run lifecycle
type State string

const (
	StateWaiting  State = "WAIT"
	StateRunning  State = "RUNN"
	StateFinished State = "FINI"
	StateError    State = "ERRO"
)

// Operation is one requested income run for an application and month. A run
// is requested through the API and executed asynchronously by the worker.
type Operation struct {
	ID            uuid.UUID       `json:"id"`
	ApplicationID uuid.UUID       `json:"application_id"`
	Year          int             `json:"year"`
	Month         time.Month      `json:"month"`
	PaidRate      decimal.Decimal `json:"paid_rate"`
	State         State           `json:"state"`
	ErrorMessage  string          `json:"error_message,omitempty"`
	RequesterID   uuid.UUID       `json:"requester_id"`
	CreatedAt     time.Time       `json:"created_at"`
	StartedAt     *time.Time      `json:"started_at,omitempty"`
	FinishedAt    *time.Time      `json:"finished_at,omitempty"`
}

// NewOperation creates an income run request in the WAITING state
func NewOperation(applicationID uuid.UUID, year int, month time.Month, paidRate decimal.Decimal, requesterID uuid.UUID) *Operation {
	return &Operation{
		ID:            uuid.New(),
		ApplicationID: applicationID,
		Year:          year,
		Month:         month,
		PaidRate:      paidRate,
		State:         StateWaiting,
		RequesterID:   requesterID,
		CreatedAt:     time.Now(),
	}
}

// Start moves the run to RUNNING. Only WAITING runs may start, which keeps
// duplicate worker deliveries from processing the same run twice.
func (o *Operation) Start(at time.Time) error {
	if o.State != StateWaiting {
		return fmt.Errorf("income run %s is %s, not %s", o.ID, o.State, StateWaiting)
	}
	o.State = StateRunning
	o.StartedAt = &at
	return nil
}

// Finish marks the run successfully completed
func (o *Operation) Finish(at time.Time) {
	o.State = StateFinished
	o.FinishedAt = &at
}

// Fail marks the run failed with a diagnostic message. No ledger entries of
// the run survive a failure.
func (o *Operation) Fail(at time.Time, message string) {
	o.State = StateError
	o.ErrorMessage = message
	o.FinishedAt = &at
}

// ReferenceDate returns the last instant of the run's month, the timestamp
// stamped on every generated income ledger entry
func (o *Operation) ReferenceDate() time.Time {
	firstOfNext := time.Date(o.Year, o.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return firstOfNext.Add(-time.Second)
}

// DaysInMonth returns the number of calendar days in the run's month
func (o *Operation) DaysInMonth() int {
	return time.Date(o.Year, o.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
