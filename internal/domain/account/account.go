package account

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAlreadyClosed = errors.New("application account is already closed")
)

// CreationStatus tracks the account creation lifecycle. Activation may be
// immediate or depend on an external process started by the product policy.
type CreationStatus string

const (
	CreationStatusRequested CreationStatus = "REQUESTED"
	CreationStatusCreated   CreationStatus = "CREATED"
	CreationStatusScheduled CreationStatus = "SCHEDULED"
	CreationStatusRunning   CreationStatus = "RUNNING"
	CreationStatusError     CreationStatus = "ERROR"
)

// Account is a client's position in one product application. Its balance is
// never stored here: it is always the balance of the last ledger operation.
type Account struct {
	ID            uuid.UUID      `json:"id"`
	UserID        uuid.UUID      `json:"user_id"`
	ApplicationID uuid.UUID      `json:"application_id"`
	IsActive      bool           `json:"is_active"`
	Status        CreationStatus `json:"creation_status"`
	Message       string         `json:"message,omitempty"`
	OperatorID    uuid.UUID      `json:"operator_id"`
	CreatedAt     time.Time      `json:"created_at"`
	ActivatedAt   *time.Time     `json:"activated_at,omitempty"`
	DeactivatedAt *time.Time     `json:"deactivated_at,omitempty"`
}

// New creates an account in the REQUESTED status. The product policy's
// post-create hook decides whether activation is immediate or deferred.
func New(userID, applicationID, operatorID uuid.UUID) *Account {
	return &Account{
		ID:            uuid.New(),
		UserID:        userID,
		ApplicationID: applicationID,
		IsActive:      true,
		Status:        CreationStatusRequested,
		OperatorID:    operatorID,
		CreatedAt:     time.Now(),
	}
}

// Activate marks the account active and stamps the activation date
func (a *Account) Activate(at time.Time) {
	a.IsActive = true
	a.ActivatedAt = &at
}

// Deactivate marks the account inactive and stamps the deactivation date
func (a *Account) Deactivate(at time.Time) {
	a.IsActive = false
	a.DeactivatedAt = &at
}
