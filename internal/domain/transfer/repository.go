package transfer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines storage operations for money transfers
type Repository interface {
	Create(ctx context.Context, t *MoneyTransfer) error
	GetByID(ctx context.Context, id uuid.UUID) (*MoneyTransfer, error)
	// LockForUpdate loads the transfer with a row lock; the caller must hold
	// an open transaction obtained through WithTx
	LockForUpdate(ctx context.Context, id uuid.UUID) (*MoneyTransfer, error)
	Update(ctx context.Context, t *MoneyTransfer) error
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*MoneyTransfer, error)
	ListByState(ctx context.Context, state State, limit, offset int) ([]*MoneyTransfer, error)
	WithTx(tx pgx.Tx) Repository
}

// ScheduleRepository defines storage operations for deferred operations
type ScheduleRepository interface {
	Create(ctx context.Context, s *Schedule) error
	GetByTransferID(ctx context.Context, transferID uuid.UUID) (*Schedule, error)
	Update(ctx context.Context, s *Schedule) error
	// ClaimDue locks and returns up to limit WAITING schedules due at the
	// given instant, skipping rows locked by concurrent workers
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]*Schedule, error)
	WithTx(tx pgx.Tx) ScheduleRepository
}

// ErrTransferNotFound indicates the requested transfer does not exist
type ErrTransferNotFound struct {
	TransferID uuid.UUID
}

func (e ErrTransferNotFound) Error() string {
	return "money transfer not found: " + e.TransferID.String()
}

func (e ErrTransferNotFound) Is(target error) bool {
	t, ok := target.(ErrTransferNotFound)
	if !ok {
		return false
	}
	return t.TransferID == uuid.Nil || t.TransferID == e.TransferID
}

// ErrScheduleNotFound indicates no schedule exists for the transfer
type ErrScheduleNotFound struct {
	TransferID uuid.UUID
}

func (e ErrScheduleNotFound) Error() string {
	return "operation schedule not found for transfer: " + e.TransferID.String()
}

func (e ErrScheduleNotFound) Is(target error) bool {
	t, ok := target.(ErrScheduleNotFound)
	if !ok {
		return false
	}
	return t.TransferID == uuid.Nil || t.TransferID == e.TransferID
}
