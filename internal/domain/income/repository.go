package income

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines storage operations for income runs
type Repository interface {
	Create(ctx context.Context, op *Operation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Operation, error)
	// LockForUpdate loads the run with a row lock inside an open transaction
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Operation, error)
	Update(ctx context.Context, op *Operation) error
	// Latest returns the most recent run for the application in any state,
	// ordered by year and month
	Latest(ctx context.Context, applicationID uuid.UUID) (*Operation, error)
	ListByApplication(ctx context.Context, applicationID uuid.UUID, limit, offset int) ([]*Operation, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrRunNotFound indicates the requested income run does not exist
type ErrRunNotFound struct {
	RunID uuid.UUID
}

func (e ErrRunNotFound) Error() string {
	return "income run not found: " + e.RunID.String()
}

func (e ErrRunNotFound) Is(target error) bool {
	t, ok := target.(ErrRunNotFound)
	if !ok {
		return false
	}
	return t.RunID == uuid.Nil || t.RunID == e.RunID
}
