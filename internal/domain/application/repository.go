package application

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines storage operations for applications
type Repository interface {
	Create(ctx context.Context, app *Application) error
	GetByID(ctx context.Context, id uuid.UUID) (*Application, error)
	List(ctx context.Context, limit, offset int) ([]*Application, error)
	Update(ctx context.Context, app *Application) error
	WithTx(tx pgx.Tx) Repository
}

// ErrApplicationNotFound indicates the requested application does not exist
type ErrApplicationNotFound struct {
	ApplicationID uuid.UUID
}

func (e ErrApplicationNotFound) Error() string {
	return "application not found: " + e.ApplicationID.String()
}

func (e ErrApplicationNotFound) Is(target error) bool {
	t, ok := target.(ErrApplicationNotFound)
	if !ok {
		return false
	}
	return t.ApplicationID == uuid.Nil || t.ApplicationID == e.ApplicationID
}
