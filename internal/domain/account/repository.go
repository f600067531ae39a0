package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// CustomRate links an account to its settings override rate, when one exists
type CustomRate struct {
	AccountID uuid.UUID
	Rate      *decimal.Decimal
}

// Repository defines account persistence operations
type Repository interface {
	Create(ctx context.Context, acc *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Account, error)
	Update(ctx context.Context, acc *Account) error

	// LockForUpdate acquires a row lock so the "last operation" read used to
	// derive the next balance cannot go stale under concurrent writers
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Account, error)

	// CustomRates returns the override income rate for every active account
	// of an application; accounts without an override carry a nil rate
	CustomRates(ctx context.Context, applicationID uuid.UUID) ([]CustomRate, error)

	// TotalBalance sums the latest ledger balance over all of a user's accounts
	TotalBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)

	// TotalIncomeBalance sums accrued income not yet withdrawn over all of a
	// user's accounts
	TotalIncomeBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrAccountNotFound indicates missing account
type ErrAccountNotFound struct {
	AccountID uuid.UUID
}

func (e ErrAccountNotFound) Error() string {
	return "application account not found: " + e.AccountID.String()
}

// Is implements the errors.Is interface for ErrAccountNotFound
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	if t.AccountID == uuid.Nil {
		return true
	}
	return e.AccountID == t.AccountID
}
