package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// DayBalance is an account's ledger balance at the end of one calendar day,
// used as an income calculation checkpoint
type DayBalance struct {
	AccountID uuid.UUID
	Day       int
	Balance   decimal.Decimal
}

// Repository manages the append-only operation ledger
type Repository interface {
	Create(ctx context.Context, op *Operation) error
	CreateBatch(ctx context.Context, ops []*Operation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Operation, error)

	// Last returns the most recent operation for an account, nil if the
	// ledger is empty
	Last(ctx context.Context, accountID uuid.UUID) (*Operation, error)

	// LastIncome returns the most recent INCOME operation, nil if none exists
	LastIncome(ctx context.Context, accountID uuid.UUID) (*Operation, error)

	// LastIncomeWithdrawAfter returns the most recent WITHDRAW_INCOME
	// operation dated after the given operation, nil if none exists
	LastIncomeWithdrawAfter(ctx context.Context, accountID uuid.UUID, after *Operation) (*Operation, error)

	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Operation, error)
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)

	// MonthDayBalances returns, for every active account of an application,
	// the balance of the last operation of each calendar day of the target
	// month, ordered by account and day
	MonthDayBalances(ctx context.Context, applicationID uuid.UUID, year int, month int) ([]DayBalance, error)

	// CarryInBalances returns, for active accounts with no day-1 operation in
	// the target month (or no operation in the month at all), the balance of
	// the previous month's INCOME operation, presented as a day-1 checkpoint
	CarryInBalances(ctx context.Context, applicationID uuid.UUID, year int, month int) ([]DayBalance, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrOperationNotFound indicates missing ledger operation
type ErrOperationNotFound struct {
	OperationID uuid.UUID
}

func (e ErrOperationNotFound) Error() string {
	return "ledger operation not found: " + e.OperationID.String()
}

// Is implements the errors.Is interface for ErrOperationNotFound
func (e ErrOperationNotFound) Is(target error) bool {
	t, ok := target.(ErrOperationNotFound)
	if !ok {
		return false
	}
	if t.OperationID == uuid.Nil {
		return true
	}
	return e.OperationID == t.OperationID
}

// ErrDuplicateOperationDate indicates the (account, operation_date) unique
// constraint was violated by a concurrent writer
type ErrDuplicateOperationDate struct {
	AccountID uuid.UUID
}

func (e ErrDuplicateOperationDate) Error() string {
	return "duplicate operation date for account: " + e.AccountID.String()
}
