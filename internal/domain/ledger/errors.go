package ledger

import "errors"

// Validation errors surfaced to the submitting user as form-level messages.
// None of them is retried automatically.
var (
	// ErrInvalidApplication rejects operations on a missing account
	ErrInvalidApplication = errors.New("application account is invalid or does not exist")

	// ErrInactiveApplication rejects operations on an inactive account, and
	// withdraws from an account that never received a deposit
	ErrInactiveApplication = errors.New("application account is not active")

	// ErrDepositValue rejects deposits with value <= 0
	ErrDepositValue = errors.New("deposit value must be greater than zero")

	// ErrWithdrawValue rejects withdraws with value <= 0
	ErrWithdrawValue = errors.New("withdraw value must be greater than zero")

	// ErrSameOperationDate rejects an operation dated exactly like the last one
	ErrSameOperationDate = errors.New("an operation with this date already exists")

	// ErrRetroactiveOperationDate rejects an operation dated before the last
	// one. Every operation derives its balance from the previous row, so a
	// retroactive insert would invalidate all following balances.
	ErrRetroactiveOperationDate = errors.New("retroactive operation date is not allowed")

	// ErrNotEnoughBalance rejects withdraws exceeding the available wallet or
	// income balance
	ErrNotEnoughBalance = errors.New("not enough balance for this operation")
)

// IncomeCalculationError marks a failed monthly income run. The income
// operation row is moved to the ERROR state with this message instead of
// being left stuck in RUNNING.
type IncomeCalculationError struct {
	Message string
	Err     error
}

func (e IncomeCalculationError) Error() string {
	if e.Err != nil {
		return "income calculation failed: " + e.Message + ": " + e.Err.Error()
	}
	return "income calculation failed: " + e.Message
}

func (e IncomeCalculationError) Unwrap() error {
	return e.Err
}
