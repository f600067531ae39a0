package ledgerops

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/suportemr7bank/speedseven/internal/domain/account"
	"github.com/suportemr7bank/speedseven/internal/domain/ledger"
)

// Snapshot is the account state an operation is validated against. The
// writer builds it under a row lock so the state cannot change between
// validation and the ledger insert.
type Snapshot struct {
	Account       *account.Account
	LastOp        *ledger.Operation
	IncomeBalance decimal.Decimal
}

// Balance returns the current account balance, zero for an empty ledger
func (s Snapshot) Balance() decimal.Decimal {
	if s.LastOp == nil {
		return decimal.Zero
	}
	return s.LastOp.Balance
}

// WalletBalance returns the part of the balance not attributable to accrued
// income. Wallet withdrawals are capped by it.
func (s Snapshot) WalletBalance() decimal.Decimal {
	return s.Balance().Sub(s.IncomeBalance)
}

// IncomeBalanceOf derives the withdrawable income from the last INCOME
// operation and the last income withdraw made after it. Withdrawals between
// income credits reduce the available income by the balance drop they caused.
func IncomeBalanceOf(lastIncome, lastIncomeWithdraw *ledger.Operation) decimal.Decimal {
	if lastIncome == nil {
		return decimal.Zero
	}
	value := lastIncome.Value
	if lastIncomeWithdraw != nil {
		value = lastIncome.Value.Sub(lastIncome.Balance.Sub(lastIncomeWithdraw.Balance))
	}
	return value
}

// ValidateDeposit checks a deposit against the account snapshot. A nil
// operationDate means "now" and skips the date ordering checks, matching the
// automatic operation path.
func ValidateDeposit(s Snapshot, value decimal.Decimal, operationDate *time.Time) error {
	if s.Account == nil {
		return ledger.ErrInvalidApplication
	}
	if !s.Account.IsActive {
		return ledger.ErrInactiveApplication
	}

	if value.LessThanOrEqual(decimal.Zero) {
		return ledger.ErrDepositValue
	}

	if s.LastOp != nil && operationDate != nil {
		if operationDate.Equal(s.LastOp.OperationDate) {
			return ledger.ErrSameOperationDate
		}
		if operationDate.Before(s.LastOp.OperationDate) {
			return ledger.ErrRetroactiveOperationDate
		}
	}

	return nil
}

// ValidateWithdraw checks a withdraw against the account snapshot. Income
// withdrawals are capped by the income balance, wallet withdrawals by the
// rest of the balance.
func ValidateWithdraw(s Snapshot, value decimal.Decimal, opType ledger.OperationType, operationDate *time.Time) error {
	if s.Account == nil {
		return ledger.ErrInvalidApplication
	}
	if s.LastOp == nil {
		// no deposit was ever made, there is nothing to withdraw
		return ledger.ErrInactiveApplication
	}
	if !s.Account.IsActive {
		return ledger.ErrInactiveApplication
	}

	if value.LessThanOrEqual(decimal.Zero) {
		return ledger.ErrWithdrawValue
	}

	if operationDate != nil {
		if operationDate.Equal(s.LastOp.OperationDate) {
			return ledger.ErrSameOperationDate
		}
		if operationDate.Before(s.LastOp.OperationDate) {
			return ledger.ErrRetroactiveOperationDate
		}
	}

	switch opType {
	case ledger.OperationTypeWithdrawIncome:
		if value.GreaterThan(s.IncomeBalance) {
			return ledger.ErrNotEnoughBalance
		}
	case ledger.OperationTypeWithdrawWallet:
		if value.GreaterThan(s.WalletBalance()) {
			return ledger.ErrNotEnoughBalance
		}
	}

	return nil
}
