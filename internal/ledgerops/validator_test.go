package ledgerops

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suportemr7bank/speedseven/internal/domain/account"
	"github.com/suportemr7bank/speedseven/internal/domain/ledger"
)

func activeAccount() *account.Account {
	return &account.Account{
		ID:       uuid.New(),
		IsActive: true,
		Status:   account.CreationStatusCreated,
	}
}

func lastOperation(opType ledger.OperationType, value, balance float64, at time.Time) *ledger.Operation {
	return &ledger.Operation{
		ID:            uuid.New(),
		Type:          opType,
		Value:         decimal.NewFromFloat(value),
		Balance:       decimal.NewFromFloat(balance),
		OperationDate: at,
	}
}

func TestValidateDeposit(t *testing.T) {
	now := time.Now()

	t.Run("FirstDepositOnEmptyLedger", func(t *testing.T) {
		s := Snapshot{Account: activeAccount()}
		err := ValidateDeposit(s, decimal.NewFromInt(1000), nil)
		assert.NoError(t, err)
	})

	t.Run("NilAccount", func(t *testing.T) {
		err := ValidateDeposit(Snapshot{}, decimal.NewFromInt(100), nil)
		assert.ErrorIs(t, err, ledger.ErrInvalidApplication)
	})

	t.Run("InactiveAccount", func(t *testing.T) {
		acc := activeAccount()
		acc.IsActive = false
		err := ValidateDeposit(Snapshot{Account: acc}, decimal.NewFromInt(100), nil)
		assert.ErrorIs(t, err, ledger.ErrInactiveApplication)
	})

	t.Run("NonPositiveValue", func(t *testing.T) {
		s := Snapshot{Account: activeAccount()}
		assert.ErrorIs(t, ValidateDeposit(s, decimal.Zero, nil), ledger.ErrDepositValue)
		assert.ErrorIs(t, ValidateDeposit(s, decimal.NewFromInt(-10), nil), ledger.ErrDepositValue)
	})

	t.Run("SameOperationDate", func(t *testing.T) {
		s := Snapshot{
			Account: activeAccount(),
			LastOp:  lastOperation(ledger.OperationTypeOpen, 1000, 1000, now),
		}
		err := ValidateDeposit(s, decimal.NewFromInt(100), &now)
		assert.ErrorIs(t, err, ledger.ErrSameOperationDate)
	})

	t.Run("RetroactiveOperationDate", func(t *testing.T) {
		s := Snapshot{
			Account: activeAccount(),
			LastOp:  lastOperation(ledger.OperationTypeOpen, 1000, 1000, now),
		}
		earlier := now.Add(-time.Hour)
		err := ValidateDeposit(s, decimal.NewFromInt(100), &earlier)
		assert.ErrorIs(t, err, ledger.ErrRetroactiveOperationDate)
	})

	t.Run("LaterOperationDate", func(t *testing.T) {
		s := Snapshot{
			Account: activeAccount(),
			LastOp:  lastOperation(ledger.OperationTypeOpen, 1000, 1000, now),
		}
		later := now.Add(time.Hour)
		assert.NoError(t, ValidateDeposit(s, decimal.NewFromInt(100), &later))
	})

	t.Run("NilDateSkipsOrderingChecks", func(t *testing.T) {
		s := Snapshot{
			Account: activeAccount(),
			LastOp:  lastOperation(ledger.OperationTypeOpen, 1000, 1000, now),
		}
		assert.NoError(t, ValidateDeposit(s, decimal.NewFromInt(100), nil))
	})
}

func TestValidateWithdraw(t *testing.T) {
	now := time.Now()

	t.Run("EmptyLedger", func(t *testing.T) {
		s := Snapshot{Account: activeAccount()}
		err := ValidateWithdraw(s, decimal.NewFromInt(100), ledger.OperationTypeWithdrawWallet, nil)
		assert.ErrorIs(t, err, ledger.ErrInactiveApplication)
	})

	t.Run("NilAccount", func(t *testing.T) {
		err := ValidateWithdraw(Snapshot{}, decimal.NewFromInt(100), ledger.OperationTypeWithdrawWallet, nil)
		assert.ErrorIs(t, err, ledger.ErrInvalidApplication)
	})

	t.Run("InactiveAccount", func(t *testing.T) {
		acc := activeAccount()
		acc.IsActive = false
		s := Snapshot{
			Account: acc,
			LastOp:  lastOperation(ledger.OperationTypeOpen, 1000, 1000, now),
		}
		err := ValidateWithdraw(s, decimal.NewFromInt(100), ledger.OperationTypeWithdrawWallet, nil)
		assert.ErrorIs(t, err, ledger.ErrInactiveApplication)
	})

	t.Run("NonPositiveValue", func(t *testing.T) {
		s := Snapshot{
			Account: activeAccount(),
			LastOp:  lastOperation(ledger.OperationTypeOpen, 1000, 1000, now),
		}
		err := ValidateWithdraw(s, decimal.Zero, ledger.OperationTypeWithdrawWallet, nil)
		assert.ErrorIs(t, err, ledger.ErrWithdrawValue)
	})

	t.Run("WalletWithdrawCappedByWalletBalance", func(t *testing.T) {
		// balance 1100 of which 100 is accrued income
		s := Snapshot{
			Account:       activeAccount(),
			LastOp:        lastOperation(ledger.OperationTypeIncome, 100, 1100, now),
			IncomeBalance: decimal.NewFromInt(100),
		}

		assert.NoError(t, ValidateWithdraw(s, decimal.NewFromInt(1000), ledger.OperationTypeWithdrawWallet, nil))

		err := ValidateWithdraw(s, decimal.NewFromFloat(1000.01), ledger.OperationTypeWithdrawWallet, nil)
		assert.ErrorIs(t, err, ledger.ErrNotEnoughBalance)
	})

	t.Run("IncomeWithdrawCappedByIncomeBalance", func(t *testing.T) {
		s := Snapshot{
			Account:       activeAccount(),
			LastOp:        lastOperation(ledger.OperationTypeIncome, 100, 1100, now),
			IncomeBalance: decimal.NewFromInt(100),
		}

		assert.NoError(t, ValidateWithdraw(s, decimal.NewFromInt(100), ledger.OperationTypeWithdrawIncome, nil))

		err := ValidateWithdraw(s, decimal.NewFromFloat(100.01), ledger.OperationTypeWithdrawIncome, nil)
		assert.ErrorIs(t, err, ledger.ErrNotEnoughBalance)
	})

	t.Run("SameOperationDate", func(t *testing.T) {
		s := Snapshot{
			Account: activeAccount(),
			LastOp:  lastOperation(ledger.OperationTypeOpen, 1000, 1000, now),
		}
		err := ValidateWithdraw(s, decimal.NewFromInt(100), ledger.OperationTypeWithdrawWallet, &now)
		assert.ErrorIs(t, err, ledger.ErrSameOperationDate)
	})
}

func TestIncomeBalanceOf(t *testing.T) {
	now := time.Now()

	t.Run("NoIncomeYet", func(t *testing.T) {
		v := IncomeBalanceOf(nil, nil)
		assert.True(t, v.IsZero())
	})

	t.Run("IncomeWithoutWithdraw", func(t *testing.T) {
		income := lastOperation(ledger.OperationTypeIncome, 150, 10150, now)
		v := IncomeBalanceOf(income, nil)
		assert.True(t, v.Equal(decimal.NewFromInt(150)))
	})

	t.Run("PartialIncomeWithdraw", func(t *testing.T) {
		// income credited 150 at balance 10150, then 50 was withdrawn
		income := lastOperation(ledger.OperationTypeIncome, 150, 10150, now)
		withdraw := lastOperation(ledger.OperationTypeWithdrawIncome, 50, 10100, now.Add(time.Hour))

		v := IncomeBalanceOf(income, withdraw)
		assert.True(t, v.Equal(decimal.NewFromInt(100)), "expected 100, got %s", v)
	})

	t.Run("FullIncomeWithdraw", func(t *testing.T) {
		income := lastOperation(ledger.OperationTypeIncome, 150, 10150, now)
		withdraw := lastOperation(ledger.OperationTypeWithdrawIncome, 150, 10000, now.Add(time.Hour))

		v := IncomeBalanceOf(income, withdraw)
		assert.True(t, v.IsZero())
	})
}

func TestSnapshotBalances(t *testing.T) {
	now := time.Now()

	s := Snapshot{
		Account:       activeAccount(),
		LastOp:        lastOperation(ledger.OperationTypeIncome, 150, 10150, now),
		IncomeBalance: decimal.NewFromInt(150),
	}
	require.True(t, s.Balance().Equal(decimal.NewFromInt(10150)))
	assert.True(t, s.WalletBalance().Equal(decimal.NewFromInt(10000)))

	empty := Snapshot{Account: activeAccount()}
	assert.True(t, empty.Balance().IsZero())
}
