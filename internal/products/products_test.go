package products

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suportemr7bank/speedseven/internal/domain/ledger"
	"github.com/suportemr7bank/speedseven/internal/domain/policy"
)

func TestPoolAccount_ValidateDeposit(t *testing.T) {
	pool := NewPoolAccount()
	app := pool.DefaultSettings()

	t.Run("FirstDepositBelowMinimum", func(t *testing.T) {
		err := pool.ValidateDeposit(policy.DepositContext{
			Value:          decimal.NewFromInt(9999),
			FirstOperation: true,
			App:            app,
		})
		assert.ErrorIs(t, err, policy.ErrBelowMinInitialDeposit)
	})

	t.Run("FirstDepositAtMinimum", func(t *testing.T) {
		err := pool.ValidateDeposit(policy.DepositContext{
			Value:          decimal.NewFromInt(10000),
			FirstOperation: true,
			App:            app,
		})
		assert.NoError(t, err)
	})

	t.Run("AccountOverrideMinimum", func(t *testing.T) {
		override := decimal.NewFromInt(5000)
		acct := &policy.AccountSettings{MinInitialDeposit: &override}

		err := pool.ValidateDeposit(policy.DepositContext{
			Value:          decimal.NewFromInt(5000),
			FirstOperation: true,
			App:            app,
			Acct:           acct,
		})
		assert.NoError(t, err)

		err = pool.ValidateDeposit(policy.DepositContext{
			Value:          decimal.NewFromInt(4999),
			FirstOperation: true,
			App:            app,
			Acct:           acct,
		})
		assert.ErrorIs(t, err, policy.ErrBelowMinInitialDeposit)
	})

	t.Run("FollowUpDepositBelowMinimum", func(t *testing.T) {
		err := pool.ValidateDeposit(policy.DepositContext{
			Value: decimal.NewFromInt(999),
			App:   app,
		})
		assert.ErrorIs(t, err, policy.ErrBelowMinDeposit)
	})

	t.Run("FollowUpDepositAtMinimum", func(t *testing.T) {
		err := pool.ValidateDeposit(policy.DepositContext{
			Value: decimal.NewFromInt(1000),
			App:   app,
		})
		assert.NoError(t, err)
	})
}

func TestPoolAccount_Terms(t *testing.T) {
	pool := NewPoolAccount()
	app := pool.DefaultSettings()

	t.Run("DepositTermFromApplication", func(t *testing.T) {
		assert.Equal(t, 7, pool.DepositTermDays(app, &policy.AccountSettings{}))
	})

	t.Run("DepositTermAccountOverride", func(t *testing.T) {
		term := 3
		acct := &policy.AccountSettings{DepositTermDays: &term}
		assert.Equal(t, 3, pool.DepositTermDays(app, acct))
	})

	t.Run("WithdrawTermByOperation", func(t *testing.T) {
		value := decimal.NewFromInt(5000)
		assert.Equal(t, 15, pool.WithdrawTermDays(app, ledger.OperationTypeWithdrawWallet, value))
		assert.Equal(t, 10, pool.WithdrawTermDays(app, ledger.OperationTypeWithdrawIncome, value))
	})

	t.Run("WithdrawTermAboveThreshold", func(t *testing.T) {
		value := decimal.NewFromFloat(1000000.01)
		assert.Equal(t, 20, pool.WithdrawTermDays(app, ledger.OperationTypeWithdrawWallet, value))
	})

	t.Run("WithdrawTermAtThreshold", func(t *testing.T) {
		// the threshold term applies only above the threshold
		value := decimal.NewFromInt(1000000)
		assert.Equal(t, 15, pool.WithdrawTermDays(app, ledger.OperationTypeWithdrawWallet, value))
	})
}

func TestCrowdfunding_ValidateDeposit(t *testing.T) {
	fund := NewCrowdfunding()

	openForDeposits := fund.DefaultSettings()
	openForDeposits.FundState = policy.FundOpenDeposit

	t.Run("FundNotOpenForDeposits", func(t *testing.T) {
		err := fund.ValidateDeposit(policy.DepositContext{
			Value: decimal.NewFromInt(2000),
			App:   fund.DefaultSettings(),
		})
		assert.ErrorIs(t, err, policy.ErrFundNotAcceptingDeposits)
	})

	t.Run("SecondContributionRejected", func(t *testing.T) {
		err := fund.ValidateDeposit(policy.DepositContext{
			Value:           decimal.NewFromInt(2000),
			App:             openForDeposits,
			ExistingDeposit: &policy.FundDeposit{ID: uuid.New()},
		})
		assert.ErrorIs(t, err, policy.ErrFundDepositAlreadyMade)
	})

	t.Run("BelowMinimum", func(t *testing.T) {
		err := fund.ValidateDeposit(policy.DepositContext{
			Value: decimal.NewFromInt(999),
			App:   openForDeposits,
		})
		assert.ErrorIs(t, err, policy.ErrBelowMinDeposit)
	})

	t.Run("ValidContribution", func(t *testing.T) {
		err := fund.ValidateDeposit(policy.DepositContext{
			Value: decimal.NewFromInt(1000),
			App:   openForDeposits,
		})
		assert.NoError(t, err)
	})

	t.Run("WithdrawNotSupported", func(t *testing.T) {
		err := fund.ValidateWithdraw(policy.WithdrawContext{
			Value:     decimal.NewFromInt(100),
			Operation: ledger.OperationTypeWithdrawWallet,
			App:       openForDeposits,
		})
		assert.ErrorIs(t, err, policy.ErrWithdrawNotSupported)
	})
}

func TestRegistry(t *testing.T) {
	t.Run("LookupByCode", func(t *testing.T) {
		registry, err := policy.NewRegistry(NewPoolAccount(), NewCrowdfunding())
		require.NoError(t, err)

		p, err := registry.Get(policy.ProductPoolAccount)
		require.NoError(t, err)
		assert.Equal(t, policy.ProductPoolAccount, p.Code())

		_, err = registry.Get(policy.ProductCode("UNKNOWN"))
		assert.Error(t, err)
	})

	t.Run("DuplicateRejected", func(t *testing.T) {
		_, err := policy.NewRegistry(NewPoolAccount(), NewPoolAccount())
		assert.Error(t, err)
	})
}
