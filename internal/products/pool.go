// Package products holds the per-product policy implementations plugged into
// account creation, transfer approval and the income run.
package products

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/suportemr7bank/speedseven/internal/domain/account"
	"github.com/suportemr7bank/speedseven/internal/domain/ledger"
	"github.com/suportemr7bank/speedseven/internal/domain/policy"
)

// PoolAccount is the pooled interest-bearing product: free deposits and
// withdrawals above the product minimums, monthly income accrual, and
// settlement terms taken from the application settings with per-account
// overrides.
type PoolAccount struct{}

var _ policy.Policy = (*PoolAccount)(nil)

func NewPoolAccount() *PoolAccount {
	return &PoolAccount{}
}

func (p *PoolAccount) Code() policy.ProductCode {
	return policy.ProductPoolAccount
}

func (p *PoolAccount) DefaultSettings() *policy.ApplicationSettings {
	return &policy.ApplicationSettings{
		MinInitialDeposit:  decimal.NewFromInt(10000),
		MinDeposit:         decimal.NewFromInt(1000),
		DepositTermDays:    7,
		WithdrawWalletTerm: 15,
		WithdrawIncomeTerm: 10,
		ValueThreshold:     decimal.NewFromInt(1000000),
		ThresholdTermDays:  20,
	}
}

func (p *PoolAccount) NewAccountSettings(accountID uuid.UUID) *policy.AccountSettings {
	return &policy.AccountSettings{AccountID: accountID}
}

// PostCreateState activates pool accounts immediately; no external process
// is involved
func (p *PoolAccount) PostCreateState() account.CreationStatus {
	return account.CreationStatusCreated
}

func (p *PoolAccount) LedgerBacked() bool {
	return true
}

func (p *PoolAccount) ValidateDeposit(ctx policy.DepositContext) error {
	if ctx.FirstOperation {
		min := ctx.App.MinInitialDeposit
		if ctx.Acct != nil && ctx.Acct.MinInitialDeposit != nil {
			min = *ctx.Acct.MinInitialDeposit
		}
		if ctx.Value.LessThan(min) {
			return policy.ErrBelowMinInitialDeposit
		}
		return nil
	}

	if ctx.Value.LessThan(ctx.App.MinDeposit) {
		return policy.ErrBelowMinDeposit
	}
	return nil
}

// ValidateWithdraw adds no product rules; the ledger validator already caps
// withdrawals by the wallet and income balances
func (p *PoolAccount) ValidateWithdraw(ctx policy.WithdrawContext) error {
	return nil
}

func (p *PoolAccount) DepositTermDays(app *policy.ApplicationSettings, acct *policy.AccountSettings) int {
	if acct != nil && acct.DepositTermDays != nil {
		return *acct.DepositTermDays
	}
	return app.DepositTermDays
}

func (p *PoolAccount) WithdrawTermDays(app *policy.ApplicationSettings, op ledger.OperationType, value decimal.Decimal) int {
	if value.GreaterThan(app.ValueThreshold) {
		return app.ThresholdTermDays
	}
	if op == ledger.OperationTypeWithdrawIncome {
		return app.WithdrawIncomeTerm
	}
	return app.WithdrawWalletTerm
}
