package products

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/suportemr7bank/speedseven/internal/domain/account"
	"github.com/suportemr7bank/speedseven/internal/domain/ledger"
	"github.com/suportemr7bank/speedseven/internal/domain/policy"
)

// Crowdfunding is the equity raise product: each account contributes a
// single deposit while the fund is open for deposits, and the product has no
// withdrawals or income accrual.
type Crowdfunding struct{}

var _ policy.Policy = (*Crowdfunding)(nil)

func NewCrowdfunding() *Crowdfunding {
	return &Crowdfunding{}
}

func (c *Crowdfunding) Code() policy.ProductCode {
	return policy.ProductCrowdfunding
}

func (c *Crowdfunding) DefaultSettings() *policy.ApplicationSettings {
	return &policy.ApplicationSettings{
		MinDeposit: decimal.NewFromInt(1000),
		FundState:  policy.FundOpen,
	}
}

// NewAccountSettings returns nil: crowdfunding keeps no per-account
// parameters, the contribution itself is tracked as a fund deposit
func (c *Crowdfunding) NewAccountSettings(accountID uuid.UUID) *policy.AccountSettings {
	return nil
}

func (c *Crowdfunding) PostCreateState() account.CreationStatus {
	return account.CreationStatusCreated
}

// LedgerBacked is false: an approved contribution completes the account's
// fund deposit record instead of writing a ledger operation
func (c *Crowdfunding) LedgerBacked() bool {
	return false
}

func (c *Crowdfunding) ValidateDeposit(ctx policy.DepositContext) error {
	if ctx.App.FundState != policy.FundOpenDeposit {
		return policy.ErrFundNotAcceptingDeposits
	}
	if ctx.ExistingDeposit != nil {
		return policy.ErrFundDepositAlreadyMade
	}
	if ctx.Value.LessThan(ctx.App.MinDeposit) {
		return policy.ErrBelowMinDeposit
	}
	return nil
}

func (c *Crowdfunding) ValidateWithdraw(ctx policy.WithdrawContext) error {
	return policy.ErrWithdrawNotSupported
}

// DepositTermDays is zero: an approved contribution executes immediately
func (c *Crowdfunding) DepositTermDays(app *policy.ApplicationSettings, acct *policy.AccountSettings) int {
	return 0
}

func (c *Crowdfunding) WithdrawTermDays(app *policy.ApplicationSettings, op ledger.OperationType, value decimal.Decimal) int {
	return 0
}
