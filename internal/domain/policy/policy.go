package policy

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/suportemr7bank/speedseven/internal/domain/account"
	"github.com/suportemr7bank/speedseven/internal/domain/ledger"
)

// ProductCode identifies an investment product behavior
type ProductCode string

const (
	ProductPoolAccount  ProductCode = "POOL_ACCOUNT"
	ProductCrowdfunding ProductCode = "CROWDFUNDING"
)

// DepositContext carries the facts a policy needs to rule on a deposit
type DepositContext struct {
	Value           decimal.Decimal
	FirstOperation  bool
	App             *ApplicationSettings
	Acct            *AccountSettings
	ExistingDeposit *FundDeposit
}

// WithdrawContext carries the facts a policy needs to rule on a withdraw
type WithdrawContext struct {
	Value     decimal.Decimal
	Operation ledger.OperationType
	App       *ApplicationSettings
	Acct      *AccountSettings
}

// Policy is the per-product behavior plugged into account creation, transfer
// approval and the income run
type Policy interface {
	Code() ProductCode

	// DefaultSettings returns the application settings used when an
	// application of this product is created without explicit settings
	DefaultSettings() *ApplicationSettings

	// NewAccountSettings returns the initial per-account settings for a new
	// account, or nil when the product keeps no per-account state
	NewAccountSettings(accountID uuid.UUID) *AccountSettings

	// PostCreateState decides the creation status reported to the client
	// right after the account row is written
	PostCreateState() account.CreationStatus

	// LedgerBacked reports whether approved deposits and withdrawals write
	// ledger operations. Products returning false track contributions in
	// their own records instead.
	LedgerBacked() bool

	// ValidateDeposit applies product rules on top of the ledger validator
	ValidateDeposit(ctx DepositContext) error

	// ValidateWithdraw applies product rules on top of the ledger validator
	ValidateWithdraw(ctx WithdrawContext) error

	// DepositTermDays returns how many days an approved deposit is deferred
	// before the ledger operation executes. Zero means immediate.
	DepositTermDays(app *ApplicationSettings, acct *AccountSettings) int

	// WithdrawTermDays returns how many days after approval the withdraw
	// transfer is expected to settle
	WithdrawTermDays(app *ApplicationSettings, op ledger.OperationType, value decimal.Decimal) int
}
