package policy

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FundState defines the crowdfunding raise lifecycle
type FundState string

const (
	FundOpen        FundState = "OPEN"
	FundOpenDeposit FundState = "OPDE"
	FundCompleted   FundState = "COMP"
	FundCancelled   FundState = "CANC"
)

// ApplicationSettings holds the per-application product parameters. Pooled
// and crowdfunding products share the row; fund fields stay zero for pooled
// applications.
type ApplicationSettings struct {
	ApplicationID        uuid.UUID        `json:"application_id"`
	MinInitialDeposit    decimal.Decimal  `json:"min_initial_deposit"`
	MinDeposit           decimal.Decimal  `json:"min_deposit"`
	DepositTermDays      int              `json:"deposit_term_days"`
	WithdrawWalletTerm   int              `json:"withdraw_wallet_term"`
	WithdrawIncomeTerm   int              `json:"withdraw_income_term"`
	ValueThreshold       decimal.Decimal  `json:"value_threshold"`
	ThresholdTermDays    int              `json:"threshold_term_days"`
	FundState            FundState        `json:"fund_state,omitempty"`
	FundGoal             *decimal.Decimal `json:"fund_goal,omitempty"`
	FundDeadline         *time.Time       `json:"fund_deadline,omitempty"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// AccountSettings holds per-account overrides of the application settings
type AccountSettings struct {
	AccountID         uuid.UUID        `json:"account_id"`
	CustomRate        *decimal.Decimal `json:"custom_rate,omitempty"`
	MinInitialDeposit *decimal.Decimal `json:"min_initial_deposit,omitempty"`
	DepositTermDays   *int             `json:"deposit_term_days,omitempty"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// FundDeposit records a crowdfunding contribution. An account holds at most
// one deposit per fund.
type FundDeposit struct {
	ID        uuid.UUID       `json:"id"`
	AccountID uuid.UUID       `json:"account_id"`
	Value     decimal.Decimal `json:"value"`
	CreatedAt time.Time       `json:"created_at"`
}
