package policy

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SettingsRepository defines storage for application and account settings
type SettingsRepository interface {
	GetApplicationSettings(ctx context.Context, applicationID uuid.UUID) (*ApplicationSettings, error)
	SaveApplicationSettings(ctx context.Context, s *ApplicationSettings) error
	GetAccountSettings(ctx context.Context, accountID uuid.UUID) (*AccountSettings, error)
	SaveAccountSettings(ctx context.Context, s *AccountSettings) error
	WithTx(tx pgx.Tx) SettingsRepository
}

// FundDepositRepository defines storage for crowdfunding contributions
type FundDepositRepository interface {
	Create(ctx context.Context, d *FundDeposit) error
	GetByAccount(ctx context.Context, accountID uuid.UUID) (*FundDeposit, error)
	WithTx(tx pgx.Tx) FundDepositRepository
}

// ErrSettingsNotFound indicates no settings row exists for the owner
type ErrSettingsNotFound struct {
	OwnerID uuid.UUID
}

func (e ErrSettingsNotFound) Error() string {
	return "settings not found: " + e.OwnerID.String()
}

func (e ErrSettingsNotFound) Is(target error) bool {
	t, ok := target.(ErrSettingsNotFound)
	if !ok {
		return false
	}
	return t.OwnerID == uuid.Nil || t.OwnerID == e.OwnerID
}

// ErrFundDepositNotFound indicates the account holds no fund deposit
type ErrFundDepositNotFound struct {
	AccountID uuid.UUID
}

func (e ErrFundDepositNotFound) Error() string {
	return "fund deposit not found for account: " + e.AccountID.String()
}

func (e ErrFundDepositNotFound) Is(target error) bool {
	t, ok := target.(ErrFundDepositNotFound)
	if !ok {
		return false
	}
	return t.AccountID == uuid.Nil || t.AccountID == e.AccountID
}
