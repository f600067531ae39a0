package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/suportemr7bank/speedseven/internal/domain/policy"
	"github.com/suportemr7bank/speedseven/internal/platform/persistence"
)

// SettingsRepository implements the policy.SettingsRepository interface for
// PostgreSQL
type SettingsRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewSettingsRepository creates a new PostgreSQL settings repository
func NewSettingsRepository(logger *slog.Logger, db *persistence.PostgresDB) policy.SettingsRepository {
	return &SettingsRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *SettingsRepository) WithTx(tx pgx.Tx) policy.SettingsRepository {
	return &SettingsRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// GetApplicationSettings retrieves an application's product settings
func (r *SettingsRepository) GetApplicationSettings(ctx context.Context, applicationID uuid.UUID) (*policy.ApplicationSettings, error) {
	query := `
		SELECT application_id, min_initial_deposit, min_deposit, deposit_term_days,
		       withdraw_wallet_term, withdraw_income_term, value_threshold, threshold_term_days,
		       fund_state, fund_goal, fund_deadline, updated_at
		FROM application_settings
		WHERE application_id = $1
	`

	var s policy.ApplicationSettings
	err := r.querier.QueryRow(ctx, query, applicationID).Scan(
		&s.ApplicationID,
		&s.MinInitialDeposit,
		&s.MinDeposit,
		&s.DepositTermDays,
		&s.WithdrawWalletTerm,
		&s.WithdrawIncomeTerm,
		&s.ValueThreshold,
		&s.ThresholdTermDays,
		&s.FundState,
		&s.FundGoal,
		&s.FundDeadline,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, policy.ErrSettingsNotFound{OwnerID: applicationID}
		}
		r.logger.Error("Failed to get application settings", "application_id", applicationID.String(), "error", err)
		return nil, fmt.Errorf("failed to get application settings: %w", err)
	}
	return &s, nil
}

// SaveApplicationSettings inserts or replaces an application's settings
func (r *SettingsRepository) SaveApplicationSettings(ctx context.Context, s *policy.ApplicationSettings) error {
	query := `
		INSERT INTO application_settings (
			application_id, min_initial_deposit, min_deposit, deposit_term_days,
			withdraw_wallet_term, withdraw_income_term, value_threshold, threshold_term_days,
			fund_state, fund_goal, fund_deadline, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		ON CONFLICT (application_id) DO UPDATE SET
			min_initial_deposit = EXCLUDED.min_initial_deposit,
			min_deposit = EXCLUDED.min_deposit,
			deposit_term_days = EXCLUDED.deposit_term_days,
			withdraw_wallet_term = EXCLUDED.withdraw_wallet_term,
			withdraw_income_term = EXCLUDED.withdraw_income_term,
			value_threshold = EXCLUDED.value_threshold,
			threshold_term_days = EXCLUDED.threshold_term_days,
			fund_state = EXCLUDED.fund_state,
			fund_goal = EXCLUDED.fund_goal,
			fund_deadline = EXCLUDED.fund_deadline,
			updated_at = now()
	`

	_, err := r.querier.Exec(ctx, query,
		s.ApplicationID,
		s.MinInitialDeposit,
		s.MinDeposit,
		s.DepositTermDays,
		s.WithdrawWalletTerm,
		s.WithdrawIncomeTerm,
		s.ValueThreshold,
		s.ThresholdTermDays,
		s.FundState,
		s.FundGoal,
		s.FundDeadline,
	)
	if err != nil {
		r.logger.Error("Failed to save application settings", "application_id", s.ApplicationID.String(), "error", err)
		return fmt.Errorf("failed to save application settings: %w", err)
	}
	return nil
}

// GetAccountSettings retrieves an account's settings overrides
func (r *SettingsRepository) GetAccountSettings(ctx context.Context, accountID uuid.UUID) (*policy.AccountSettings, error) {
	query := `
		SELECT account_id, custom_rate, min_initial_deposit, deposit_term_days, updated_at
		FROM account_settings
		WHERE account_id = $1
	`

	var s policy.AccountSettings
	err := r.querier.QueryRow(ctx, query, accountID).Scan(
		&s.AccountID,
		&s.CustomRate,
		&s.MinInitialDeposit,
		&s.DepositTermDays,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, policy.ErrSettingsNotFound{OwnerID: accountID}
		}
		r.logger.Error("Failed to get account settings", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to get account settings: %w", err)
	}
	return &s, nil
}

// SaveAccountSettings inserts or replaces an account's settings overrides
func (r *SettingsRepository) SaveAccountSettings(ctx context.Context, s *policy.AccountSettings) error {
	query := `
		INSERT INTO account_settings (account_id, custom_rate, min_initial_deposit, deposit_term_days, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (account_id) DO UPDATE SET
			custom_rate = EXCLUDED.custom_rate,
			min_initial_deposit = EXCLUDED.min_initial_deposit,
			deposit_term_days = EXCLUDED.deposit_term_days,
			updated_at = now()
	`

	_, err := r.querier.Exec(ctx, query,
		s.AccountID,
		s.CustomRate,
		s.MinInitialDeposit,
		s.DepositTermDays,
	)
	if err != nil {
		r.logger.Error("Failed to save account settings", "account_id", s.AccountID.String(), "error", err)
		return fmt.Errorf("failed to save account settings: %w", err)
	}
	return nil
}

// FundDepositRepository implements the policy.FundDepositRepository
// interface for PostgreSQL
type FundDepositRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewFundDepositRepository creates a new PostgreSQL fund deposit repository
func NewFundDepositRepository(logger *slog.Logger, db *persistence.PostgresDB) policy.FundDepositRepository {
	return &FundDepositRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *FundDepositRepository) WithTx(tx pgx.Tx) policy.FundDepositRepository {
	return &FundDepositRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a crowdfunding contribution. The account_id unique
// constraint backs the one contribution per account rule.
func (r *FundDepositRepository) Create(ctx context.Context, d *policy.FundDeposit) error {
	query := `
		INSERT INTO fund_deposits (id, account_id, value, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.querier.Exec(ctx, query, d.ID, d.AccountID, d.Value, d.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return policy.ErrFundDepositAlreadyMade
		}
		r.logger.Error("Failed to create fund deposit", "account_id", d.AccountID.String(), "error", err)
		return fmt.Errorf("failed to create fund deposit: %w", err)
	}
	return nil
}

// GetByAccount retrieves the account's contribution
func (r *FundDepositRepository) GetByAccount(ctx context.Context, accountID uuid.UUID) (*policy.FundDeposit, error) {
	query := `SELECT id, account_id, value, created_at FROM fund_deposits WHERE account_id = $1`

	var d policy.FundDeposit
	err := r.querier.QueryRow(ctx, query, accountID).Scan(&d.ID, &d.AccountID, &d.Value, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, policy.ErrFundDepositNotFound{AccountID: accountID}
		}
		r.logger.Error("Failed to get fund deposit", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to get fund deposit: %w", err)
	}
	return &d, nil
}
