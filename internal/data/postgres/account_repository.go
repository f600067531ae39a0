// Package postgres provides PostgreSQL implementations of the domain
// repositories. It handles all database operations while maintaining
// transaction safety and proper error handling for the investment platform.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/suportemr7bank/speedseven/internal/domain/account"
	"github.com/suportemr7bank/speedseven/internal/platform/persistence"
)

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL account repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) account.Repository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic
// operations across multiple repository calls
func (r *AccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return &AccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const accountColumns = `id, user_id, application_id, is_active, creation_status, message, operator_id, created_at, activated_at, deactivated_at`

// Create stores a new application account
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.querier.Exec(ctx, query,
		acc.ID,
		acc.UserID,
		acc.ApplicationID,
		acc.IsActive,
		acc.Status,
		acc.Message,
		acc.OperatorID,
		acc.CreatedAt,
		acc.ActivatedAt,
		acc.DeactivatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create account", "error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	acc, err := r.scanAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to get account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return acc, nil
}

// LockForUpdate retrieves an account with a row lock, serializing concurrent
// ledger writes on the same account
func (r *AccountRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`

	acc, err := r.scanAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to lock account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}

	return acc, nil
}

// ListByUser retrieves all accounts owned by a user
func (r *AccountRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 ORDER BY created_at`

	rows, err := r.querier.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to list accounts", "user_id", userID.String(), "error", err)
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		acc, err := r.scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

// Update persists account state changes
func (r *AccountRepository) Update(ctx context.Context, acc *account.Account) error {
	query := `
		UPDATE accounts
		SET is_active = $2, creation_status = $3, message = $4, activated_at = $5, deactivated_at = $6
		WHERE id = $1
	`

	tag, err := r.querier.Exec(ctx, query,
		acc.ID,
		acc.IsActive,
		acc.Status,
		acc.Message,
		acc.ActivatedAt,
		acc.DeactivatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update account", "id", acc.ID.String(), "error", err)
		return fmt.Errorf("failed to update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return account.ErrAccountNotFound{AccountID: acc.ID}
	}

	return nil
}

// CustomRates returns the settings override rate of every active account of
// an application; accounts without an override carry a nil rate
func (r *AccountRepository) CustomRates(ctx context.Context, applicationID uuid.UUID) ([]account.CustomRate, error) {
	query := `
		SELECT a.id, s.custom_rate
		FROM accounts a
		LEFT JOIN account_settings s ON s.account_id = a.id
		WHERE a.application_id = $1 AND a.is_active
		ORDER BY a.id
	`

	rows, err := r.querier.Query(ctx, query, applicationID)
	if err != nil {
		r.logger.Error("Failed to load custom rates", "application_id", applicationID.String(), "error", err)
		return nil, fmt.Errorf("failed to load custom rates: %w", err)
	}
	defer rows.Close()

	var rates []account.CustomRate
	for rows.Next() {
		var cr account.CustomRate
		if err := rows.Scan(&cr.AccountID, &cr.Rate); err != nil {
			return nil, fmt.Errorf("failed to scan custom rate: %w", err)
		}
		rates = append(rates, cr)
	}
	return rates, rows.Err()
}

// TotalBalance sums, over all of a user's accounts, the balance of the last
// movement operation. Income credits show up once they are followed by a
// movement.
func (r *AccountRepository) TotalBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(balance), 0) FROM (
			SELECT DISTINCT ON (o.account_id) o.balance
			FROM operations o
			JOIN accounts a ON a.id = o.account_id
			WHERE a.user_id = $1
			  AND o.operation_type IN ('OPEN', 'DEPO', 'WWAL', 'WINC')
			ORDER BY o.account_id, o.operation_date DESC
		) last_ops
	`

	var total decimal.Decimal
	if err := r.querier.QueryRow(ctx, query, userID).Scan(&total); err != nil {
		r.logger.Error("Failed to compute total balance", "user_id", userID.String(), "error", err)
		return decimal.Zero, fmt.Errorf("failed to compute total balance: %w", err)
	}
	return total, nil
}

// TotalIncomeBalance sums the withdrawable income over all of a user's
// accounts: each account's last income credit minus the balance drop of
// income withdrawals made after it
func (r *AccountRepository) TotalIncomeBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	query := `
		WITH last_income AS (
			SELECT DISTINCT ON (o.account_id) o.account_id, o.value, o.balance, o.operation_date
			FROM operations o
			JOIN accounts a ON a.id = o.account_id
			WHERE a.user_id = $1 AND o.operation_type = 'INCO'
			ORDER BY o.account_id, o.operation_date DESC
		),
		last_withdraw AS (
			SELECT DISTINCT ON (o.account_id) o.account_id, o.balance
			FROM operations o
			JOIN last_income li ON li.account_id = o.account_id
			WHERE o.operation_type = 'WINC' AND o.operation_date > li.operation_date
			ORDER BY o.account_id, o.operation_date DESC
		)
		SELECT COALESCE(SUM(
			CASE WHEN lw.account_id IS NULL THEN li.value
			     ELSE li.value - (li.balance - lw.balance)
			END), 0)
		FROM last_income li
		LEFT JOIN last_withdraw lw ON lw.account_id = li.account_id
	`

	var total decimal.Decimal
	if err := r.querier.QueryRow(ctx, query, userID).Scan(&total); err != nil {
		r.logger.Error("Failed to compute total income balance", "user_id", userID.String(), "error", err)
		return decimal.Zero, fmt.Errorf("failed to compute total income balance: %w", err)
	}
	return total, nil
}

func (r *AccountRepository) scanAccount(row pgx.Row) (*account.Account, error) {
	var acc account.Account
	err := row.Scan(
		&acc.ID,
		&acc.UserID,
		&acc.ApplicationID,
		&acc.IsActive,
		&acc.Status,
		&acc.Message,
		&acc.OperatorID,
		&acc.CreatedAt,
		&acc.ActivatedAt,
		&acc.DeactivatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}
