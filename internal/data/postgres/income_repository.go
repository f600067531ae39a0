package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/suportemr7bank/speedseven/internal/domain/income"
	"github.com/suportemr7bank/speedseven/internal/platform/persistence"
)

// IncomeRepository implements the income.Repository interface for PostgreSQL
type IncomeRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewIncomeRepository creates a new PostgreSQL income run repository
func NewIncomeRepository(logger *slog.Logger, db *persistence.PostgresDB) income.Repository {
	return &IncomeRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *IncomeRepository) WithTx(tx pgx.Tx) income.Repository {
	return &IncomeRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const incomeColumns = `id, application_id, year, month, paid_rate, state, error_message, requester_id, created_at, started_at, finished_at`

// Create stores a new income run request
func (r *IncomeRepository) Create(ctx context.Context, op *income.Operation) error {
	query := `
		INSERT INTO income_operations (` + incomeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.querier.Exec(ctx, query,
		op.ID,
		op.ApplicationID,
		op.Year,
		int(op.Month),
		op.PaidRate,
		op.State,
		op.ErrorMessage,
		op.RequesterID,
		op.CreatedAt,
		op.StartedAt,
		op.FinishedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create income run", "error", err)
		return fmt.Errorf("failed to create income run: %w", err)
	}
	return nil
}

// GetByID retrieves an income run by its ID
func (r *IncomeRepository) GetByID(ctx context.Context, id uuid.UUID) (*income.Operation, error) {
	query := `SELECT ` + incomeColumns + ` FROM income_operations WHERE id = $1`
	return r.queryOne(ctx, query, id)
}

// LockForUpdate retrieves an income run with a row lock
func (r *IncomeRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*income.Operation, error) {
	query := `SELECT ` + incomeColumns + ` FROM income_operations WHERE id = $1 FOR UPDATE`
	return r.queryOne(ctx, query, id)
}

// Update persists income run state changes
func (r *IncomeRepository) Update(ctx context.Context, op *income.Operation) error {
	query := `
		UPDATE income_operations
		SET state = $2, error_message = $3, started_at = $4, finished_at = $5
		WHERE id = $1
	`

	tag, err := r.querier.Exec(ctx, query,
		op.ID,
		op.State,
		op.ErrorMessage,
		op.StartedAt,
		op.FinishedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update income run", "id", op.ID.String(), "error", err)
		return fmt.Errorf("failed to update income run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return income.ErrRunNotFound{RunID: op.ID}
	}
	return nil
}

// Latest retrieves the most recent run of an application in any state, nil
// when the application never ran income
func (r *IncomeRepository) Latest(ctx context.Context, applicationID uuid.UUID) (*income.Operation, error) {
	query := `
		SELECT ` + incomeColumns + `
		FROM income_operations
		WHERE application_id = $1
		ORDER BY year DESC, month DESC
		LIMIT 1
	`

	op, err := r.queryOne(ctx, query, applicationID)
	if err != nil {
		if errors.Is(err, income.ErrRunNotFound{}) {
			return nil, nil
		}
		return nil, err
	}
	return op, nil
}

// ListByApplication retrieves a page of an application's income runs,
// newest first
func (r *IncomeRepository) ListByApplication(ctx context.Context, applicationID uuid.UUID, limit, offset int) ([]*income.Operation, error) {
	query := `
		SELECT ` + incomeColumns + `
		FROM income_operations
		WHERE application_id = $1
		ORDER BY year DESC, month DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, applicationID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list income runs", "application_id", applicationID.String(), "error", err)
		return nil, fmt.Errorf("failed to list income runs: %w", err)
	}
	defer rows.Close()

	var ops []*income.Operation
	for rows.Next() {
		op, err := scanIncomeRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan income run: %w", err)
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

func (r *IncomeRepository) queryOne(ctx context.Context, query string, id uuid.UUID) (*income.Operation, error) {
	op, err := scanIncomeRun(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, income.ErrRunNotFound{RunID: id}
		}
		r.logger.Error("Failed to get income run", "error", err)
		return nil, fmt.Errorf("failed to get income run: %w", err)
	}
	return op, nil
}

func scanIncomeRun(row pgx.Row) (*income.Operation, error) {
	var op income.Operation
	var month int
	err := row.Scan(
		&op.ID,
		&op.ApplicationID,
		&op.Year,
		&month,
		&op.PaidRate,
		&op.State,
		&op.ErrorMessage,
		&op.RequesterID,
		&op.CreatedAt,
		&op.StartedAt,
		&op.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	op.Month = time.Month(month)
	return &op, nil
}
