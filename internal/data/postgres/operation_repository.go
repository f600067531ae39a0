package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/suportemr7bank/speedseven/internal/domain/ledger"
	"github.com/suportemr7bank/speedseven/internal/platform/persistence"
)

// OperationRepository implements the ledger.Repository interface for PostgreSQL
type OperationRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewOperationRepository creates a new PostgreSQL ledger operation repository
func NewOperationRepository(logger *slog.Logger, db *persistence.PostgresDB) ledger.Repository {
	return &OperationRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *OperationRepository) WithTx(tx pgx.Tx) ledger.Repository {
	return &OperationRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const operationColumns = `id, account_id, operation_type, value, balance, description, operation_date, operator_id, transfer_id`

const insertOperationQuery = `
	INSERT INTO operations (` + operationColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

// Create appends one operation to the ledger. A duplicate
// (account, operation_date) pair is reported as ErrDuplicateOperationDate.
func (r *OperationRepository) Create(ctx context.Context, op *ledger.Operation) error {
	_, err := r.querier.Exec(ctx, insertOperationQuery,
		op.ID,
		op.AccountID,
		op.Type,
		op.Value,
		op.Balance,
		op.Description,
		op.OperationDate,
		op.OperatorID,
		op.TransferID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ledger.ErrDuplicateOperationDate{AccountID: op.AccountID}
		}
		r.logger.Error("Failed to create operation", "account_id", op.AccountID.String(), "error", err)
		return fmt.Errorf("failed to create operation: %w", err)
	}
	return nil
}

// CreateBatch appends operations using a single round trip per batch
func (r *OperationRepository) CreateBatch(ctx context.Context, ops []*ledger.Operation) error {
	batch := &pgx.Batch{}
	for _, op := range ops {
		batch.Queue(insertOperationQuery,
			op.ID,
			op.AccountID,
			op.Type,
			op.Value,
			op.Balance,
			op.Description,
			op.OperationDate,
			op.OperatorID,
			op.TransferID,
		)
	}

	sender, ok := r.querier.(interface {
		SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	})
	if !ok {
		return errors.New("querier does not support batch sends")
	}

	results := sender.SendBatch(ctx, batch)
	defer results.Close()

	for range ops {
		if _, err := results.Exec(); err != nil {
			if isUniqueViolation(err) {
				return ledger.ErrDuplicateOperationDate{}
			}
			r.logger.Error("Failed to create operation batch", "error", err)
			return fmt.Errorf("failed to create operation batch: %w", err)
		}
	}
	return nil
}

// GetByID retrieves an operation by its ID
func (r *OperationRepository) GetByID(ctx context.Context, id uuid.UUID) (*ledger.Operation, error) {
	query := `SELECT ` + operationColumns + ` FROM operations WHERE id = $1`

	op, err := scanOperation(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrOperationNotFound{OperationID: id}
		}
		r.logger.Error("Failed to get operation", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get operation: %w", err)
	}
	return op, nil
}

// Last retrieves the most recent operation of an account, nil for an empty ledger
func (r *OperationRepository) Last(ctx context.Context, accountID uuid.UUID) (*ledger.Operation, error) {
	query := `
		SELECT ` + operationColumns + `
		FROM operations
		WHERE account_id = $1
		ORDER BY operation_date DESC
		LIMIT 1
	`
	return r.queryOne(ctx, query, accountID)
}

// LastIncome retrieves the most recent INCOME operation of an account
func (r *OperationRepository) LastIncome(ctx context.Context, accountID uuid.UUID) (*ledger.Operation, error) {
	query := `
		SELECT ` + operationColumns + `
		FROM operations
		WHERE account_id = $1 AND operation_type = 'INCO'
		ORDER BY operation_date DESC
		LIMIT 1
	`
	return r.queryOne(ctx, query, accountID)
}

// LastIncomeWithdrawAfter retrieves the most recent income withdraw dated
// after the given operation
func (r *OperationRepository) LastIncomeWithdrawAfter(ctx context.Context, accountID uuid.UUID, after *ledger.Operation) (*ledger.Operation, error) {
	query := `
		SELECT ` + operationColumns + `
		FROM operations
		WHERE account_id = $1 AND operation_type = 'WINC' AND operation_date > $2
		ORDER BY operation_date DESC
		LIMIT 1
	`
	return r.queryOne(ctx, query, accountID, after.OperationDate)
}

// ListByAccount retrieves a page of an account's ledger, newest first
func (r *OperationRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*ledger.Operation, error) {
	query := `
		SELECT ` + operationColumns + `
		FROM operations
		WHERE account_id = $1
		ORDER BY operation_date DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list operations", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	defer rows.Close()

	var ops []*ledger.Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

// CountByAccount counts an account's ledger operations
func (r *OperationRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var count int64
	err := r.querier.QueryRow(ctx, `SELECT COUNT(*) FROM operations WHERE account_id = $1`, accountID).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count operations", "account_id", accountID.String(), "error", err)
		return 0, fmt.Errorf("failed to count operations: %w", err)
	}
	return count, nil
}

// MonthDayBalances returns the balance of the last operation of each
// calendar day of the month, for every active account of the application
func (r *OperationRepository) MonthDayBalances(ctx context.Context, applicationID uuid.UUID, year int, month int) ([]ledger.DayBalance, error) {
	monthStart, nextMonthStart := monthRange(year, month)

	query := `
		SELECT DISTINCT ON (o.account_id, EXTRACT(DAY FROM o.operation_date)::int)
			o.account_id,
			EXTRACT(DAY FROM o.operation_date)::int AS day,
			o.balance
		FROM operations o
		JOIN accounts a ON a.id = o.account_id
		WHERE a.application_id = $1 AND a.is_active
		  AND o.operation_date >= $2 AND o.operation_date < $3
		ORDER BY o.account_id, day, o.operation_date DESC
	`

	return r.queryDayBalances(ctx, query, applicationID, monthStart, nextMonthStart)
}

// CarryInBalances presents the previous month's income balance as a day-1
// checkpoint for active accounts with no day-1 operation in the month
func (r *OperationRepository) CarryInBalances(ctx context.Context, applicationID uuid.UUID, year int, month int) ([]ledger.DayBalance, error) {
	monthStart, nextMonthStart := monthRange(year, month)
	prevMonthStart := monthStart.AddDate(0, -1, 0)

	query := `
		WITH month_ops AS (
			SELECT o.account_id,
			       BOOL_OR(EXTRACT(DAY FROM o.operation_date) = 1) AS has_day_one
			FROM operations o
			JOIN accounts a ON a.id = o.account_id
			WHERE a.application_id = $1 AND a.is_active
			  AND o.operation_date >= $2 AND o.operation_date < $3
			GROUP BY o.account_id
		),
		prev_income AS (
			SELECT DISTINCT ON (o.account_id) o.account_id, o.balance
			FROM operations o
			JOIN accounts a ON a.id = o.account_id
			WHERE a.application_id = $1 AND a.is_active
			  AND o.operation_type = 'INCO'
			  AND o.operation_date >= $4 AND o.operation_date < $2
			ORDER BY o.account_id, o.operation_date DESC
		)
		SELECT p.account_id, 1 AS day, p.balance
		FROM prev_income p
		LEFT JOIN month_ops m ON m.account_id = p.account_id
		WHERE m.account_id IS NULL OR NOT m.has_day_one
		ORDER BY p.account_id
	`

	return r.queryDayBalances(ctx, query, applicationID, monthStart, nextMonthStart, prevMonthStart)
}

func (r *OperationRepository) queryDayBalances(ctx context.Context, query string, args ...interface{}) ([]ledger.DayBalance, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to load day balances", "error", err)
		return nil, fmt.Errorf("failed to load day balances: %w", err)
	}
	defer rows.Close()

	var balances []ledger.DayBalance
	for rows.Next() {
		var db ledger.DayBalance
		if err := rows.Scan(&db.AccountID, &db.Day, &db.Balance); err != nil {
			return nil, fmt.Errorf("failed to scan day balance: %w", err)
		}
		balances = append(balances, db)
	}
	return balances, rows.Err()
}

func (r *OperationRepository) queryOne(ctx context.Context, query string, args ...interface{}) (*ledger.Operation, error) {
	op, err := scanOperation(r.querier.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to query operation", "error", err)
		return nil, fmt.Errorf("failed to query operation: %w", err)
	}
	return op, nil
}

func scanOperation(row pgx.Row) (*ledger.Operation, error) {
	var op ledger.Operation
	err := row.Scan(
		&op.ID,
		&op.AccountID,
		&op.Type,
		&op.Value,
		&op.Balance,
		&op.Description,
		&op.OperationDate,
		&op.OperatorID,
		&op.TransferID,
	)
	if err != nil {
		return nil, err
	}
	return &op, nil
}

func monthRange(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
