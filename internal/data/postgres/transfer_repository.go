package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/suportemr7bank/speedseven/internal/domain/transfer"
	"github.com/suportemr7bank/speedseven/internal/platform/persistence"
)

// TransferRepository implements the transfer.Repository interface for PostgreSQL
type TransferRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewTransferRepository creates a new PostgreSQL money transfer repository
func NewTransferRepository(logger *slog.Logger, db *persistence.PostgresDB) transfer.Repository {
	return &TransferRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *TransferRepository) WithTx(tx pgx.Tx) transfer.Repository {
	return &TransferRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const transferColumns = `id, account_id, operation, state, value, receipt, display_message, error_message, is_automatic, requester_id, approver_id, created_at, approved_at, finished_at`

// Create stores a new money transfer request
func (r *TransferRepository) Create(ctx context.Context, t *transfer.MoneyTransfer) error {
	query := `
		INSERT INTO money_transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.querier.Exec(ctx, query,
		t.ID,
		t.AccountID,
		t.Operation,
		t.State,
		t.Value,
		t.Receipt,
		t.DisplayMessage,
		t.ErrorMessage,
		t.IsAutomatic,
		t.RequesterID,
		t.ApproverID,
		t.CreatedAt,
		t.ApprovedAt,
		t.FinishedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create money transfer", "error", err)
		return fmt.Errorf("failed to create money transfer: %w", err)
	}
	return nil
}

// GetByID retrieves a money transfer by its ID
func (r *TransferRepository) GetByID(ctx context.Context, id uuid.UUID) (*transfer.MoneyTransfer, error) {
	query := `SELECT ` + transferColumns + ` FROM money_transfers WHERE id = $1`
	return r.queryOne(ctx, query, id)
}

// LockForUpdate retrieves a money transfer with a row lock
func (r *TransferRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*transfer.MoneyTransfer, error) {
	query := `SELECT ` + transferColumns + ` FROM money_transfers WHERE id = $1 FOR UPDATE`
	return r.queryOne(ctx, query, id)
}

// Update persists transfer state changes
func (r *TransferRepository) Update(ctx context.Context, t *transfer.MoneyTransfer) error {
	query := `
		UPDATE money_transfers
		SET state = $2, receipt = $3, display_message = $4, error_message = $5,
		    approver_id = $6, approved_at = $7, finished_at = $8
		WHERE id = $1
	`

	tag, err := r.querier.Exec(ctx, query,
		t.ID,
		t.State,
		t.Receipt,
		t.DisplayMessage,
		t.ErrorMessage,
		t.ApproverID,
		t.ApprovedAt,
		t.FinishedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update money transfer", "id", t.ID.String(), "error", err)
		return fmt.Errorf("failed to update money transfer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return transfer.ErrTransferNotFound{TransferID: t.ID}
	}
	return nil
}

// ListByAccount retrieves a page of an account's transfers, newest first
func (r *TransferRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*transfer.MoneyTransfer, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM money_transfers
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.queryMany(ctx, query, accountID, limit, offset)
}

// ListByState retrieves a page of transfers in the given state, oldest first
// so pending reviews surface in arrival order
func (r *TransferRepository) ListByState(ctx context.Context, state transfer.State, limit, offset int) ([]*transfer.MoneyTransfer, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM money_transfers
		WHERE state = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3
	`
	return r.queryMany(ctx, query, state, limit, offset)
}

func (r *TransferRepository) queryOne(ctx context.Context, query string, id uuid.UUID) (*transfer.MoneyTransfer, error) {
	t, err := scanTransfer(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transfer.ErrTransferNotFound{TransferID: id}
		}
		r.logger.Error("Failed to get money transfer", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get money transfer: %w", err)
	}
	return t, nil
}

func (r *TransferRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]*transfer.MoneyTransfer, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list money transfers", "error", err)
		return nil, fmt.Errorf("failed to list money transfers: %w", err)
	}
	defer rows.Close()

	var transfers []*transfer.MoneyTransfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan money transfer: %w", err)
		}
		transfers = append(transfers, t)
	}
	return transfers, rows.Err()
}

func scanTransfer(row pgx.Row) (*transfer.MoneyTransfer, error) {
	var t transfer.MoneyTransfer
	err := row.Scan(
		&t.ID,
		&t.AccountID,
		&t.Operation,
		&t.State,
		&t.Value,
		&t.Receipt,
		&t.DisplayMessage,
		&t.ErrorMessage,
		&t.IsAutomatic,
		&t.RequesterID,
		&t.ApproverID,
		&t.CreatedAt,
		&t.ApprovedAt,
		&t.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ScheduleRepository implements the transfer.ScheduleRepository interface
// for PostgreSQL
type ScheduleRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewScheduleRepository creates a new PostgreSQL operation schedule repository
func NewScheduleRepository(logger *slog.Logger, db *persistence.PostgresDB) transfer.ScheduleRepository {
	return &ScheduleRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *ScheduleRepository) WithTx(tx pgx.Tx) transfer.ScheduleRepository {
	return &ScheduleRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const scheduleColumns = `id, transfer_id, state, due_at, trial, max_trials, error_message, processor_id, created_at, finished_at`

// Create stores a new operation schedule
func (r *ScheduleRepository) Create(ctx context.Context, s *transfer.Schedule) error {
	query := `
		INSERT INTO operation_schedules (` + scheduleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.querier.Exec(ctx, query,
		s.ID,
		s.TransferID,
		s.State,
		s.DueAt,
		s.Trial,
		s.MaxTrials,
		s.ErrorMessage,
		s.ProcessorID,
		s.CreatedAt,
		s.FinishedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create schedule", "transfer_id", s.TransferID.String(), "error", err)
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	return nil
}

// GetByTransferID retrieves the schedule attached to a transfer
func (r *ScheduleRepository) GetByTransferID(ctx context.Context, transferID uuid.UUID) (*transfer.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM operation_schedules WHERE transfer_id = $1`

	s, err := scanSchedule(r.querier.QueryRow(ctx, query, transferID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transfer.ErrScheduleNotFound{TransferID: transferID}
		}
		r.logger.Error("Failed to get schedule", "transfer_id", transferID.String(), "error", err)
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return s, nil
}

// Update persists schedule state changes
func (r *ScheduleRepository) Update(ctx context.Context, s *transfer.Schedule) error {
	query := `
		UPDATE operation_schedules
		SET state = $2, trial = $3, error_message = $4, processor_id = $5, finished_at = $6
		WHERE id = $1
	`

	tag, err := r.querier.Exec(ctx, query,
		s.ID,
		s.State,
		s.Trial,
		s.ErrorMessage,
		s.ProcessorID,
		s.FinishedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update schedule", "id", s.ID.String(), "error", err)
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return transfer.ErrScheduleNotFound{TransferID: s.TransferID}
	}
	return nil
}

// ClaimDue returns due WAITING schedules. FOR UPDATE SKIP LOCKED keeps
// concurrent pollers from reading the same rows, but on the pool querier the
// locks end with the statement; execution still locks the transfer row
// before writing anything, so a doubly claimed schedule cannot run twice.
func (r *ScheduleRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*transfer.Schedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM operation_schedules
		WHERE state = 'WAIT' AND due_at <= $1
		ORDER BY due_at
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`

	rows, err := r.querier.Query(ctx, query, now, limit)
	if err != nil {
		r.logger.Error("Failed to claim due schedules", "error", err)
		return nil, fmt.Errorf("failed to claim due schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*transfer.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

func scanSchedule(row pgx.Row) (*transfer.Schedule, error) {
	var s transfer.Schedule
	err := row.Scan(
		&s.ID,
		&s.TransferID,
		&s.State,
		&s.DueAt,
		&s.Trial,
		&s.MaxTrials,
		&s.ErrorMessage,
		&s.ProcessorID,
		&s.CreatedAt,
		&s.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
