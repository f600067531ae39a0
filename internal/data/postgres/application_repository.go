package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/suportemr7bank/speedseven/internal/domain/application"
	"github.com/suportemr7bank/speedseven/internal/platform/persistence"
)

// ApplicationRepository implements the application.Repository interface for
// PostgreSQL
type ApplicationRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewApplicationRepository creates a new PostgreSQL application repository
func NewApplicationRepository(logger *slog.Logger, db *persistence.PostgresDB) application.Repository {
	return &ApplicationRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *ApplicationRepository) WithTx(tx pgx.Tx) application.Repository {
	return &ApplicationRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const applicationColumns = `id, name, description, product_code, is_active, min_rate, max_rate, expected_rate, paid_rate, created_at, deactivated_at`

// Create stores a new application
func (r *ApplicationRepository) Create(ctx context.Context, app *application.Application) error {
	query := `
		INSERT INTO applications (` + applicationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.querier.Exec(ctx, query,
		app.ID,
		app.Name,
		app.Description,
		app.ProductCode,
		app.IsActive,
		app.MinRate,
		app.MaxRate,
		app.ExpectedRate,
		app.PaidRate,
		app.CreatedAt,
		app.DeactivatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create application", "error", err)
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

// GetByID retrieves an application by its ID
func (r *ApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*application.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`

	app, err := scanApplication(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, application.ErrApplicationNotFound{ApplicationID: id}
		}
		r.logger.Error("Failed to get application", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return app, nil
}

// List retrieves a page of applications
func (r *ApplicationRepository) List(ctx context.Context, limit, offset int) ([]*application.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications ORDER BY created_at LIMIT $1 OFFSET $2`

	rows, err := r.querier.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list applications", "error", err)
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var apps []*application.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// Update persists application changes
func (r *ApplicationRepository) Update(ctx context.Context, app *application.Application) error {
	query := `
		UPDATE applications
		SET name = $2, description = $3, is_active = $4, min_rate = $5,
		    max_rate = $6, expected_rate = $7, paid_rate = $8, deactivated_at = $9
		WHERE id = $1
	`

	tag, err := r.querier.Exec(ctx, query,
		app.ID,
		app.Name,
		app.Description,
		app.IsActive,
		app.MinRate,
		app.MaxRate,
		app.ExpectedRate,
		app.PaidRate,
		app.DeactivatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update application", "id", app.ID.String(), "error", err)
		return fmt.Errorf("failed to update application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return application.ErrApplicationNotFound{ApplicationID: app.ID}
	}
	return nil
}

func scanApplication(row pgx.Row) (*application.Application, error) {
	var app application.Application
	err := row.Scan(
		&app.ID,
		&app.Name,
		&app.Description,
		&app.ProductCode,
		&app.IsActive,
		&app.MinRate,
		&app.MaxRate,
		&app.ExpectedRate,
		&app.PaidRate,
		&app.CreatedAt,
		&app.DeactivatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &app, nil
}
