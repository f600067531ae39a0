package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/suportemr7bank/speedseven/internal/domain/application"
	"github.com/suportemr7bank/speedseven/internal/domain/income"
	"github.com/suportemr7bank/speedseven/internal/domain/ledger"
	"github.com/suportemr7bank/speedseven/internal/domain/shared"
	"github.com/suportemr7bank/speedseven/internal/platform/messaging/producers"
)

var (
	// ErrRunMonthNotNext rejects income run requests that skip a month or
	// repeat one already run
	ErrRunMonthNotNext = errors.New("income run month must follow the last executed month")

	// ErrRunMonthNotClosed rejects runs requested before the month has ended
	ErrRunMonthNotClosed = errors.New("income run month has not ended yet")
)

// IncomeServiceImpl implements the IncomeService interface
type IncomeServiceImpl struct {
	incomeRepo income.Repository
	appRepo    application.Repository
	producer   producers.MessagePublisher
	logger     *slog.Logger
	now        func() time.Time
}

// NewIncomeService creates a new income service
func NewIncomeService(logger *slog.Logger, incomeRepo income.Repository, appRepo application.Repository, producer producers.MessagePublisher) IncomeService {
	return &IncomeServiceImpl{
		incomeRepo: incomeRepo,
		appRepo:    appRepo,
		producer:   producer,
		logger:     logger,
		now:        time.Now,
	}
}

// RequestRun registers an income run and publishes it to the worker. Runs
// are strictly sequential per application: the requested month must directly
// follow the last run's month, and the month must already be over.
func (s *IncomeServiceImpl) RequestRun(ctx context.Context, applicationID uuid.UUID, year int, month time.Month, requesterID uuid.UUID) (*income.Operation, error) {
	app, err := s.appRepo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if !app.IsActive {
		return nil, ledger.ErrInactiveApplication
	}

	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	if !monthStart.AddDate(0, 1, 0).Add(-time.Second).Before(s.now()) {
		return nil, ErrRunMonthNotClosed
	}

	latest, err := s.incomeRepo.Latest(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		next := time.Date(latest.Year, latest.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
		if next.Year() != year || next.Month() != month {
			return nil, ErrRunMonthNotNext
		}
	}

	run := income.NewOperation(applicationID, year, month, app.PaidRate, requesterID)
	if err := s.incomeRepo.Create(ctx, run); err != nil {
		return nil, err
	}

	request := &shared.IncomeRunRequest{
		IncomeOperationID: run.ID,
		ApplicationID:     applicationID,
		Timestamp:         s.now(),
	}
	if err := s.producer.Publish(ctx, run.ID.String(), request); err != nil {
		s.logger.Error("Failed to publish income run request",
			"income_operation_id", run.ID.String(),
			"application_id", applicationID.String(),
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Income run requested",
		"income_operation_id", run.ID.String(),
		"application_id", applicationID.String(),
		"year", year,
		"month", int(month),
	)
	return run, nil
}

// GetRunByID retrieves an income run by its ID
func (s *IncomeServiceImpl) GetRunByID(ctx context.Context, id uuid.UUID) (*income.Operation, error) {
	return s.incomeRepo.GetByID(ctx, id)
}

// ListRunsByApplication retrieves paginated runs of an application
func (s *IncomeServiceImpl) ListRunsByApplication(ctx context.Context, applicationID uuid.UUID, page, perPage int) ([]*income.Operation, error) {
	offset := (page - 1) * perPage
	return s.incomeRepo.ListByApplication(ctx, applicationID, perPage, offset)
}
