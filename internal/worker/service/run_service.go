package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/suportemr7bank/speedseven/internal/domain/shared"
	"github.com/suportemr7bank/speedseven/internal/income"
	"github.com/suportemr7bank/speedseven/internal/platform/messaging/producers"
)

// IncomeRunner executes one income run, reporting progress through the
// callback.
type IncomeRunner interface {
	Run(ctx context.Context, runID uuid.UUID, notify income.ProgressFunc) error
}

// RunServiceImpl executes income run requests and streams progress messages
// to the progress topic
type RunServiceImpl struct {
	runner   IncomeRunner
	progress producers.MessagePublisher
	logger   *slog.Logger
}

// NewRunService creates a new run processing service
func NewRunService(logger *slog.Logger, runner IncomeRunner, progress producers.MessagePublisher) RunProcessingService {
	return &RunServiceImpl{
		runner:   runner,
		progress: progress,
		logger:   logger,
	}
}

// ProcessRun executes the requested income run. Progress messages are best
// effort; a failed publish never fails the run.
func (s *RunServiceImpl) ProcessRun(ctx context.Context, request *shared.IncomeRunRequest) error {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Processing income run",
		"income_operation_id", request.IncomeOperationID.String(),
		"application_id", request.ApplicationID.String(),
	)

	notify := func(message string) {
		if s.progress == nil {
			return
		}
		msg := &shared.ProgressMessage{
			IncomeOperationID: request.IncomeOperationID,
			Message:           message,
			Timestamp:         time.Now(),
		}
		if err := s.progress.Publish(ctx, request.IncomeOperationID.String(), msg); err != nil {
			logger.Warn("Failed to publish progress message",
				"income_operation_id", request.IncomeOperationID.String(),
				"error", err,
			)
		}
	}

	if err := s.runner.Run(ctx, request.IncomeOperationID, notify); err != nil {
		logger.Error("Income run failed",
			"income_operation_id", request.IncomeOperationID.String(),
			"error", err,
		)
		return err
	}

	logger.Info("Income run processed", "income_operation_id", request.IncomeOperationID.String())
	return nil
}
