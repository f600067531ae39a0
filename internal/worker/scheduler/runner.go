package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/suportemr7bank/speedseven/internal/config"
	"github.com/suportemr7bank/speedseven/internal/domain/transfer"
)

// ScheduleExecutor claims and executes due deposit schedules
type ScheduleExecutor interface {
	DueSchedules(ctx context.Context, now time.Time, limit int) ([]*transfer.Schedule, error)
	ExecuteSchedule(ctx context.Context, sched *transfer.Schedule, processorID uuid.UUID) error
}

// Runner polls for due deposit schedules and executes them. Schedules become
// due at most once per day, the polling interval only bounds release latency.
type Runner struct {
	executor     ScheduleExecutor
	logger       *slog.Logger
	pollInterval time.Duration
	batchLimit   int
	processorID  uuid.UUID
}

func NewRunner(cfg *config.SchedulerConfig, executor ScheduleExecutor, logger *slog.Logger) *Runner {
	return &Runner{
		executor:     executor,
		logger:       logger,
		pollInterval: cfg.PollingInterval,
		batchLimit:   cfg.BatchLimit,
		// operations written by the worker carry the configured system
		// operator id, stable across restarts
		processorID: cfg.ProcessorID,
	}
}

// Start begins polling until context is canceled
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("Starting Schedule Runner",
		"poll_interval", r.pollInterval.String(),
		"batch_limit", r.batchLimit,
	)
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Schedule Runner stopping due to context cancellation.")
			return
		case <-ticker.C:
			r.logger.Debug("Schedule Runner tick: processing due schedules")
			if err := r.processDueSchedules(ctx); err != nil {
				r.logger.Error("Error during processing of due schedules", "error", err)
			}
		}
	}
}

func (r *Runner) processDueSchedules(ctx context.Context) error {
	schedules, err := r.executor.DueSchedules(ctx, time.Now(), r.batchLimit)
	if err != nil {
		return err
	}

	if len(schedules) == 0 {
		r.logger.Debug("No due schedules found.")
		return nil
	}

	r.logger.Info("Fetched due schedules", "count", len(schedules))

	for _, sched := range schedules {
		if err := r.executor.ExecuteSchedule(ctx, sched, r.processorID); err != nil {
			// ExecuteSchedule already spent a trial or failed the transfer,
			// the next tick picks up whatever is still waiting
			r.logger.Error("Failed to execute schedule",
				"schedule_id", sched.ID,
				"transfer_id", sched.TransferID,
				"trial", sched.Trial,
				"error", err,
			)
			continue
		}
		r.logger.Info("Executed schedule",
			"schedule_id", sched.ID,
			"transfer_id", sched.TransferID,
		)
	}
	return nil
}
