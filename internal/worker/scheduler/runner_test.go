package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/suportemr7bank/speedseven/internal/config"
	"github.com/suportemr7bank/speedseven/internal/domain/transfer"
)

// MockScheduleExecutor for testing
type MockScheduleExecutor struct {
	mock.Mock
}

func (m *MockScheduleExecutor) DueSchedules(ctx context.Context, now time.Time, limit int) ([]*transfer.Schedule, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transfer.Schedule), args.Error(1)
}

func (m *MockScheduleExecutor) ExecuteSchedule(ctx context.Context, sched *transfer.Schedule, processorID uuid.UUID) error {
	args := m.Called(ctx, sched, processorID)
	return args.Error(0)
}

func TestRunner_ProcessDueSchedules(t *testing.T) {
	logger := slog.Default()
	cfg := &config.SchedulerConfig{
		PollingInterval: time.Minute,
		BatchLimit:      50,
		MaxTrials:       3,
		ProcessorID:     uuid.MustParse("00000000-0000-0000-0000-000000000001"),
	}

	t.Run("ExecutesAllDueSchedulesAsConfiguredProcessor", func(t *testing.T) {
		executor := new(MockScheduleExecutor)
		runner := NewRunner(cfg, executor, logger)

		sched1 := transfer.NewSchedule(uuid.New(), time.Now().Add(-time.Hour), 3)
		sched2 := transfer.NewSchedule(uuid.New(), time.Now().Add(-time.Minute), 3)

		executor.On("DueSchedules", mock.Anything, mock.Anything, 50).
			Return([]*transfer.Schedule{sched1, sched2}, nil).Once()
		executor.On("ExecuteSchedule", mock.Anything, sched1, cfg.ProcessorID).Return(nil).Once()
		executor.On("ExecuteSchedule", mock.Anything, sched2, cfg.ProcessorID).Return(nil).Once()

		err := runner.processDueSchedules(context.Background())
		assert.NoError(t, err)
		executor.AssertExpectations(t)
	})

	t.Run("ContinuesPastFailedSchedule", func(t *testing.T) {
		executor := new(MockScheduleExecutor)
		runner := NewRunner(cfg, executor, logger)

		sched1 := transfer.NewSchedule(uuid.New(), time.Now().Add(-time.Hour), 3)
		sched2 := transfer.NewSchedule(uuid.New(), time.Now().Add(-time.Minute), 3)

		executor.On("DueSchedules", mock.Anything, mock.Anything, 50).
			Return([]*transfer.Schedule{sched1, sched2}, nil).Once()
		executor.On("ExecuteSchedule", mock.Anything, sched1, mock.Anything).
			Return(errors.New("deposit failed")).Once()
		executor.On("ExecuteSchedule", mock.Anything, sched2, mock.Anything).Return(nil).Once()

		err := runner.processDueSchedules(context.Background())
		assert.NoError(t, err)
		executor.AssertExpectations(t)
	})

	t.Run("QueryError", func(t *testing.T) {
		executor := new(MockScheduleExecutor)
		runner := NewRunner(cfg, executor, logger)

		executor.On("DueSchedules", mock.Anything, mock.Anything, 50).
			Return(nil, errors.New("db error")).Once()

		err := runner.processDueSchedules(context.Background())
		assert.Error(t, err)
		executor.AssertNotCalled(t, "ExecuteSchedule", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("NoDueSchedules", func(t *testing.T) {
		executor := new(MockScheduleExecutor)
		runner := NewRunner(cfg, executor, logger)

		executor.On("DueSchedules", mock.Anything, mock.Anything, 50).
			Return([]*transfer.Schedule{}, nil).Once()

		err := runner.processDueSchedules(context.Background())
		assert.NoError(t, err)
	})

	t.Run("ProcessorIdentitySurvivesRestart", func(t *testing.T) {
		first := NewRunner(cfg, new(MockScheduleExecutor), logger)
		second := NewRunner(cfg, new(MockScheduleExecutor), logger)

		assert.Equal(t, cfg.ProcessorID, first.processorID)
		assert.Equal(t, first.processorID, second.processorID)
	})
}
