package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/suportemr7bank/speedseven/internal/domain/shared"
)

// WorkerPoolRunService implements the RunProcessingService interface on top
// of a bounded worker pool. Run executions are CPU and IO heavy, so the pool
// caps how many applications are calculated at once.
type WorkerPoolRunService struct {
	baseService RunProcessingService
	pool        *ants.Pool
	logger      *slog.Logger
	// Use a mutex to protect access to the results map
	mu      sync.Mutex
	results map[string]chan error
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolRunService(
	baseService RunProcessingService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolRunService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolRunService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
		results:     make(map[string]chan error),
	}, nil
}

// ProcessRun submits an income run request to the worker pool for execution.
func (s *WorkerPoolRunService) ProcessRun(ctx context.Context, request *shared.IncomeRunRequest) error {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Submitting income run to worker pool",
		"income_operation_id", request.IncomeOperationID.String(),
		"application_id", request.ApplicationID.String(),
	)

	// Create a channel to receive the result of the run execution
	resultChan := make(chan error, 1)

	runID := request.IncomeOperationID.String()
	s.mu.Lock()
	s.results[runID] = resultChan
	s.mu.Unlock()

	// Create a copy of the request to avoid data races
	requestCopy := *request

	err := s.pool.Submit(func() {
		err := s.baseService.ProcessRun(ctx, &requestCopy)

		resultChan <- err

		s.mu.Lock()
		delete(s.results, runID)
		close(resultChan)
		s.mu.Unlock()
	})

	if err != nil {
		// If we couldn't submit the task to the pool, remove the result channel
		s.mu.Lock()
		delete(s.results, runID)
		close(resultChan)
		s.mu.Unlock()

		logger.Error("Failed to submit income run to worker pool",
			"income_operation_id", request.IncomeOperationID.String(),
			"error", err,
		)
		return err
	}

	// Wait for the result from the worker
	return <-resultChan
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolRunService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolRunService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolRunService) Capacity() int {
	return s.pool.Cap()
}
