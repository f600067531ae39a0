package service

import (
	"context"

	"github.com/suportemr7bank/speedseven/internal/domain/shared"
)

// RunProcessingService defines the interface for executing requested income runs.
type RunProcessingService interface {
	ProcessRun(ctx context.Context, request *shared.IncomeRunRequest) error
}
