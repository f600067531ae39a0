package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/suportemr7bank/speedseven/internal/domain/shared"
	"github.com/suportemr7bank/speedseven/internal/platform/messaging/producers"
	"github.com/suportemr7bank/speedseven/internal/worker/service"
)

// IncomeRunHandler handles income run request messages from Kafka
type IncomeRunHandler struct {
	runService service.RunProcessingService
	producer   producers.DeadLetterPublisher
	logger     *slog.Logger
}

// NewIncomeRunHandler creates a new handler
func NewIncomeRunHandler(
	logger *slog.Logger,
	runService service.RunProcessingService,
	producer producers.DeadLetterPublisher,
) *IncomeRunHandler {
	return &IncomeRunHandler{
		runService: runService,
		producer:   producer,
		logger:     logger,
	}
}

// HandleMessage processes Kafka messages
func (h *IncomeRunHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request shared.IncomeRunRequest
	if err := json.Unmarshal(value, &request); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal income run request from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		// Send to DLQ if available
		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
			} else {
				h.logger.Info("Successfully published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				// Message handled, commit offset
				return nil
			}
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	logger := h.logger
	if request.CorrelationID != "" {
		logger = h.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Received income run request",
		"income_operation_id", request.IncomeOperationID.String(),
		"application_id", request.ApplicationID.String(),
	)

	if err := h.runService.ProcessRun(ctx, &request); err != nil {
		logger.Error("Failed to process income run",
			"income_operation_id", request.IncomeOperationID.String(),
			"error", err,
		)
		return fmt.Errorf("processing income run %s failed: %w", request.IncomeOperationID.String(), err)
	}

	logger.Info("Successfully processed income run", "income_operation_id", request.IncomeOperationID.String())
	return nil // Success, commit offset
}
