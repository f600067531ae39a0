package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/suportemr7bank/speedseven/internal/domain/ledger"
	"github.com/suportemr7bank/speedseven/internal/domain/shared"
)

// OperationEventHandler consumes operation events and stores them in the
// event archive. The archive is a secondary read store; the relational
// ledger stays authoritative.
type OperationEventHandler struct {
	archive ledger.EventArchive
	logger  *slog.Logger
}

// NewOperationEventHandler creates a new handler
func NewOperationEventHandler(logger *slog.Logger, archive ledger.EventArchive) *OperationEventHandler {
	return &OperationEventHandler{
		archive: archive,
		logger:  logger,
	}
}

// HandleMessage processes Kafka messages
func (h *OperationEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event shared.OperationEvent
	if err := json.Unmarshal(value, &event); err != nil {
		h.logger.Error("Failed to unmarshal operation event from Kafka message",
			"error", err,
			"message_key", string(key),
		)
		// Malformed events cannot be retried into shape, drop the message
		return nil
	}

	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	if err := h.archive.Save(ctx, &event); err != nil {
		if errors.Is(err, ledger.ErrDuplicateEvent{}) {
			// the operation topic is at-least-once, redeliveries are expected
			logger.Debug("Operation event already archived", "operation_id", event.OperationID.String())
			return nil
		}
		logger.Error("Failed to archive operation event",
			"operation_id", event.OperationID.String(),
			"error", err,
		)
		return fmt.Errorf("archiving operation event %s failed: %w", event.OperationID.String(), err)
	}

	logger.Info("Archived operation event",
		"operation_id", event.OperationID.String(),
		"account_id", event.AccountID.String(),
		"operation_type", event.OperationType,
	)
	return nil
}
