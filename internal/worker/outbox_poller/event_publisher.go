package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/suportemr7bank/speedseven/internal/domain/outbox"
	"github.com/suportemr7bank/speedseven/internal/domain/shared"
	"github.com/suportemr7bank/speedseven/internal/platform/messaging/producers"
)

// EventPublisher publishes outbox messages to the operation event stream
type EventPublisher interface {
	PublishEvent(ctx context.Context, message *outbox.Message) error
}

// EventPublisherImpl implements EventPublisher
type EventPublisherImpl struct {
	outboxRepo outbox.Repository
	producer   producers.MessagePublisher
	logger     *slog.Logger
}

// NewEventPublisher creates a new publisher
func NewEventPublisher(
	outboxRepo outbox.Repository,
	producer producers.MessagePublisher,
	logger *slog.Logger,
) EventPublisher {
	return &EventPublisherImpl{
		outboxRepo: outboxRepo,
		producer:   producer,
		logger:     logger,
	}
}

// PublishEvent pushes one outbox message to the operation topic and marks it
// processed. Consumers deduplicate on operation id, so a crash between
// publish and the status update only causes a redelivery.
func (p *EventPublisherImpl) PublishEvent(ctx context.Context, message *outbox.Message) error {
	event, err := message.GetOperationEvent()
	if err != nil {
		p.logger.Error("Failed to unmarshal operation event from outbox payload",
			"outbox_id", message.ID, "operation_id", message.OperationID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	logger := p.logger
	if event.CorrelationID != "" {
		logger = p.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Publishing outbox message to operation topic", "outbox_id", message.ID, "operation_id", message.OperationID)

	if err := p.producer.Publish(ctx, event.AccountID.String(), event); err != nil {
		logger.Error("Failed to publish operation event", "outbox_id", message.ID, "operation_id", message.OperationID, "error", err)
		return fmt.Errorf("failed to publish operation event %s: %w", message.OperationID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "operation_id", message.OperationID, "error", err,
		)
		return fmt.Errorf("event %s published, but failed to mark outbox %d as PROCESSED: %w", message.OperationID, message.ID, err)
	}

	logger.Info("Outbox message successfully published and marked as PROCESSED", "outbox_id", message.ID, "operation_id", message.OperationID)
	return nil
}
