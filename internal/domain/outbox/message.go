package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/suportemr7bank/speedseven/internal/domain/shared"
)

// Message stores an operation event for reliable publishing. Events are
// written in the same transaction as the ledger row and published to Kafka
// by the worker's poller.
type Message struct {
	ID            int64               `json:"id"`
	OperationID   uuid.UUID           `json:"operation_id"`
	AccountID     uuid.UUID           `json:"account_id"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

func NewMessage(event *shared.OperationEvent) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Message{
		OperationID: event.OperationID,
		AccountID:   event.AccountID,
		Payload:     payload,
		Status:      shared.OutboxStatusPending,
		Attempts:    0,
		CreatedAt:   time.Now(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}

// GetOperationEvent extracts the operation event from the payload
func (m *Message) GetOperationEvent() (*shared.OperationEvent, error) {
	var event shared.OperationEvent
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
