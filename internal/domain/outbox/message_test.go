package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suportemr7bank/speedseven/internal/domain/shared"
)

func TestNewMessage(t *testing.T) {
	t.Run("SuccessfulCreation", func(t *testing.T) {
		event := &shared.OperationEvent{
			OperationID:   uuid.New(),
			AccountID:     uuid.New(),
			OperationType: "DEPO",
			Value:         decimal.NewFromFloat(1000),
			Balance:       decimal.NewFromFloat(11000),
			OperationDate: time.Now().Add(-time.Minute),
		}

		beforeCreation := time.Now()
		msg, err := NewMessage(event)
		afterCreation := time.Now()

		require.NoError(t, err)
		require.NotNil(t, msg)

		assert.Equal(t, event.OperationID, msg.OperationID)
		assert.Equal(t, event.AccountID, msg.AccountID)
		assert.Equal(t, shared.OutboxStatusPending, msg.Status)
		assert.Equal(t, 0, msg.Attempts)
		assert.Nil(t, msg.LastAttemptAt)
		assert.WithinDuration(t, beforeCreation, msg.CreatedAt, afterCreation.Sub(beforeCreation)+time.Millisecond)

		// Check payload
		var decodedEvent shared.OperationEvent
		err = json.Unmarshal(msg.Payload, &decodedEvent)
		require.NoError(t, err)
		assert.Equal(t, event.OperationID, decodedEvent.OperationID)
		assert.True(t, event.Value.Equal(decodedEvent.Value))
	})
}

func TestMessage_IncrementAttempts(t *testing.T) {
	t.Run("SuccessfulIncrement", func(t *testing.T) {
		initialTime := time.Now().Add(-time.Hour)
		msg := &Message{
			Attempts:      1,
			LastAttemptAt: &initialTime,
		}
		initialAttempts := msg.Attempts

		time.Sleep(10 * time.Millisecond) // Ensure time changes
		beforeUpdate := time.Now()
		msg.IncrementAttempts()
		afterUpdate := time.Now()

		assert.Equal(t, initialAttempts+1, msg.Attempts)
		require.NotNil(t, msg.LastAttemptAt)
		assert.True(t, msg.LastAttemptAt.After(initialTime))
		assert.WithinDuration(t, beforeUpdate, *msg.LastAttemptAt, afterUpdate.Sub(beforeUpdate)+time.Millisecond)
	})
}

func TestMessage_MarkAsProcessed(t *testing.T) {
	t.Run("SuccessfulMarkAsProcessed", func(t *testing.T) {
		initialTime := time.Now().Add(-time.Hour)
		msg := &Message{
			Status:        shared.OutboxStatusPending,
			LastAttemptAt: &initialTime,
		}
		time.Sleep(10 * time.Millisecond) // Ensure time changes
		beforeUpdate := time.Now()
		msg.MarkAsProcessed()
		afterUpdate := time.Now()

		assert.Equal(t, shared.OutboxStatusProcessed, msg.Status)
		require.NotNil(t, msg.LastAttemptAt)
		assert.True(t, msg.LastAttemptAt.After(initialTime))
		assert.WithinDuration(t, beforeUpdate, *msg.LastAttemptAt, afterUpdate.Sub(beforeUpdate)+time.Millisecond)
	})
}

func TestMessage_MarkAsFailed(t *testing.T) {
	t.Run("SuccessfulMarkAsFailed", func(t *testing.T) {
		initialTime := time.Now().Add(-time.Hour)
		msg := &Message{
			Status:        shared.OutboxStatusPending,
			LastAttemptAt: &initialTime,
		}
		time.Sleep(10 * time.Millisecond) // Ensure time changes
		beforeUpdate := time.Now()
		msg.MarkAsFailed()
		afterUpdate := time.Now()

		assert.Equal(t, shared.OutboxStatusFailedToPublish, msg.Status)
		require.NotNil(t, msg.LastAttemptAt)
		assert.True(t, msg.LastAttemptAt.After(initialTime))
		assert.WithinDuration(t, beforeUpdate, *msg.LastAttemptAt, afterUpdate.Sub(beforeUpdate)+time.Millisecond)
	})
}

func TestMessage_GetOperationEvent(t *testing.T) {
	t.Run("SuccessfulGetOperationEvent", func(t *testing.T) {
		transferID := uuid.New()
		originalEvent := &shared.OperationEvent{
			OperationID:   uuid.New(),
			AccountID:     uuid.New(),
			TransferID:    &transferID,
			OperationType: "WWAL",
			Value:         decimal.NewFromFloat(500),
			Balance:       decimal.NewFromFloat(9500),
			OperationDate: time.Now().Truncate(time.Millisecond), // Truncate for consistent comparison
		}
		payload, err := json.Marshal(originalEvent)
		require.NoError(t, err)

		msg := &Message{Payload: payload}
		decodedEvent, err := msg.GetOperationEvent()

		require.NoError(t, err)
		require.NotNil(t, decodedEvent)
		assert.Equal(t, originalEvent.OperationID, decodedEvent.OperationID)
		assert.Equal(t, originalEvent.AccountID, decodedEvent.AccountID)
		assert.Equal(t, originalEvent.TransferID, decodedEvent.TransferID)
		assert.Equal(t, originalEvent.OperationType, decodedEvent.OperationType)
		assert.True(t, originalEvent.Value.Equal(decodedEvent.Value))
		assert.True(t, originalEvent.Balance.Equal(decodedEvent.Balance))
		assert.True(t, originalEvent.OperationDate.Equal(decodedEvent.OperationDate), "OperationDate should match")
	})
}
