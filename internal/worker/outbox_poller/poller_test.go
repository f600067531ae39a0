package outbox_poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/suportemr7bank/speedseven/internal/config"
	"github.com/suportemr7bank/speedseven/internal/domain/outbox"
	"github.com/suportemr7bank/speedseven/internal/domain/shared"
)

// MockOutboxRepo for testing
type MockOutboxRepo struct {
	mock.Mock
}

var _ outbox.Repository = (*MockOutboxRepo)(nil)

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepo) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetByOperationID(ctx context.Context, operationID uuid.UUID) (*outbox.Message, error) {
	args := m.Called(ctx, operationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository {
	args := m.Called(tx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(outbox.Repository)
}

// MockEventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishEvent(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func pendingMessage(t *testing.T, id int64) *outbox.Message {
	t.Helper()
	event := &shared.OperationEvent{
		OperationID:   uuid.New(),
		AccountID:     uuid.New(),
		OperationType: "DEPO",
		Value:         decimal.NewFromInt(1000),
		Balance:       decimal.NewFromInt(11000),
		OperationDate: time.Now(),
	}
	msg, err := outbox.NewMessage(event)
	require.NoError(t, err)
	msg.ID = id
	return msg
}

func TestPoller_ProcessPendingMessages(t *testing.T) {
	logger := slog.Default()

	cfg := &config.OutboxConfig{
		PollingInterval:  time.Second,
		BatchSize:        10,
		MaxRetryAttempts: 3,
	}

	t.Run("successful processing of pending messages", func(t *testing.T) {
		mockOutboxRepo := &MockOutboxRepo{}
		mockPublisher := &MockEventPublisher{}
		poller := NewPoller(cfg, mockOutboxRepo, mockPublisher, logger)

		message1 := pendingMessage(t, 1)
		message2 := pendingMessage(t, 2)

		mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{message1, message2}, nil).Once()
		mockPublisher.On("PublishEvent", mock.Anything, message1).Return(nil).Once()
		mockPublisher.On("PublishEvent", mock.Anything, message2).Return(nil).Once()

		err := poller.processPendingMessages(context.Background())
		assert.NoError(t, err)
		mockOutboxRepo.AssertExpectations(t)
		mockPublisher.AssertExpectations(t)
	})

	t.Run("error getting pending messages", func(t *testing.T) {
		mockOutboxRepo := &MockOutboxRepo{}
		mockPublisher := &MockEventPublisher{}
		poller := NewPoller(cfg, mockOutboxRepo, mockPublisher, logger)

		mockOutboxRepo.On("GetPending", mock.Anything, 10).Return(nil, errors.New("db error")).Once()

		err := poller.processPendingMessages(context.Background())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get pending outbox messages")
	})

	t.Run("publish failure increments attempts", func(t *testing.T) {
		mockOutboxRepo := &MockOutboxRepo{}
		mockPublisher := &MockEventPublisher{}
		poller := NewPoller(cfg, mockOutboxRepo, mockPublisher, logger)

		message := pendingMessage(t, 3)

		mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{message}, nil).Once()
		mockPublisher.On("PublishEvent", mock.Anything, message).Return(errors.New("broker down")).Once()
		mockOutboxRepo.On("IncrementAttempts", mock.Anything, message.ID).Return(nil).Once()

		err := poller.processPendingMessages(context.Background())
		assert.NoError(t, err)
		mockOutboxRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("max retries marks message failed", func(t *testing.T) {
		mockOutboxRepo := &MockOutboxRepo{}
		mockPublisher := &MockEventPublisher{}
		poller := NewPoller(cfg, mockOutboxRepo, mockPublisher, logger)

		message := pendingMessage(t, 4)
		message.Attempts = 2 // next failure exhausts the budget

		mockOutboxRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{message}, nil).Once()
		mockPublisher.On("PublishEvent", mock.Anything, message).Return(errors.New("broker down")).Once()
		mockOutboxRepo.On("IncrementAttempts", mock.Anything, message.ID).Return(nil).Once()
		mockOutboxRepo.On("UpdateStatus", mock.Anything, message.ID, shared.OutboxStatusFailedToPublish).Return(nil).Once()

		err := poller.processPendingMessages(context.Background())
		assert.NoError(t, err)
		mockOutboxRepo.AssertExpectations(t)
	})
}
