package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/suportemr7bank/speedseven/internal/domain/ledger"
	"github.com/suportemr7bank/speedseven/internal/domain/shared"
)

// MockEventArchive for testing
type MockEventArchive struct {
	mock.Mock
}

var _ ledger.EventArchive = (*MockEventArchive)(nil)

func (m *MockEventArchive) Save(ctx context.Context, event *shared.OperationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventArchive) GetByOperationID(ctx context.Context, operationID uuid.UUID) (*shared.OperationEvent, error) {
	args := m.Called(ctx, operationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.OperationEvent), args.Error(1)
}

func (m *MockEventArchive) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*shared.OperationEvent, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*shared.OperationEvent), args.Error(1)
}

func (m *MockEventArchive) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEventArchive) ListByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*shared.OperationEvent, error) {
	args := m.Called(ctx, startTime, endTime, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*shared.OperationEvent), args.Error(1)
}

func TestOperationEventHandler_HandleMessage(t *testing.T) {
	logger := slog.Default()

	event := &shared.OperationEvent{
		OperationID:   uuid.New(),
		AccountID:     uuid.New(),
		OperationType: "DEPO",
		Value:         decimal.NewFromInt(1000),
		Balance:       decimal.NewFromInt(11000),
		OperationDate: time.Now(),
	}
	eventJSON, err := json.Marshal(event)
	assert.NoError(t, err)

	t.Run("ArchivesEvent", func(t *testing.T) {
		archive := new(MockEventArchive)
		handler := NewOperationEventHandler(logger, archive)

		archive.On("Save", mock.Anything, mock.MatchedBy(func(e *shared.OperationEvent) bool {
			return e.OperationID == event.OperationID && e.Value.Equal(event.Value)
		})).Return(nil).Once()

		err := handler.HandleMessage(context.Background(), []byte(event.OperationID.String()), eventJSON)
		assert.NoError(t, err)
		archive.AssertExpectations(t)
	})

	t.Run("DuplicateIsSuccess", func(t *testing.T) {
		archive := new(MockEventArchive)
		handler := NewOperationEventHandler(logger, archive)

		archive.On("Save", mock.Anything, mock.Anything).
			Return(ledger.ErrDuplicateEvent{OperationID: event.OperationID}).Once()

		err := handler.HandleMessage(context.Background(), []byte(event.OperationID.String()), eventJSON)
		assert.NoError(t, err)
	})

	t.Run("ArchiveError", func(t *testing.T) {
		archive := new(MockEventArchive)
		handler := NewOperationEventHandler(logger, archive)

		archive.On("Save", mock.Anything, mock.Anything).Return(errors.New("mongo down")).Once()

		err := handler.HandleMessage(context.Background(), []byte(event.OperationID.String()), eventJSON)
		assert.Error(t, err)
	})

	t.Run("MalformedMessageDropped", func(t *testing.T) {
		archive := new(MockEventArchive)
		handler := NewOperationEventHandler(logger, archive)

		err := handler.HandleMessage(context.Background(), []byte("key"), []byte(`{"invalid`))
		assert.NoError(t, err)
		archive.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}
