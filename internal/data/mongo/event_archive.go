package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/suportemr7bank/speedseven/internal/domain/ledger"
	"github.com/suportemr7bank/speedseven/internal/domain/shared"
)

const (
	// EventCollectionName is the name of the operation event collection in MongoDB
	EventCollectionName = "operation_events"
)

// EventArchive implements the ledger.EventArchive interface for MongoDB
type EventArchive struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewEventArchive creates a new MongoDB operation event archive
func NewEventArchive(logger *slog.Logger, db *mongo.Database) ledger.EventArchive {
	return &EventArchive{
		db:     db,
		logger: logger,
	}
}

// Save stores an operation event after checking for duplicates.
// Returns ErrDuplicateEvent if the operation was already archived.
func (r *EventArchive) Save(ctx context.Context, event *shared.OperationEvent) error {
	collection := r.db.Collection(EventCollectionName)

	existing, err := r.GetByOperationID(ctx, event.OperationID)
	if err != nil && !errors.Is(err, ledger.ErrEventNotFound{}) {
		r.logger.Error("Failed to check for existing operation event",
			"operation_id", event.OperationID.String(),
			"error", err)
		return fmt.Errorf("failed to check for existing operation event: %w", err)
	}

	if existing != nil {
		return ledger.ErrDuplicateEvent{OperationID: event.OperationID}
	}

	_, err = collection.InsertOne(ctx, event)
	if err != nil {
		r.logger.Error("Failed to archive operation event",
			"operation_id", event.OperationID.String(),
			"error", err)
		return fmt.Errorf("failed to archive operation event: %w", err)
	}

	return nil
}

// GetByOperationID retrieves an archived event by its operation ID.
// Returns ErrEventNotFound if the operation was never archived.
func (r *EventArchive) GetByOperationID(ctx context.Context, operationID uuid.UUID) (*shared.OperationEvent, error) {
	collection := r.db.Collection(EventCollectionName)

	filter := bson.M{"operation_id": operationID}
	var event shared.OperationEvent
	err := collection.FindOne(ctx, filter).Decode(&event)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ledger.ErrEventNotFound{OperationID: operationID}
		}
		r.logger.Error("Failed to get operation event",
			"operation_id", operationID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get operation event: %w", err)
	}

	return &event, nil
}

// ListByAccount retrieves paginated archived events for an account.
// Results are sorted by operation date in descending order (newest first).
func (r *EventArchive) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*shared.OperationEvent, error) {
	collection := r.db.Collection(EventCollectionName)

	filter := bson.M{"account_id": accountID}
	opts := options.Find().
		SetSort(bson.M{"operation_date": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list operation events",
			"account_id", accountID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to list operation events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*shared.OperationEvent
	if err := cursor.All(ctx, &events); err != nil {
		r.logger.Error("Failed to decode operation events",
			"account_id", accountID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode operation events: %w", err)
	}

	return events, nil
}

// CountByAccount counts the archived events for an account
func (r *EventArchive) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	collection := r.db.Collection(EventCollectionName)

	filter := bson.M{"account_id": accountID}
	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count operation events",
			"account_id", accountID.String(),
			"error", err)
		return 0, fmt.Errorf("failed to count operation events: %w", err)
	}

	return count, nil
}

// ListByTimeRange retrieves paginated archived events within the specified
// operation date window, sorted newest first.
func (r *EventArchive) ListByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*shared.OperationEvent, error) {
	collection := r.db.Collection(EventCollectionName)

	filter := bson.M{
		"operation_date": bson.M{
			"$gte": startTime,
			"$lte": endTime,
		},
	}
	opts := options.Find().
		SetSort(bson.M{"operation_date": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list operation events by time range",
			"start_time", startTime,
			"end_time", endTime,
			"error", err)
		return nil, fmt.Errorf("failed to list operation events by time range: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*shared.OperationEvent
	if err := cursor.All(ctx, &events); err != nil {
		r.logger.Error("Failed to decode operation events",
			"start_time", startTime,
			"end_time", endTime,
			"error", err)
		return nil, fmt.Errorf("failed to decode operation events: %w", err)
	}

	return events, nil
}
