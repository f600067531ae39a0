package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/suportemr7bank/speedseven/internal/domain/shared"
)

// EventArchive stores operation events consumed from the event stream. It is
// a secondary read store; the relational ledger stays authoritative.
type EventArchive interface {
	Save(ctx context.Context, event *shared.OperationEvent) error
	GetByOperationID(ctx context.Context, operationID uuid.UUID) (*shared.OperationEvent, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*shared.OperationEvent, error)
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
	ListByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*shared.OperationEvent, error)
}

// ErrEventNotFound indicates a missing archived operation event
type ErrEventNotFound struct {
	OperationID uuid.UUID
}

func (e ErrEventNotFound) Error() string {
	return "archived operation event not found: " + e.OperationID.String()
}

// Is implements the errors.Is interface for ErrEventNotFound
func (e ErrEventNotFound) Is(target error) bool {
	t, ok := target.(ErrEventNotFound)
	if !ok {
		return false
	}
	if t.OperationID == uuid.Nil {
		return true
	}
	return e.OperationID == t.OperationID
}

// ErrDuplicateEvent indicates the event was already archived. The stream is
// at-least-once, so consumers treat this as success.
type ErrDuplicateEvent struct {
	OperationID uuid.UUID
}

func (e ErrDuplicateEvent) Error() string {
	return "operation event already archived: " + e.OperationID.String()
}

// Is implements the errors.Is interface for ErrDuplicateEvent
func (e ErrDuplicateEvent) Is(target error) bool {
	t, ok := target.(ErrDuplicateEvent)
	if !ok {
		return false
	}
	if t.OperationID == uuid.Nil {
		return true
	}
	return e.OperationID == t.OperationID
}
