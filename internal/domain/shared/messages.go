package shared

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IncomeRunRequest defines a Kafka message asking the worker to execute a
// monthly income calculation
type IncomeRunRequest struct {
	IncomeOperationID uuid.UUID `json:"income_operation_id"`
	ApplicationID     uuid.UUID `json:"application_id"`
	CorrelationID     string    `json:"correlation_id"`
	Timestamp         time.Time `json:"timestamp"`
}

// OperationEvent is published for every ledger operation committed to the
// primary store. It feeds the operation archive and any other listeners.
type OperationEvent struct {
	OperationID   uuid.UUID       `json:"operation_id" bson:"operation_id"`
	AccountID     uuid.UUID       `json:"account_id" bson:"account_id"`
	TransferID    *uuid.UUID      `json:"transfer_id,omitempty" bson:"transfer_id,omitempty"`
	OperationType string          `json:"operation_type" bson:"operation_type"`
	Value         decimal.Decimal `json:"value" bson:"value"`
	Balance       decimal.Decimal `json:"balance" bson:"balance"`
	OperationDate time.Time       `json:"operation_date" bson:"operation_date"`
	CorrelationID string          `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
}

// ProgressMessage reports income calculation progress to listening clients
type ProgressMessage struct {
	IncomeOperationID uuid.UUID `json:"income_operation_id"`
	Message           string    `json:"message"`
	Timestamp         time.Time `json:"timestamp"`
}
