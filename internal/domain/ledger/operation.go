package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OperationType defines the ledger operation kinds
type OperationType string

const (
	OperationTypeOpen           OperationType = "OPEN"
	OperationTypeDeposit        OperationType = "DEPO"
	OperationTypeWithdrawWallet OperationType = "WWAL"
	OperationTypeWithdrawIncome OperationType = "WINC"
	OperationTypeIncome         OperationType = "INCO"
	OperationTypeClose          OperationType = "CLOS"
)

// IsWithdraw reports whether the type removes funds from the account
func (t OperationType) IsWithdraw() bool {
	return t == OperationTypeWithdrawWallet || t == OperationTypeWithdrawIncome
}

// Signed returns the value with the sign the type applies to the balance
func (t OperationType) Signed(value decimal.Decimal) decimal.Decimal {
	if t.IsWithdraw() {
		return value.Neg()
	}
	return value
}

// Operation is one immutable row of an account's ledger. Balance is the
// account balance after the operation; the ledger is append-only and a
// (account, operation_date) pair is unique.
type Operation struct {
	ID            uuid.UUID       `json:"id"`
	AccountID     uuid.UUID       `json:"account_id"`
	Type          OperationType   `json:"operation_type"`
	Value         decimal.Decimal `json:"value"`
	Balance       decimal.Decimal `json:"balance"`
	Description   string          `json:"description,omitempty"`
	OperationDate time.Time       `json:"operation_date"`
	OperatorID    uuid.UUID       `json:"operator_id"`
	TransferID    *uuid.UUID      `json:"transfer_id,omitempty"`
}
