package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/suportemr7bank/speedseven/internal/domain/ledger"
	"github.com/suportemr7bank/speedseven/internal/domain/transfer"
	"github.com/suportemr7bank/speedseven/internal/transfers"
)

// TransferServiceImpl implements the TransferService interface by delegating
// to the transfer workflow service
type TransferServiceImpl struct {
	workflow     *transfers.Service
	transferRepo transfer.Repository
}

// NewTransferService creates a new transfer service
func NewTransferService(workflow *transfers.Service, transferRepo transfer.Repository) TransferService {
	return &TransferServiceImpl{
		workflow:     workflow,
		transferRepo: transferRepo,
	}
}

// SubmitTransfer registers a transfer request in the CREATED state
func (s *TransferServiceImpl) SubmitTransfer(ctx context.Context, accountID uuid.UUID, op ledger.OperationType, value decimal.Decimal, requesterID uuid.UUID) (*transfer.MoneyTransfer, error) {
	return s.workflow.Submit(ctx, accountID, op, value, requesterID)
}

// ApproveTransfer approves a pending transfer request
func (s *TransferServiceImpl) ApproveTransfer(ctx context.Context, transferID, approverID uuid.UUID, receipt string) (*transfer.MoneyTransfer, error) {
	return s.workflow.Approve(ctx, transferID, approverID, receipt)
}

// DisapproveTransfer rejects a pending transfer request
func (s *TransferServiceImpl) DisapproveTransfer(ctx context.Context, transferID, approverID uuid.UUID, message string) (*transfer.MoneyTransfer, error) {
	return s.workflow.Disapprove(ctx, transferID, approverID, message)
}

// CompleteTransfer finishes a transfer waiting on a schedule or receipt
func (s *TransferServiceImpl) CompleteTransfer(ctx context.Context, transferID, processorID uuid.UUID, receipt string) (*transfer.MoneyTransfer, error) {
	return s.workflow.Complete(ctx, transferID, processorID, receipt)
}

// GetTransferByID retrieves a transfer by its ID
func (s *TransferServiceImpl) GetTransferByID(ctx context.Context, transferID uuid.UUID) (*transfer.MoneyTransfer, error) {
	return s.transferRepo.GetByID(ctx, transferID)
}

// ListTransfersByAccount retrieves paginated transfers of an account
func (s *TransferServiceImpl) ListTransfersByAccount(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*transfer.MoneyTransfer, error) {
	offset := (page - 1) * perPage
	return s.transferRepo.ListByAccount(ctx, accountID, perPage, offset)
}
