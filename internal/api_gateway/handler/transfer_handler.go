package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/suportemr7bank/speedseven/internal/api_gateway/service"
	"github.com/suportemr7bank/speedseven/internal/domain/ledger"
	"github.com/suportemr7bank/speedseven/internal/domain/transfer"
	"github.com/suportemr7bank/speedseven/internal/transfers"
)

// TransferHandler handles HTTP requests for the money transfer workflow
type TransferHandler struct {
	transferService service.TransferService
	logger          *slog.Logger
}

// NewTransferHandler creates a new transfer handler
func NewTransferHandler(logger *slog.Logger, transferService service.TransferService) *TransferHandler {
	return &TransferHandler{
		transferService: transferService,
		logger:          logger,
	}
}

// Submit handles registration of a transfer request
func (h *TransferHandler) Submit(c *gin.Context) {
	var req SubmitTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	value, err := decimal.NewFromString(req.Value)
	if err != nil {
		RespondBadRequest(c, "Invalid value: "+req.Value)
		return
	}
	accountID, _ := uuid.Parse(req.AccountID)
	requesterID, _ := uuid.Parse(req.RequesterID)

	t, err := h.transferService.SubmitTransfer(c.Request.Context(), accountID, ledger.OperationType(req.Operation), value, requesterID)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInvalidApplication):
			RespondNotFound(c, "Account not found")
		case errors.Is(err, ledger.ErrInactiveApplication):
			RespondBadRequest(c, "Account is not active")
		case errors.Is(err, ledger.ErrDepositValue), errors.Is(err, ledger.ErrWithdrawValue):
			RespondBadRequest(c, "Transfer value must be greater than zero")
		case errors.Is(err, transfers.ErrUnsupportedOperation):
			RespondBadRequest(c, "Unsupported transfer operation")
		default:
			h.logger.Error("Failed to submit transfer", "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondCreated(c, mapTransferToResponse(t))
}

// Approve handles operator approval of a pending transfer
func (h *TransferHandler) Approve(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "Invalid transfer ID")
	if !ok {
		return
	}

	var req ApproveTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	approverID, _ := uuid.Parse(req.ApproverID)

	t, err := h.transferService.ApproveTransfer(c.Request.Context(), id, approverID, req.Receipt)
	if err != nil {
		h.respondWorkflowError(c, id, "approve", err)
		return
	}

	RespondOK(c, mapTransferToResponse(t))
}

// Disapprove handles operator rejection of a pending transfer
func (h *TransferHandler) Disapprove(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "Invalid transfer ID")
	if !ok {
		return
	}

	var req DisapproveTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	approverID, _ := uuid.Parse(req.ApproverID)

	t, err := h.transferService.DisapproveTransfer(c.Request.Context(), id, approverID, req.Message)
	if err != nil {
		h.respondWorkflowError(c, id, "disapprove", err)
		return
	}

	RespondOK(c, mapTransferToResponse(t))
}

// Complete handles the final step of a transfer waiting on a receipt
func (h *TransferHandler) Complete(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "Invalid transfer ID")
	if !ok {
		return
	}

	var req CompleteTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	processorID, _ := uuid.Parse(req.ProcessorID)

	t, err := h.transferService.CompleteTransfer(c.Request.Context(), id, processorID, req.Receipt)
	if err != nil {
		h.respondWorkflowError(c, id, "complete", err)
		return
	}

	RespondOK(c, mapTransferToResponse(t))
}

// GetByID retrieves a transfer by its ID, returning 404 if not found
func (h *TransferHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "Invalid transfer ID")
	if !ok {
		return
	}

	t, err := h.transferService.GetTransferByID(c.Request.Context(), id)
	if err != nil {
		var notFound transfer.ErrTransferNotFound
		if errors.As(err, &notFound) {
			RespondNotFound(c, "Transfer not found")
			return
		}
		h.logger.Error("Failed to get transfer", "id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapTransferToResponse(t))
}

// ListByAccount retrieves paginated transfers of an account
func (h *TransferHandler) ListByAccount(c *gin.Context) {
	accountID, ok := parseIDParam(c, "id", "Invalid account ID")
	if !ok {
		return
	}

	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	ts, err := h.transferService.ListTransfersByAccount(c.Request.Context(), accountID, params.Page, params.PerPage)
	if err != nil {
		h.logger.Error("Failed to list transfers", "account_id", accountID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]TransferResponse, 0, len(ts))
	for _, t := range ts {
		responses = append(responses, mapTransferToResponse(t))
	}
	RespondOK(c, responses)
}

// respondWorkflowError maps transfer workflow failures to HTTP responses
func (h *TransferHandler) respondWorkflowError(c *gin.Context, id uuid.UUID, action string, err error) {
	var notFound transfer.ErrTransferNotFound
	var badTransition transfer.ErrInvalidTransition
	switch {
	case errors.As(err, &notFound):
		RespondNotFound(c, "Transfer not found")
	case errors.As(err, &badTransition):
		RespondConflict(c, "Transfer state does not allow this action")
	case errors.Is(err, ledger.ErrNotEnoughBalance):
		RespondBadRequest(c, "Not enough balance")
	case errors.Is(err, ledger.ErrInactiveApplication):
		RespondBadRequest(c, "Account is not active")
	default:
		h.logger.Error("Transfer action failed", "id", id.String(), "action", action, "error", err)
		RespondInternalError(c)
	}
}

// mapTransferToResponse maps a money transfer to a response DTO
func mapTransferToResponse(t *transfer.MoneyTransfer) TransferResponse {
	resp := TransferResponse{
		ID:             t.ID.String(),
		AccountID:      t.AccountID.String(),
		Operation:      string(t.Operation),
		State:          string(t.State),
		Value:          t.Value.StringFixed(2),
		Receipt:        t.Receipt,
		DisplayMessage: t.DisplayMessage,
		CreatedAt:      t.CreatedAt.Format(time.RFC3339),
	}
	if t.ApprovedAt != nil {
		resp.ApprovedAt = t.ApprovedAt.Format(time.RFC3339)
	}
	if t.FinishedAt != nil {
		resp.FinishedAt = t.FinishedAt.Format(time.RFC3339)
	}
	return resp
}
