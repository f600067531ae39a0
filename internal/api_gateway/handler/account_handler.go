package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/suportemr7bank/speedseven/internal/api_gateway/service"
	"github.com/suportemr7bank/speedseven/internal/domain/account"
	"github.com/suportemr7bank/speedseven/internal/domain/application"
	"github.com/suportemr7bank/speedseven/internal/domain/ledger"
)

// AccountHandler handles HTTP requests for application accounts
type AccountHandler struct {
	accountService service.AccountService
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, accountService service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// Create handles opening a client account in an application
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	userID, _ := uuid.Parse(req.UserID)
	applicationID, _ := uuid.Parse(req.ApplicationID)
	operatorID, _ := uuid.Parse(req.OperatorID)

	acc, err := h.accountService.CreateAccount(c.Request.Context(), userID, applicationID, operatorID)
	if err != nil {
		var appNotFound application.ErrApplicationNotFound
		if errors.As(err, &appNotFound) {
			RespondNotFound(c, "Application not found")
			return
		}
		if errors.Is(err, ledger.ErrInactiveApplication) {
			RespondBadRequest(c, "Application is not active")
			return
		}
		h.logger.Error("Failed to create account", "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapAccountToResponse(acc))
}

// GetByID retrieves an account by its ID, returning 404 if not found
func (h *AccountHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "Invalid account ID")
	if !ok {
		return
	}

	acc, err := h.accountService.GetAccountByID(c.Request.Context(), id)
	if err != nil {
		var accNotFound account.ErrAccountNotFound
		if errors.As(err, &accNotFound) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to get account", "id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// ListByUser retrieves all accounts owned by a user
func (h *AccountHandler) ListByUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "user_id", "Invalid user ID")
	if !ok {
		return
	}

	accounts, err := h.accountService.ListAccountsByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list accounts", "user_id", userID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]AccountResponse, 0, len(accounts))
	for _, acc := range accounts {
		responses = append(responses, mapAccountToResponse(acc))
	}
	RespondOK(c, responses)
}

// GetStatement retrieves a paginated ledger statement for an account
func (h *AccountHandler) GetStatement(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "Invalid account ID")
	if !ok {
		return
	}

	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	ops, total, err := h.accountService.GetStatement(c.Request.Context(), id, params.Page, params.PerPage)
	if err != nil {
		h.logger.Error("Failed to get statement", "account_id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]OperationResponse, 0, len(ops))
	for _, op := range ops {
		responses = append(responses, mapOperationToResponse(op))
	}
	RespondWithPaginatedData(c, 200, responses, params.Page, params.PerPage, int(total))
}

// GetBalances returns the wallet and income balances of one account
func (h *AccountHandler) GetBalances(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "Invalid account ID")
	if !ok {
		return
	}

	balances, err := h.accountService.GetBalances(c.Request.Context(), id)
	if err != nil {
		var accNotFound account.ErrAccountNotFound
		if errors.As(err, &accNotFound) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to get balances", "account_id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, BalancesResponse{
		Balance:       balances.Balance.StringFixed(2),
		IncomeBalance: balances.IncomeBalance.StringFixed(2),
	})
}

// GetUserTotals returns balances summed over all accounts of a user
func (h *AccountHandler) GetUserTotals(c *gin.Context) {
	userID, ok := parseIDParam(c, "user_id", "Invalid user ID")
	if !ok {
		return
	}

	totals, err := h.accountService.GetUserTotals(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get user totals", "user_id", userID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, BalancesResponse{
		Balance:       totals.Balance.StringFixed(2),
		IncomeBalance: totals.IncomeBalance.StringFixed(2),
	})
}

// Close withdraws the remaining balance and deactivates the account
func (h *AccountHandler) Close(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "Invalid account ID")
	if !ok {
		return
	}

	var req CloseAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	operatorID, _ := uuid.Parse(req.OperatorID)

	op, err := h.accountService.CloseAccount(c.Request.Context(), id, operatorID, req.Description)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidApplication) {
			RespondNotFound(c, "Account not found")
			return
		}
		if errors.Is(err, ledger.ErrInactiveApplication) || errors.Is(err, account.ErrAlreadyClosed) {
			RespondBadRequest(c, "Account is not active")
			return
		}
		h.logger.Error("Failed to close account", "account_id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapOperationToResponse(op))
}

// parseIDParam parses a UUID path parameter, responding 400 on failure
func parseIDParam(c *gin.Context, name, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondBadRequest(c, message)
		return uuid.Nil, false
	}
	return id, true
}

// mapAccountToResponse maps an account entity to an account response DTO
func mapAccountToResponse(acc *account.Account) AccountResponse {
	resp := AccountResponse{
		ID:             acc.ID.String(),
		UserID:         acc.UserID.String(),
		ApplicationID:  acc.ApplicationID.String(),
		IsActive:       acc.IsActive,
		CreationStatus: string(acc.Status),
		Message:        acc.Message,
		CreatedAt:      acc.CreatedAt.Format(time.RFC3339),
	}
	if acc.ActivatedAt != nil {
		resp.ActivatedAt = acc.ActivatedAt.Format(time.RFC3339)
	}
	if acc.DeactivatedAt != nil {
		resp.DeactivatedAt = acc.DeactivatedAt.Format(time.RFC3339)
	}
	return resp
}

// mapOperationToResponse maps a ledger operation to a response DTO
func mapOperationToResponse(op *ledger.Operation) OperationResponse {
	resp := OperationResponse{
		ID:            op.ID.String(),
		AccountID:     op.AccountID.String(),
		OperationType: string(op.Type),
		Value:         op.Value.StringFixed(2),
		Balance:       op.Balance.StringFixed(2),
		Description:   op.Description,
		OperationDate: op.OperationDate.Format(time.RFC3339),
	}
	if op.TransferID != nil {
		resp.TransferID = op.TransferID.String()
	}
	return resp
}
