package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/suportemr7bank/speedseven/internal/api_gateway/service"
	"github.com/suportemr7bank/speedseven/internal/domain/application"
	"github.com/suportemr7bank/speedseven/internal/domain/income"
	"github.com/suportemr7bank/speedseven/internal/domain/ledger"
)

// IncomeHandler handles HTTP requests for monthly income runs
type IncomeHandler struct {
	incomeService service.IncomeService
	logger        *slog.Logger
}

// NewIncomeHandler creates a new income handler
func NewIncomeHandler(logger *slog.Logger, incomeService service.IncomeService) *IncomeHandler {
	return &IncomeHandler{
		incomeService: incomeService,
		logger:        logger,
	}
}

// RequestRun handles a request to run the income calculation for an
// application month. The run is executed asynchronously; the response is the
// run in the WAITING state.
func (h *IncomeHandler) RequestRun(c *gin.Context) {
	applicationID, ok := parseIDParam(c, "id", "Invalid application ID")
	if !ok {
		return
	}

	var req RequestIncomeRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	requesterID, _ := uuid.Parse(req.RequesterID)

	run, err := h.incomeService.RequestRun(c.Request.Context(), applicationID, req.Year, time.Month(req.Month), requesterID)
	if err != nil {
		var appNotFound application.ErrApplicationNotFound
		switch {
		case errors.As(err, &appNotFound):
			RespondNotFound(c, "Application not found")
		case errors.Is(err, ledger.ErrInactiveApplication):
			RespondBadRequest(c, "Application is not active")
		case errors.Is(err, service.ErrRunMonthNotClosed):
			RespondBadRequest(c, "Income run month has not ended yet")
		case errors.Is(err, service.ErrRunMonthNotNext):
			RespondConflict(c, "Income run month must follow the last executed month")
		default:
			h.logger.Error("Failed to request income run", "application_id", applicationID.String(), "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondAccepted(c, mapIncomeRunToResponse(run))
}

// GetByID retrieves an income run by its ID, returning 404 if not found
func (h *IncomeHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "Invalid income run ID")
	if !ok {
		return
	}

	run, err := h.incomeService.GetRunByID(c.Request.Context(), id)
	if err != nil {
		var notFound income.ErrRunNotFound
		if errors.As(err, &notFound) {
			RespondNotFound(c, "Income run not found")
			return
		}
		h.logger.Error("Failed to get income run", "id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapIncomeRunToResponse(run))
}

// ListByApplication retrieves paginated income runs of an application
func (h *IncomeHandler) ListByApplication(c *gin.Context) {
	applicationID, ok := parseIDParam(c, "id", "Invalid application ID")
	if !ok {
		return
	}

	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	runs, err := h.incomeService.ListRunsByApplication(c.Request.Context(), applicationID, params.Page, params.PerPage)
	if err != nil {
		h.logger.Error("Failed to list income runs", "application_id", applicationID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]IncomeRunResponse, 0, len(runs))
	for _, run := range runs {
		responses = append(responses, mapIncomeRunToResponse(run))
	}
	RespondOK(c, responses)
}

// mapIncomeRunToResponse maps an income run to a response DTO
func mapIncomeRunToResponse(run *income.Operation) IncomeRunResponse {
	resp := IncomeRunResponse{
		ID:            run.ID.String(),
		ApplicationID: run.ApplicationID.String(),
		Year:          run.Year,
		Month:         int(run.Month),
		PaidRate:      run.PaidRate.String(),
		State:         string(run.State),
		ErrorMessage:  run.ErrorMessage,
		CreatedAt:     run.CreatedAt.Format(time.RFC3339),
	}
	if run.StartedAt != nil {
		resp.StartedAt = run.StartedAt.Format(time.RFC3339)
	}
	if run.FinishedAt != nil {
		resp.FinishedAt = run.FinishedAt.Format(time.RFC3339)
	}
	return resp
}
