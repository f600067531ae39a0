package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/suportemr7bank/speedseven/internal/api_gateway/service"
	"github.com/suportemr7bank/speedseven/internal/domain/application"
	"github.com/suportemr7bank/speedseven/internal/domain/policy"
)

// ApplicationHandler handles HTTP requests for product applications
type ApplicationHandler struct {
	applicationService service.ApplicationService
	logger             *slog.Logger
}

// NewApplicationHandler creates a new application handler
func NewApplicationHandler(logger *slog.Logger, applicationService service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{
		applicationService: applicationService,
		logger:             logger,
	}
}

// Create handles registration of a product application
func (h *ApplicationHandler) Create(c *gin.Context) {
	var req CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	paidRate, err := decimal.NewFromString(req.PaidRate)
	if err != nil {
		RespondBadRequest(c, "Invalid paid rate: "+req.PaidRate)
		return
	}

	app, err := h.applicationService.CreateApplication(c.Request.Context(), req.Name, req.Description, req.ProductCode, paidRate)
	if err != nil {
		var unknownProduct policy.ErrUnknownProduct
		if errors.As(err, &unknownProduct) {
			RespondBadRequest(c, "Unknown product code")
			return
		}
		h.logger.Error("Failed to create application", "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapApplicationToResponse(app))
}

// GetByID retrieves an application by its ID, returning 404 if not found
func (h *ApplicationHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "Invalid application ID")
	if !ok {
		return
	}

	app, err := h.applicationService.GetApplicationByID(c.Request.Context(), id)
	if err != nil {
		var notFound application.ErrApplicationNotFound
		if errors.As(err, &notFound) {
			RespondNotFound(c, "Application not found")
			return
		}
		h.logger.Error("Failed to get application", "id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapApplicationToResponse(app))
}

// List retrieves paginated applications
func (h *ApplicationHandler) List(c *gin.Context) {
	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	apps, err := h.applicationService.ListApplications(c.Request.Context(), params.Page, params.PerPage)
	if err != nil {
		h.logger.Error("Failed to list applications", "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]ApplicationResponse, 0, len(apps))
	for _, app := range apps {
		responses = append(responses, mapApplicationToResponse(app))
	}
	RespondOK(c, responses)
}

// UpdateFundState moves a crowdfunding application's raise to a new state
func (h *ApplicationHandler) UpdateFundState(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "Invalid application ID")
	if !ok {
		return
	}

	var req UpdateFundStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.applicationService.UpdateFundState(c.Request.Context(), id, req.State); err != nil {
		var notFound application.ErrApplicationNotFound
		switch {
		case errors.As(err, &notFound):
			RespondNotFound(c, "Application not found")
		case errors.Is(err, service.ErrInvalidFundState):
			RespondConflict(c, "Fund state change is not allowed")
		default:
			h.logger.Error("Failed to update fund state", "id", id.String(), "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondNoContent(c)
}

// mapApplicationToResponse maps an application to a response DTO
func mapApplicationToResponse(app *application.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:          app.ID.String(),
		Name:        app.Name,
		Description: app.Description,
		ProductCode: string(app.ProductCode),
		IsActive:    app.IsActive,
		PaidRate:    app.PaidRate.String(),
		CreatedAt:   app.CreatedAt.Format(time.RFC3339),
	}
}
