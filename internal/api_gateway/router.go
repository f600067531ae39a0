package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/suportemr7bank/speedseven/internal/api_gateway/handler"
	"github.com/suportemr7bank/speedseven/internal/api_gateway/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	accountHandler *handler.AccountHandler,
	transferHandler *handler.TransferHandler,
	incomeHandler *handler.IncomeHandler,
	applicationHandler *handler.ApplicationHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Application account operations
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", accountHandler.Create)
			accounts.GET("/:id", accountHandler.GetByID)
			accounts.GET("/:id/statement", accountHandler.GetStatement)
			accounts.GET("/:id/balances", accountHandler.GetBalances)
			accounts.POST("/:id/close", accountHandler.Close)
			accounts.GET("/:id/transfers", transferHandler.ListByAccount)
		}

		// Per-user aggregations
		users := v1.Group("/users")
		{
			users.GET("/:user_id/accounts", accountHandler.ListByUser)
			users.GET("/:user_id/balances", accountHandler.GetUserTotals)
		}

		// Money transfer workflow
		transfers := v1.Group("/transfers")
		{
			transfers.POST("", transferHandler.Submit)
			transfers.GET("/:id", transferHandler.GetByID)
			transfers.POST("/:id/approve", transferHandler.Approve)
			transfers.POST("/:id/disapprove", transferHandler.Disapprove)
			transfers.POST("/:id/complete", transferHandler.Complete)
		}

		// Product applications and income runs
		applications := v1.Group("/applications")
		{
			applications.POST("", applicationHandler.Create)
			applications.GET("", applicationHandler.List)
			applications.GET("/:id", applicationHandler.GetByID)
			applications.PUT("/:id/fund-state", applicationHandler.UpdateFundState)
			applications.POST("/:id/income-runs", incomeHandler.RequestRun)
			applications.GET("/:id/income-runs", incomeHandler.ListByApplication)
		}

		incomeRuns := v1.Group("/income-runs")
		{
			incomeRuns.GET("/:id", incomeHandler.GetByID)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
