package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/suportemr7bank/speedseven/internal/api_gateway/service"
	"github.com/suportemr7bank/speedseven/internal/domain/income"
)

type MockIncomeService struct {
	mock.Mock
}

var _ service.IncomeService = (*MockIncomeService)(nil)

func (m *MockIncomeService) RequestRun(ctx context.Context, applicationID uuid.UUID, year int, month time.Month, requesterID uuid.UUID) (*income.Operation, error) {
	args := m.Called(ctx, applicationID, year, month, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*income.Operation), args.Error(1)
}

func (m *MockIncomeService) GetRunByID(ctx context.Context, id uuid.UUID) (*income.Operation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*income.Operation), args.Error(1)
}

func (m *MockIncomeService) ListRunsByApplication(ctx context.Context, applicationID uuid.UUID, page, perPage int) ([]*income.Operation, error) {
	args := m.Called(ctx, applicationID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*income.Operation), args.Error(1)
}

func TestIncomeHandler_RequestRun(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("Accepted", func(t *testing.T) {
		mockService := new(MockIncomeService)
		handler := NewIncomeHandler(logger, mockService)

		applicationID := uuid.New()
		requesterID := uuid.New()
		run := &income.Operation{
			ID:            uuid.New(),
			ApplicationID: applicationID,
			Year:          2025,
			Month:         time.July,
			PaidRate:      decimal.NewFromFloat(1.5),
			State:         income.StateWaiting,
			RequesterID:   requesterID,
			CreatedAt:     time.Now(),
		}
		mockService.On("RequestRun", mock.Anything, applicationID, 2025, time.July, requesterID).
			Return(run, nil)

		router := setupTestRouter()
		router.POST("/applications/:id/income-runs", handler.RequestRun)

		reqBody := RequestIncomeRunRequest{Year: 2025, Month: 7, RequesterID: requesterID.String()}
		jsonBody, _ := json.Marshal(reqBody)
		req, _ := http.NewRequest(http.MethodPost, "/applications/"+applicationID.String()+"/income-runs", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusAccepted, rr.Code)

		var responseBody IncomeRunResponse
		decodeData(t, rr.Body.Bytes(), &responseBody)
		assert.Equal(t, run.ID.String(), responseBody.ID)
		assert.Equal(t, string(income.StateWaiting), responseBody.State)
		assert.Equal(t, 7, responseBody.Month)
		mockService.AssertExpectations(t)
	})

	t.Run("MonthNotClosed", func(t *testing.T) {
		mockService := new(MockIncomeService)
		handler := NewIncomeHandler(logger, mockService)

		applicationID := uuid.New()
		mockService.On("RequestRun", mock.Anything, applicationID, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, service.ErrRunMonthNotClosed)

		router := setupTestRouter()
		router.POST("/applications/:id/income-runs", handler.RequestRun)

		reqBody := RequestIncomeRunRequest{Year: 2099, Month: 12, RequesterID: uuid.New().String()}
		jsonBody, _ := json.Marshal(reqBody)
		req, _ := http.NewRequest(http.MethodPost, "/applications/"+applicationID.String()+"/income-runs", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("MonthNotNext", func(t *testing.T) {
		mockService := new(MockIncomeService)
		handler := NewIncomeHandler(logger, mockService)

		applicationID := uuid.New()
		mockService.On("RequestRun", mock.Anything, applicationID, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, service.ErrRunMonthNotNext)

		router := setupTestRouter()
		router.POST("/applications/:id/income-runs", handler.RequestRun)

		reqBody := RequestIncomeRunRequest{Year: 2025, Month: 3, RequesterID: uuid.New().String()}
		jsonBody, _ := json.Marshal(reqBody)
		req, _ := http.NewRequest(http.MethodPost, "/applications/"+applicationID.String()+"/income-runs", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("InvalidMonth", func(t *testing.T) {
		mockService := new(MockIncomeService)
		handler := NewIncomeHandler(logger, mockService)

		router := setupTestRouter()
		router.POST("/applications/:id/income-runs", handler.RequestRun)

		reqBody := RequestIncomeRunRequest{Year: 2025, Month: 13, RequesterID: uuid.New().String()}
		jsonBody, _ := json.Marshal(reqBody)
		req, _ := http.NewRequest(http.MethodPost, "/applications/"+uuid.New().String()+"/income-runs", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "RequestRun", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestIncomeHandler_GetByID(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("NotFound", func(t *testing.T) {
		mockService := new(MockIncomeService)
		handler := NewIncomeHandler(logger, mockService)

		runID := uuid.New()
		mockService.On("GetRunByID", mock.Anything, runID).
			Return(nil, income.ErrRunNotFound{RunID: runID})

		router := setupTestRouter()
		router.GET("/income-runs/:id", handler.GetByID)

		req, _ := http.NewRequest(http.MethodGet, "/income-runs/"+runID.String(), nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
