package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/suportemr7bank/speedseven/internal/domain/application"
	"github.com/suportemr7bank/speedseven/internal/domain/policy"
	"github.com/suportemr7bank/speedseven/internal/platform/persistence"
)

// ErrInvalidFundState rejects fund state changes outside the raise lifecycle
var ErrInvalidFundState = errors.New("invalid fund state change")

// fundTransitions lists the legal raise moves: a fund opens for deposits
// once and then either completes or is cancelled
var fundTransitions = map[policy.FundState][]policy.FundState{
	policy.FundOpen:        {policy.FundOpenDeposit, policy.FundCancelled},
	policy.FundOpenDeposit: {policy.FundCompleted, policy.FundCancelled},
}

// ApplicationServiceImpl implements the ApplicationService interface
type ApplicationServiceImpl struct {
	db           *persistence.PostgresDB
	appRepo      application.Repository
	settingsRepo policy.SettingsRepository
	registry     *policy.Registry
	logger       *slog.Logger
}

// NewApplicationService creates a new application service
func NewApplicationService(
	logger *slog.Logger,
	db *persistence.PostgresDB,
	appRepo application.Repository,
	settingsRepo policy.SettingsRepository,
	registry *policy.Registry,
) ApplicationService {
	return &ApplicationServiceImpl{
		db:           db,
		appRepo:      appRepo,
		settingsRepo: settingsRepo,
		registry:     registry,
		logger:       logger,
	}
}

// CreateApplication registers a product application together with the
// product's default settings, in one transaction
func (s *ApplicationServiceImpl) CreateApplication(ctx context.Context, name, description string, productCode string, paidRate decimal.Decimal) (*application.Application, error) {
	pol, err := s.registry.Get(policy.ProductCode(productCode))
	if err != nil {
		return nil, err
	}

	app := application.New(name, pol.Code(), paidRate)
	app.Description = description

	settings := pol.DefaultSettings()
	settings.ApplicationID = app.ID

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.appRepo.WithTx(tx).Create(ctx, app); err != nil {
			return err
		}
		return s.settingsRepo.WithTx(tx).SaveApplicationSettings(ctx, settings)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Application created",
		"application_id", app.ID.String(),
		"product_code", string(app.ProductCode),
		"name", name,
	)
	return app, nil
}

// GetApplicationByID retrieves an application by its ID
func (s *ApplicationServiceImpl) GetApplicationByID(ctx context.Context, id uuid.UUID) (*application.Application, error) {
	return s.appRepo.GetByID(ctx, id)
}

// ListApplications retrieves paginated applications
func (s *ApplicationServiceImpl) ListApplications(ctx context.Context, page, perPage int) ([]*application.Application, error) {
	offset := (page - 1) * perPage
	return s.appRepo.List(ctx, perPage, offset)
}

// UpdateFundState moves a crowdfunding raise to a new state after checking
// the move is legal
func (s *ApplicationServiceImpl) UpdateFundState(ctx context.Context, applicationID uuid.UUID, state string) error {
	target := policy.FundState(state)
	switch target {
	case policy.FundOpen, policy.FundOpenDeposit, policy.FundCompleted, policy.FundCancelled:
	default:
		return ErrInvalidFundState
	}

	app, err := s.appRepo.GetByID(ctx, applicationID)
	if err != nil {
		return err
	}
	if app.ProductCode != policy.ProductCrowdfunding {
		return ErrInvalidFundState
	}

	settings, err := s.settingsRepo.GetApplicationSettings(ctx, applicationID)
	if err != nil {
		return err
	}

	allowed := false
	for _, next := range fundTransitions[settings.FundState] {
		if next == target {
			allowed = true
			break
		}
	}
	if !allowed {
		return ErrInvalidFundState
	}

	settings.FundState = target
	if err := s.settingsRepo.SaveApplicationSettings(ctx, settings); err != nil {
		return err
	}

	s.logger.Info("Fund state updated",
		"application_id", applicationID.String(),
		"fund_state", string(target),
	)
	return nil
}
