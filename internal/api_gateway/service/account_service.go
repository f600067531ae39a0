package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/suportemr7bank/speedseven/internal/domain/account"
	"github.com/suportemr7bank/speedseven/internal/domain/application"
	"github.com/suportemr7bank/speedseven/internal/domain/ledger"
	"github.com/suportemr7bank/speedseven/internal/domain/policy"
	"github.com/suportemr7bank/speedseven/internal/ledgerops"
	"github.com/suportemr7bank/speedseven/internal/platform/persistence"
)

// AccountServiceImpl implements the AccountService interface
type AccountServiceImpl struct {
	db           *persistence.PostgresDB
	accountRepo  account.Repository
	appRepo      application.Repository
	settingsRepo policy.SettingsRepository
	ledgerRepo   ledger.Repository
	registry     *policy.Registry
	writer       *ledgerops.Writer
	logger       *slog.Logger
}

// NewAccountService creates a new account service
func NewAccountService(
	logger *slog.Logger,
	db *persistence.PostgresDB,
	accountRepo account.Repository,
	appRepo application.Repository,
	settingsRepo policy.SettingsRepository,
	ledgerRepo ledger.Repository,
	registry *policy.Registry,
	writer *ledgerops.Writer,
) AccountService {
	return &AccountServiceImpl{
		db:           db,
		accountRepo:  accountRepo,
		appRepo:      appRepo,
		settingsRepo: settingsRepo,
		ledgerRepo:   ledgerRepo,
		registry:     registry,
		writer:       writer,
		logger:       logger,
	}
}

// CreateAccount opens a client account in an application. The account row
// and the policy's initial settings are written in one transaction.
func (s *AccountServiceImpl) CreateAccount(ctx context.Context, userID, applicationID, operatorID uuid.UUID) (*account.Account, error) {
	app, err := s.appRepo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if !app.IsActive {
		return nil, ledger.ErrInactiveApplication
	}

	pol, err := s.registry.Get(app.ProductCode)
	if err != nil {
		return nil, err
	}

	acc := account.New(userID, applicationID, operatorID)
	acc.Status = pol.PostCreateState()

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.accountRepo.WithTx(tx).Create(ctx, acc); err != nil {
			return err
		}
		if settings := pol.NewAccountSettings(acc.ID); settings != nil {
			if err := s.settingsRepo.WithTx(tx).SaveAccountSettings(ctx, settings); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Account created",
		"account_id", acc.ID.String(),
		"application_id", applicationID.String(),
		"product_code", string(app.ProductCode),
		"creation_status", string(acc.Status),
	)
	return acc, nil
}

// GetAccountByID retrieves an account by its ID, returns ErrAccountNotFound if not found
func (s *AccountServiceImpl) GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return s.accountRepo.GetByID(ctx, id)
}

// ListAccountsByUser retrieves all accounts owned by a user
func (s *AccountServiceImpl) ListAccountsByUser(ctx context.Context, userID uuid.UUID) ([]*account.Account, error) {
	return s.accountRepo.ListByUser(ctx, userID)
}

// GetStatement retrieves a paginated ledger statement for an account
func (s *AccountServiceImpl) GetStatement(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*ledger.Operation, int64, error) {
	offset := (page - 1) * perPage

	ops, err := s.ledgerRepo.ListByAccount(ctx, accountID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.ledgerRepo.CountByAccount(ctx, accountID)
	if err != nil {
		return nil, 0, err
	}

	return ops, total, nil
}

// GetBalances returns the wallet and income balances of one account, both
// derived from the last ledger operations
func (s *AccountServiceImpl) GetBalances(ctx context.Context, accountID uuid.UUID) (*AccountBalances, error) {
	acc, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	last, err := s.ledgerRepo.Last(ctx, accountID)
	if err != nil {
		return nil, err
	}
	lastIncome, err := s.ledgerRepo.LastIncome(ctx, accountID)
	if err != nil {
		return nil, err
	}
	var lastWithdraw *ledger.Operation
	if lastIncome != nil {
		lastWithdraw, err = s.ledgerRepo.LastIncomeWithdrawAfter(ctx, accountID, lastIncome)
		if err != nil {
			return nil, err
		}
	}

	snapshot := ledgerops.Snapshot{
		Account:       acc,
		LastOp:        last,
		IncomeBalance: ledgerops.IncomeBalanceOf(lastIncome, lastWithdraw),
	}
	return &AccountBalances{
		Balance:       snapshot.Balance(),
		IncomeBalance: snapshot.IncomeBalance,
	}, nil
}

// GetUserTotals returns balances summed over all accounts of a user
func (s *AccountServiceImpl) GetUserTotals(ctx context.Context, userID uuid.UUID) (*AccountBalances, error) {
	balance, err := s.accountRepo.TotalBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	incomeBalance, err := s.accountRepo.TotalIncomeBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &AccountBalances{
		Balance:       balance,
		IncomeBalance: incomeBalance,
	}, nil
}

// CloseAccount withdraws the remaining balance and deactivates the account
func (s *AccountServiceImpl) CloseAccount(ctx context.Context, accountID, operatorID uuid.UUID, description string) (*ledger.Operation, error) {
	now := time.Now()
	return s.writer.CloseApplication(ctx, accountID, operatorID, description, &now)
}
