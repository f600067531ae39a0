package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/suportemr7bank/speedseven/internal/domain/account"
	"github.com/suportemr7bank/speedseven/internal/domain/application"
	"github.com/suportemr7bank/speedseven/internal/domain/income"
	"github.com/suportemr7bank/speedseven/internal/domain/ledger"
	"github.com/suportemr7bank/speedseven/internal/domain/transfer"
)

// AccountBalances carries the balance figures of one account: the wallet
// balance from the last movement operation and the withdrawable income
type AccountBalances struct {
	Balance       decimal.Decimal `json:"balance"`
	IncomeBalance decimal.Decimal `json:"income_balance"`
}

// AccountService defines the interface for application account operations
type AccountService interface {
	// CreateAccount opens a client account in an application. The product
	// policy decides the initial settings and the reported creation status.
	// Returns ErrApplicationNotFound if the application doesn't exist.
	CreateAccount(ctx context.Context, userID, applicationID, operatorID uuid.UUID) (*account.Account, error)

	// GetAccountByID retrieves an account by its ID
	// Returns ErrAccountNotFound if the account doesn't exist
	GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error)

	// ListAccountsByUser retrieves all accounts owned by a user
	ListAccountsByUser(ctx context.Context, userID uuid.UUID) ([]*account.Account, error)

	// GetStatement retrieves a paginated ledger statement for an account
	// Returns operations, total count of all operations, and any error
	GetStatement(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*ledger.Operation, int64, error)

	// GetBalances returns the wallet and income balances of one account
	GetBalances(ctx context.Context, accountID uuid.UUID) (*AccountBalances, error)

	// GetUserTotals returns balances summed over all accounts of a user
	GetUserTotals(ctx context.Context, userID uuid.UUID) (*AccountBalances, error)

	// CloseAccount withdraws the full balance and deactivates the account
	CloseAccount(ctx context.Context, accountID, operatorID uuid.UUID, description string) (*ledger.Operation, error)
}

// TransferService defines the interface for the money transfer workflow
type TransferService interface {
	// SubmitTransfer registers a transfer request in the CREATED state
	SubmitTransfer(ctx context.Context, accountID uuid.UUID, op ledger.OperationType, value decimal.Decimal, requesterID uuid.UUID) (*transfer.MoneyTransfer, error)

	// ApproveTransfer approves a pending request. Deposits execute now or
	// through a schedule depending on the product term; withdrawals deduct
	// funds immediately and wait for a receipt.
	ApproveTransfer(ctx context.Context, transferID, approverID uuid.UUID, receipt string) (*transfer.MoneyTransfer, error)

	// DisapproveTransfer rejects a pending request with no ledger effect
	DisapproveTransfer(ctx context.Context, transferID, approverID uuid.UUID, message string) (*transfer.MoneyTransfer, error)

	// CompleteTransfer finishes a transfer waiting on a schedule or receipt
	CompleteTransfer(ctx context.Context, transferID, processorID uuid.UUID, receipt string) (*transfer.MoneyTransfer, error)

	// GetTransferByID retrieves a transfer by its ID
	// Returns ErrTransferNotFound if the transfer doesn't exist
	GetTransferByID(ctx context.Context, transferID uuid.UUID) (*transfer.MoneyTransfer, error)

	// ListTransfersByAccount retrieves paginated transfers of an account
	ListTransfersByAccount(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*transfer.MoneyTransfer, error)
}

// IncomeService defines the interface for monthly income run requests
type IncomeService interface {
	// RequestRun registers an income run for an application month and hands
	// it to the worker. Returns the run in the WAITING state.
	RequestRun(ctx context.Context, applicationID uuid.UUID, year int, month time.Month, requesterID uuid.UUID) (*income.Operation, error)

	// GetRunByID retrieves an income run by its ID
	GetRunByID(ctx context.Context, id uuid.UUID) (*income.Operation, error)

	// ListRunsByApplication retrieves paginated runs of an application
	ListRunsByApplication(ctx context.Context, applicationID uuid.UUID, page, perPage int) ([]*income.Operation, error)
}

// ApplicationService defines the interface for product application management
type ApplicationService interface {
	// CreateApplication registers a product application with the product's
	// default settings
	CreateApplication(ctx context.Context, name, description string, productCode string, paidRate decimal.Decimal) (*application.Application, error)

	// GetApplicationByID retrieves an application by its ID
	GetApplicationByID(ctx context.Context, id uuid.UUID) (*application.Application, error)

	// ListApplications retrieves paginated applications
	ListApplications(ctx context.Context, page, perPage int) ([]*application.Application, error)

	// UpdateFundState moves a crowdfunding application's raise to a new
	// state. Returns ErrInvalidFundState on illegal moves.
	UpdateFundState(ctx context.Context, applicationID uuid.UUID, state string) error
}
