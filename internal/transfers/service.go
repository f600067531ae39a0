// Package transfers implements the money transfer approval workflow: client
// requests are reviewed by an operator, approved deposits execute
// immediately or through a schedule, and approved withdrawals deduct funds
// right away while waiting for a settlement receipt.
package transfers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/suportemr7bank/speedseven/internal/domain/account"
	"github.com/suportemr7bank/speedseven/internal/domain/application"
	"github.com/suportemr7bank/speedseven/internal/domain/ledger"
	"github.com/suportemr7bank/speedseven/internal/domain/policy"
	"github.com/suportemr7bank/speedseven/internal/domain/transfer"
	"github.com/suportemr7bank/speedseven/internal/ledgerops"
	"github.com/suportemr7bank/speedseven/internal/platform/persistence"
)

// ErrUnsupportedOperation rejects transfer requests with an operation type
// outside DEPOSIT, WITHDRAW_WALLET and WITHDRAW_INCOME
var ErrUnsupportedOperation = errors.New("operation type is not supported for money transfers")

// Service drives money transfers through their state machine
type Service struct {
	db           persistence.TxRunner
	writer       *ledgerops.Writer
	transfers    transfer.Repository
	schedules    transfer.ScheduleRepository
	accounts     account.Repository
	operations   ledger.Repository
	applications application.Repository
	settings     policy.SettingsRepository
	fundDeposits policy.FundDepositRepository
	registry     *policy.Registry
	maxTrials    int
	logger       *slog.Logger
}

// NewService creates a transfer service. maxTrials bounds how often a
// failing schedule is retried before the transfer moves to ERROR.
func NewService(
	db persistence.TxRunner,
	writer *ledgerops.Writer,
	transfers transfer.Repository,
	schedules transfer.ScheduleRepository,
	accounts account.Repository,
	operations ledger.Repository,
	applications application.Repository,
	settings policy.SettingsRepository,
	fundDeposits policy.FundDepositRepository,
	registry *policy.Registry,
	maxTrials int,
	logger *slog.Logger,
) *Service {
	return &Service{
		db:           db,
		writer:       writer,
		transfers:    transfers,
		schedules:    schedules,
		accounts:     accounts,
		operations:   operations,
		applications: applications,
		settings:     settings,
		fundDeposits: fundDeposits,
		registry:     registry,
		maxTrials:    maxTrials,
		logger:       logger,
	}
}

// Submit registers a transfer request in the CREATED state. Validation here
// is a preview; the authoritative checks run again under lock at approval
// and execution time.
func (s *Service) Submit(ctx context.Context, accountID uuid.UUID, op ledger.OperationType, value decimal.Decimal, requesterID uuid.UUID) (*transfer.MoneyTransfer, error) {
	if op != ledger.OperationTypeDeposit && !op.IsWithdraw() {
		return nil, ErrUnsupportedOperation
	}

	acc, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			return nil, ledger.ErrInvalidApplication
		}
		return nil, err
	}
	if !acc.IsActive {
		return nil, ledger.ErrInactiveApplication
	}
	if value.LessThanOrEqual(decimal.Zero) {
		if op.IsWithdraw() {
			return nil, ledger.ErrWithdrawValue
		}
		return nil, ledger.ErrDepositValue
	}

	t := transfer.New(accountID, op, value, requesterID)
	if err := s.transfers.Create(ctx, t); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "money transfer submitted",
		"transfer_id", t.ID,
		"account_id", accountID,
		"operation", op,
	)
	return t, nil
}

// Approve accepts a CREATED transfer. Deposits with a policy term are
// deferred through a schedule; deposits without one execute immediately.
// Withdrawals deduct funds right away and wait for their settlement receipt.
func (s *Service) Approve(ctx context.Context, transferID, approverID uuid.UUID, receipt string) (*transfer.MoneyTransfer, error) {
	var result *transfer.MoneyTransfer
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		transfers := s.transfers.WithTx(tx)

		t, err := transfers.LockForUpdate(ctx, transferID)
		if err != nil {
			return err
		}

		env, err := s.loadEnvironment(ctx, tx, t.AccountID)
		if err != nil {
			return err
		}

		now := time.Now()
		t.ApproverID = &approverID
		t.ApprovedAt = &now
		t.Receipt = receipt

		if t.IsDeposit() {
			err = s.approveDeposit(ctx, tx, t, env, now)
		} else {
			err = s.approveWithdraw(ctx, tx, t, env, now)
		}
		if err != nil {
			return err
		}

		if err := transfers.Update(ctx, t); err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "money transfer approved",
		"transfer_id", result.ID,
		"state", result.State,
	)
	return result, nil
}

// Disapprove rejects a CREATED transfer with no ledger effect
func (s *Service) Disapprove(ctx context.Context, transferID, approverID uuid.UUID, message string) (*transfer.MoneyTransfer, error) {
	var result *transfer.MoneyTransfer
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		transfers := s.transfers.WithTx(tx)

		t, err := transfers.LockForUpdate(ctx, transferID)
		if err != nil {
			return err
		}
		if err := t.Apply(transfer.EventDisapprove); err != nil {
			return err
		}

		now := time.Now()
		t.ApproverID = &approverID
		t.ErrorMessage = message
		t.FinishedAt = &now

		if err := transfers.Update(ctx, t); err != nil {
			return err
		}
		result = t
		return nil
	})
	return result, err
}

// Complete settles a WAITING_RECEIPT withdraw once its receipt arrives, or
// advances a WAITING_OP deposit ahead of its schedule by executing the
// deferred ledger operation now. Either way the transfer and its schedule
// finish together.
func (s *Service) Complete(ctx context.Context, transferID, processorID uuid.UUID, receipt string) (*transfer.MoneyTransfer, error) {
	var result *transfer.MoneyTransfer
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		transfers := s.transfers.WithTx(tx)
		schedules := s.schedules.WithTx(tx)

		t, err := transfers.LockForUpdate(ctx, transferID)
		if err != nil {
			return err
		}

		// a deposit still waiting on its schedule has no ledger operation
		// yet; advancing it must write the deposit before it can finish
		if t.State == transfer.StateWaitingOp && t.IsDeposit() {
			_, err := s.writer.MakeDepositTx(ctx, tx, ledgerops.OperationParams{
				AccountID:   t.AccountID,
				OperatorID:  processorID,
				Value:       t.Value,
				Description: t.DisplayMessage,
				TransferID:  &t.ID,
			})
			if err != nil {
				return err
			}
		}

		if err := t.Apply(transfer.EventComplete); err != nil {
			return err
		}

		now := time.Now()
		if receipt != "" {
			t.Receipt = receipt
		}
		t.FinishedAt = &now

		sched, err := schedules.GetByTransferID(ctx, transferID)
		if err != nil && !errors.Is(err, transfer.ErrScheduleNotFound{}) {
			return err
		}
		if sched != nil {
			sched.Finish(processorID, now)
			if err := schedules.Update(ctx, sched); err != nil {
				return err
			}
		}

		if err := transfers.Update(ctx, t); err != nil {
			return err
		}
		result = t
		return nil
	})
	return result, err
}

// ExecuteSchedule runs one due deposit schedule: the deferred ledger
// operation executes and the transfer finishes. A failed attempt spends one
// trial; after the last trial the transfer moves to ERROR.
func (s *Service) ExecuteSchedule(ctx context.Context, sched *transfer.Schedule, processorID uuid.UUID) error {
	return s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		transfers := s.transfers.WithTx(tx)
		schedules := s.schedules.WithTx(tx)

		t, err := transfers.LockForUpdate(ctx, sched.TransferID)
		if err != nil {
			return err
		}
		if t.State != transfer.StateWaitingOp {
			// settled by another path, retire the schedule
			now := time.Now()
			sched.Finish(processorID, now)
			return schedules.Update(ctx, sched)
		}

		now := time.Now()
		_, execErr := s.writer.MakeDepositTx(ctx, tx, ledgerops.OperationParams{
			AccountID:   t.AccountID,
			OperatorID:  processorID,
			Value:       t.Value,
			Description: t.DisplayMessage,
			TransferID:  &t.ID,
		})
		if execErr != nil {
			return s.failSchedule(ctx, sched, t, transfers, schedules, execErr)
		}

		if err := t.Apply(transfer.EventComplete); err != nil {
			return err
		}
		t.FinishedAt = &now
		sched.Finish(processorID, now)

		if err := schedules.Update(ctx, sched); err != nil {
			return err
		}
		return transfers.Update(ctx, t)
	})
}

// environment bundles the account, its application, settings and policy
type environment struct {
	account      *account.Account
	application  *application.Application
	appSettings  *policy.ApplicationSettings
	acctSettings *policy.AccountSettings
	policy       policy.Policy
	opCount      int64
}

func (s *Service) loadEnvironment(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (*environment, error) {
	accounts := s.accounts.WithTx(tx)
	operations := s.operations.WithTx(tx)
	applications := s.applications.WithTx(tx)
	settings := s.settings.WithTx(tx)

	acc, err := accounts.LockForUpdate(ctx, accountID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			return nil, ledger.ErrInvalidApplication
		}
		return nil, err
	}

	app, err := applications.GetByID(ctx, acc.ApplicationID)
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

	appSettings, err := settings.GetApplicationSettings(ctx, app.ID)
	if err != nil {
		if !errors.Is(err, policy.ErrSettingsNotFound{}) {
			return nil, err
		}
		appSettings = pol.DefaultSettings()
		appSettings.ApplicationID = app.ID
	}

	acctSettings, err := settings.GetAccountSettings(ctx, accountID)
	if err != nil {
		if !errors.Is(err, policy.ErrSettingsNotFound{}) {
			return nil, err
		}
		acctSettings = nil
	}

	opCount, err := operations.CountByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return &environment{
		account:      acc,
		application:  app,
		appSettings:  appSettings,
		acctSettings: acctSettings,
		policy:       pol,
		opCount:      opCount,
	}, nil
}

func (s *Service) approveDeposit(ctx context.Context, tx pgx.Tx, t *transfer.MoneyTransfer, env *environment, now time.Time) error {
	fundDeposits := s.fundDeposits.WithTx(tx)

	var existing *policy.FundDeposit
	if !env.policy.LedgerBacked() {
		fd, err := fundDeposits.GetByAccount(ctx, t.AccountID)
		if err != nil && !errors.Is(err, policy.ErrFundDepositNotFound{}) {
			return err
		}
		existing = fd
	}

	err := env.policy.ValidateDeposit(policy.DepositContext{
		Value:           t.Value,
		FirstOperation:  env.opCount == 0,
		App:             env.appSettings,
		Acct:            env.acctSettings,
		ExistingDeposit: existing,
	})
	if err != nil {
		return err
	}

	term := env.policy.DepositTermDays(env.appSettings, env.acctSettings)
	if term > 0 {
		if err := t.Apply(transfer.EventApproveDeferred); err != nil {
			return err
		}
		sched := transfer.NewSchedule(t.ID, now.AddDate(0, 0, term), s.maxTrials)
		return s.schedules.WithTx(tx).Create(ctx, sched)
	}

	if err := t.Apply(transfer.EventApproveImmediate); err != nil {
		return err
	}
	t.FinishedAt = &now

	if !env.policy.LedgerBacked() {
		return fundDeposits.Create(ctx, &policy.FundDeposit{
			ID:        uuid.New(),
			AccountID: t.AccountID,
			Value:     t.Value,
			CreatedAt: now,
		})
	}

	_, err = s.writer.MakeDepositTx(ctx, tx, ledgerops.OperationParams{
		AccountID:   t.AccountID,
		OperatorID:  *t.ApproverID,
		Value:       t.Value,
		Description: t.DisplayMessage,
		TransferID:  &t.ID,
	})
	return err
}

func (s *Service) approveWithdraw(ctx context.Context, tx pgx.Tx, t *transfer.MoneyTransfer, env *environment, now time.Time) error {
	err := env.policy.ValidateWithdraw(policy.WithdrawContext{
		Value:     t.Value,
		Operation: t.Operation,
		App:       env.appSettings,
		Acct:      env.acctSettings,
	})
	if err != nil {
		return err
	}

	if err := t.Apply(transfer.EventApproveWithdraw); err != nil {
		return err
	}

	// funds leave the ledger immediately, the transfer then waits for the
	// settlement receipt
	_, err = s.writer.MakeWithdrawTx(ctx, tx, t.Operation, ledgerops.OperationParams{
		AccountID:   t.AccountID,
		OperatorID:  *t.ApproverID,
		Value:       t.Value,
		Description: t.DisplayMessage,
		TransferID:  &t.ID,
	})
	if err != nil {
		return err
	}

	term := env.policy.WithdrawTermDays(env.appSettings, t.Operation, t.Value)
	sched := transfer.NewSchedule(t.ID, now.AddDate(0, 0, term), s.maxTrials)
	return s.schedules.WithTx(tx).Create(ctx, sched)
}

func (s *Service) failSchedule(ctx context.Context, sched *transfer.Schedule, t *transfer.MoneyTransfer,
	transfers transfer.Repository, schedules transfer.ScheduleRepository, cause error) error {

	sched.Fail(cause.Error())
	if err := schedules.Update(ctx, sched); err != nil {
		return err
	}

	if sched.State == transfer.ScheduleError {
		if err := t.Apply(transfer.EventScheduleFailed); err != nil {
			return err
		}
		now := time.Now()
		t.ErrorMessage = cause.Error()
		t.FinishedAt = &now
		if err := transfers.Update(ctx, t); err != nil {
			return err
		}
	}

	s.logger.WarnContext(ctx, "schedule execution failed",
		"schedule_id", sched.ID,
		"transfer_id", t.ID,
		"trial", sched.Trial,
		"error", cause,
	)
	return nil
}

// DueSchedules claims up to limit due schedules for execution
func (s *Service) DueSchedules(ctx context.Context, now time.Time, limit int) ([]*transfer.Schedule, error) {
	return s.schedules.ClaimDue(ctx, now, limit)
}
