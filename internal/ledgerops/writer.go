package ledgerops

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/suportemr7bank/speedseven/internal/domain/account"
	"github.com/suportemr7bank/speedseven/internal/domain/ledger"
	"github.com/suportemr7bank/speedseven/internal/domain/outbox"
	"github.com/suportemr7bank/speedseven/internal/domain/shared"
	"github.com/suportemr7bank/speedseven/internal/platform/persistence"
)

// OperationParams describes one requested ledger operation
type OperationParams struct {
	AccountID     uuid.UUID
	OperatorID    uuid.UUID
	Value         decimal.Decimal
	Description   string
	OperationDate *time.Time
	TransferID    *uuid.UUID
	CorrelationID string
}

// Writer appends operations to account ledgers. Every write locks the
// account row first, so validation, balance derivation and the insert are
// serialized per account, and stores the operation event in the outbox
// within the same transaction.
type Writer struct {
	db         persistence.TxRunner
	accounts   account.Repository
	operations ledger.Repository
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

// NewWriter creates a ledger writer
func NewWriter(
	db persistence.TxRunner,
	accounts account.Repository,
	operations ledger.Repository,
	outboxRepo outbox.Repository,
	logger *slog.Logger,
) *Writer {
	return &Writer{
		db:         db,
		accounts:   accounts,
		operations: operations,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// MakeDeposit validates and appends a deposit in its own transaction
func (w *Writer) MakeDeposit(ctx context.Context, p OperationParams) (*ledger.Operation, error) {
	var op *ledger.Operation
	err := w.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var txErr error
		op, txErr = w.MakeDepositTx(ctx, tx, p)
		return txErr
	})
	return op, err
}

// MakeDepositTx validates and appends a deposit inside the caller's
// transaction. The first deposit of an account is written as an OPEN
// operation and activates the account.
func (w *Writer) MakeDepositTx(ctx context.Context, tx pgx.Tx, p OperationParams) (*ledger.Operation, error) {
	accounts := w.accounts.WithTx(tx)
	operations := w.operations.WithTx(tx)

	acc, lastOp, err := w.lockAccount(ctx, accounts, operations, p.AccountID)
	if err != nil {
		return nil, err
	}

	snapshot := Snapshot{Account: acc, LastOp: lastOp}
	if err := ValidateDeposit(snapshot, p.Value, p.OperationDate); err != nil {
		return nil, err
	}

	operationDate := operationDateOrNow(p.OperationDate)

	opType := ledger.OperationTypeDeposit
	balance := p.Value
	if lastOp != nil {
		balance = lastOp.Balance.Add(p.Value)
	} else {
		opType = ledger.OperationTypeOpen
		acc.Activate(operationDate)
		if err := accounts.Update(ctx, acc); err != nil {
			return nil, fmt.Errorf("failed to activate account: %w", err)
		}
	}

	return w.append(ctx, tx, acc, opType, balance, operationDate, p)
}

// MakeWithdraw validates and appends a withdraw in its own transaction
func (w *Writer) MakeWithdraw(ctx context.Context, opType ledger.OperationType, p OperationParams) (*ledger.Operation, error) {
	var op *ledger.Operation
	err := w.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var txErr error
		op, txErr = w.MakeWithdrawTx(ctx, tx, opType, p)
		return txErr
	})
	return op, err
}

// MakeWithdrawTx validates and appends a withdraw inside the caller's
// transaction
func (w *Writer) MakeWithdrawTx(ctx context.Context, tx pgx.Tx, opType ledger.OperationType, p OperationParams) (*ledger.Operation, error) {
	if !opType.IsWithdraw() {
		return nil, fmt.Errorf("operation type %s is not a withdraw", opType)
	}

	accounts := w.accounts.WithTx(tx)
	operations := w.operations.WithTx(tx)

	acc, lastOp, err := w.lockAccount(ctx, accounts, operations, p.AccountID)
	if err != nil {
		return nil, err
	}

	snapshot := Snapshot{Account: acc, LastOp: lastOp}
	if lastOp != nil {
		snapshot.IncomeBalance, err = w.incomeBalance(ctx, operations, p.AccountID)
		if err != nil {
			return nil, err
		}
	}

	if err := ValidateWithdraw(snapshot, p.Value, opType, p.OperationDate); err != nil {
		return nil, err
	}

	operationDate := operationDateOrNow(p.OperationDate)
	balance := lastOp.Balance.Sub(p.Value)

	return w.append(ctx, tx, acc, opType, balance, operationDate, p)
}

// CloseApplication withdraws the remaining balance, appends a CLOSE
// operation with zero value and balance, and deactivates the account. An
// account with an empty ledger is only deactivated.
func (w *Writer) CloseApplication(ctx context.Context, accountID, operatorID uuid.UUID, description string, operationDate *time.Time) (*ledger.Operation, error) {
	var closeOp *ledger.Operation
	err := w.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		accounts := w.accounts.WithTx(tx)
		operations := w.operations.WithTx(tx)

		acc, lastOp, err := w.lockAccount(ctx, accounts, operations, accountID)
		if err != nil {
			return err
		}
		if !acc.IsActive {
			return ledger.ErrInactiveApplication
		}

		withdrawDate := operationDateOrNow(operationDate)
		closeDate := withdrawDate

		if lastOp != nil {
			if lastOp.Balance.GreaterThan(decimal.Zero) {
				p := OperationParams{
					AccountID:     accountID,
					OperatorID:    operatorID,
					Value:         lastOp.Balance,
					Description:   description,
					OperationDate: &withdrawDate,
				}
				if _, err := w.append(ctx, tx, acc, ledger.OperationTypeWithdrawWallet, decimal.Zero, withdrawDate, p); err != nil {
					return err
				}
				// keep the (account, operation_date) pair unique
				closeDate = withdrawDate.Add(time.Second)
			}

			p := OperationParams{
				AccountID:   accountID,
				OperatorID:  operatorID,
				Description: description,
			}
			closeOp, err = w.append(ctx, tx, acc, ledger.OperationTypeClose, decimal.Zero, closeDate, p)
			if err != nil {
				return err
			}
		}

		acc.Deactivate(closeDate)
		return accounts.Update(ctx, acc)
	})
	return closeOp, err
}

// MakeIncomeDeposit appends an INCOME operation without validation. The
// income run computes values and balances itself and writes them in batch.
func (w *Writer) MakeIncomeDeposit(ctx context.Context, tx pgx.Tx, p OperationParams, balance decimal.Decimal) (*ledger.Operation, error) {
	operations := w.operations.WithTx(tx)

	op := &ledger.Operation{
		ID:            uuid.New(),
		AccountID:     p.AccountID,
		Type:          ledger.OperationTypeIncome,
		Value:         p.Value,
		Balance:       balance,
		Description:   p.Description,
		OperationDate: operationDateOrNow(p.OperationDate),
		OperatorID:    p.OperatorID,
	}
	if err := operations.Create(ctx, op); err != nil {
		return nil, err
	}
	return op, nil
}

func (w *Writer) lockAccount(ctx context.Context, accounts account.Repository, operations ledger.Repository, accountID uuid.UUID) (*account.Account, *ledger.Operation, error) {
	acc, err := accounts.LockForUpdate(ctx, accountID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			return nil, nil, ledger.ErrInvalidApplication
		}
		return nil, nil, fmt.Errorf("failed to lock account: %w", err)
	}

	lastOp, err := operations.Last(ctx, accountID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read last operation: %w", err)
	}
	return acc, lastOp, nil
}

func (w *Writer) incomeBalance(ctx context.Context, operations ledger.Repository, accountID uuid.UUID) (decimal.Decimal, error) {
	lastIncome, err := operations.LastIncome(ctx, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read last income operation: %w", err)
	}
	if lastIncome == nil {
		return decimal.Zero, nil
	}

	lastWithdraw, err := operations.LastIncomeWithdrawAfter(ctx, accountID, lastIncome)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read last income withdraw: %w", err)
	}
	return IncomeBalanceOf(lastIncome, lastWithdraw), nil
}

func (w *Writer) append(ctx context.Context, tx pgx.Tx, acc *account.Account, opType ledger.OperationType,
	balance decimal.Decimal, operationDate time.Time, p OperationParams) (*ledger.Operation, error) {

	operations := w.operations.WithTx(tx)
	outboxRepo := w.outboxRepo.WithTx(tx)

	op := &ledger.Operation{
		ID:            uuid.New(),
		AccountID:     acc.ID,
		Type:          opType,
		Value:         p.Value,
		Balance:       balance,
		Description:   p.Description,
		OperationDate: operationDate,
		OperatorID:    p.OperatorID,
		TransferID:    p.TransferID,
	}

	if err := operations.Create(ctx, op); err != nil {
		return nil, fmt.Errorf("failed to create ledger operation: %w", err)
	}

	event := &shared.OperationEvent{
		OperationID:   op.ID,
		AccountID:     op.AccountID,
		TransferID:    op.TransferID,
		OperationType: string(op.Type),
		Value:         op.Value,
		Balance:       op.Balance,
		OperationDate: op.OperationDate,
		CorrelationID: p.CorrelationID,
	}
	msg, err := outbox.NewMessage(event)
	if err != nil {
		return nil, fmt.Errorf("failed to build outbox message: %w", err)
	}
	if err := outboxRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to store outbox message: %w", err)
	}

	w.logger.InfoContext(ctx, "ledger operation appended",
		"account_id", acc.ID,
		"operation_id", op.ID,
		"operation_type", op.Type,
		"balance", op.Balance,
	)
	return op, nil
}

func operationDateOrNow(t *time.Time) time.Time {
	if t != nil {
		return *t
	}
	return time.Now()
}
