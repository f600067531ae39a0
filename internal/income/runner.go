package income

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/suportemr7bank/speedseven/internal/domain/income"
	"github.com/suportemr7bank/speedseven/internal/domain/ledger"
	"github.com/suportemr7bank/speedseven/internal/platform/persistence"
)

// ProgressFunc receives human readable progress messages during a run
type ProgressFunc func(message string)

// Runner executes requested income runs. The run row is the concurrency
// guard: only a WAITING run can move to RUNNING, so redelivered run
// requests are dropped instead of crediting income twice.
type Runner struct {
	db         persistence.TxRunner
	runs       income.Repository
	operations ledger.Repository
	collector  *Collector
	batchSize  int
	logger     *slog.Logger
}

// NewRunner creates an income runner writing ledger batches of batchSize rows
func NewRunner(
	db persistence.TxRunner,
	runs income.Repository,
	operations ledger.Repository,
	collector *Collector,
	batchSize int,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		db:         db,
		runs:       runs,
		operations: operations,
		collector:  collector,
		batchSize:  batchSize,
		logger:     logger,
	}
}

// Run executes the income run with the given id. All generated ledger
// operations commit in a single transaction; on any failure none survive
// and the run is marked ERROR with the failure message.
func (r *Runner) Run(ctx context.Context, runID uuid.UUID, notify ProgressFunc) error {
	run, err := r.claim(ctx, runID)
	if err != nil {
		return err
	}
	if run == nil {
		// already running or finished, nothing to do
		return nil
	}

	if err := r.execute(ctx, run, notify); err != nil {
		r.fail(ctx, run, err)
		return ledger.IncomeCalculationError{
			Message: fmt.Sprintf("run %s for %d-%02d", run.ID, run.Year, run.Month),
			Err:     err,
		}
	}

	return r.finish(ctx, run)
}

// claim moves the run from WAITING to RUNNING, returning nil when another
// delivery already claimed it
func (r *Runner) claim(ctx context.Context, runID uuid.UUID) (*income.Operation, error) {
	var run *income.Operation
	err := r.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		runs := r.runs.WithTx(tx)
		locked, err := runs.LockForUpdate(ctx, runID)
		if err != nil {
			return err
		}
		if locked.State != income.StateWaiting {
			r.logger.WarnContext(ctx, "income run not claimable, skipping",
				"income_operation_id", locked.ID,
				"state", locked.State,
			)
			return nil
		}
		if err := locked.Start(time.Now()); err != nil {
			return err
		}
		if err := runs.Update(ctx, locked); err != nil {
			return err
		}
		run = locked
		return nil
	})
	return run, err
}

func (r *Runner) execute(ctx context.Context, run *income.Operation, notify ProgressFunc) error {
	notify("calculating income")

	checkpoints, err := r.collector.Checkpoints(ctx, run.ApplicationID, run.Year, run.Month)
	if err != nil {
		return err
	}
	rates, err := r.collector.Rates(ctx, run.ApplicationID, run.PaidRate)
	if err != nil {
		return err
	}

	ops := r.buildOperations(run, checkpoints, rates)
	if len(ops) == 0 {
		notify("recording operations: 100%")
		return nil
	}

	return r.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		operations := r.operations.WithTx(tx)

		recorded := 0
		for start := 0; start < len(ops); start += r.batchSize {
			end := start + r.batchSize
			if end > len(ops) {
				end = len(ops)
			}
			if err := operations.CreateBatch(ctx, ops[start:end]); err != nil {
				return err
			}
			recorded += end - start
			progress := float64(recorded) / float64(len(ops)) * 100
			notify(fmt.Sprintf("recording operations: %.2f%%", progress))
		}
		notify("recording operations: 100%")
		return nil
	})
}

func (r *Runner) buildOperations(run *income.Operation, checkpoints map[uuid.UUID][]Checkpoint, rates map[uuid.UUID]decimal.Decimal) []*ledger.Operation {
	accountIDs := make([]uuid.UUID, 0, len(checkpoints))
	for id := range checkpoints {
		accountIDs = append(accountIDs, id)
	}
	sort.Slice(accountIDs, func(i, j int) bool {
		return accountIDs[i].String() < accountIDs[j].String()
	})

	operationDate := run.ReferenceDate()
	monthDays := run.DaysInMonth()

	ops := make([]*ledger.Operation, 0, len(accountIDs))
	for _, accountID := range accountIDs {
		rate, ok := rates[accountID]
		if !ok {
			rate = run.PaidRate
		}

		value, balance := MonthlyIncome(checkpoints[accountID], rate, monthDays)
		if value.LessThanOrEqual(decimal.Zero) {
			continue
		}

		ops = append(ops, &ledger.Operation{
			ID:            uuid.New(),
			AccountID:     accountID,
			Type:          ledger.OperationTypeIncome,
			Value:         value,
			Balance:       balance,
			Description:   "Monthly income",
			OperationDate: operationDate,
			OperatorID:    run.RequesterID,
		})
	}
	return ops
}

func (r *Runner) finish(ctx context.Context, run *income.Operation) error {
	return r.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		run.Finish(time.Now())
		return r.runs.WithTx(tx).Update(ctx, run)
	})
}

func (r *Runner) fail(ctx context.Context, run *income.Operation, cause error) {
	err := r.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		run.Fail(time.Now(), cause.Error())
		return r.runs.WithTx(tx).Update(ctx, run)
	})
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to mark income run as errored",
			"income_operation_id", run.ID,
			"error", err,
		)
	}
}
