package income

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/suportemr7bank/speedseven/internal/domain/account"
	"github.com/suportemr7bank/speedseven/internal/domain/income"
	"github.com/suportemr7bank/speedseven/internal/domain/ledger"
	"github.com/suportemr7bank/speedseven/internal/platform/persistence"
)

// fakeTxRunner hands the callback a nil transaction so runs can execute
// against mocks without a database
type fakeTxRunner struct{}

var _ persistence.TxRunner = fakeTxRunner{}

func (fakeTxRunner) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type MockRunRepository struct {
	mock.Mock
}

var _ income.Repository = (*MockRunRepository)(nil)

func (m *MockRunRepository) Create(ctx context.Context, op *income.Operation) error {
	args := m.Called(ctx, op)
	return args.Error(0)
}

func (m *MockRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*income.Operation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*income.Operation), args.Error(1)
}

func (m *MockRunRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*income.Operation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*income.Operation), args.Error(1)
}

func (m *MockRunRepository) Update(ctx context.Context, op *income.Operation) error {
	args := m.Called(ctx, op)
	return args.Error(0)
}

func (m *MockRunRepository) Latest(ctx context.Context, applicationID uuid.UUID) (*income.Operation, error) {
	args := m.Called(ctx, applicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*income.Operation), args.Error(1)
}

func (m *MockRunRepository) ListByApplication(ctx context.Context, applicationID uuid.UUID, limit, offset int) ([]*income.Operation, error) {
	args := m.Called(ctx, applicationID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*income.Operation), args.Error(1)
}

func (m *MockRunRepository) WithTx(tx pgx.Tx) income.Repository {
	m.Called(tx)
	return m
}

type MockLedgerRepository struct {
	mock.Mock
}

var _ ledger.Repository = (*MockLedgerRepository)(nil)

func (m *MockLedgerRepository) Create(ctx context.Context, op *ledger.Operation) error {
	args := m.Called(ctx, op)
	return args.Error(0)
}

func (m *MockLedgerRepository) CreateBatch(ctx context.Context, ops []*ledger.Operation) error {
	args := m.Called(ctx, ops)
	return args.Error(0)
}

func (m *MockLedgerRepository) GetByID(ctx context.Context, id uuid.UUID) (*ledger.Operation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Operation), args.Error(1)
}

func (m *MockLedgerRepository) Last(ctx context.Context, accountID uuid.UUID) (*ledger.Operation, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Operation), args.Error(1)
}

func (m *MockLedgerRepository) LastIncome(ctx context.Context, accountID uuid.UUID) (*ledger.Operation, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Operation), args.Error(1)
}

func (m *MockLedgerRepository) LastIncomeWithdrawAfter(ctx context.Context, accountID uuid.UUID, after *ledger.Operation) (*ledger.Operation, error) {
	args := m.Called(ctx, accountID, after)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Operation), args.Error(1)
}

func (m *MockLedgerRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*ledger.Operation, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Operation), args.Error(1)
}

func (m *MockLedgerRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerRepository) MonthDayBalances(ctx context.Context, applicationID uuid.UUID, year int, month int) ([]ledger.DayBalance, error) {
	args := m.Called(ctx, applicationID, year, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.DayBalance), args.Error(1)
}

func (m *MockLedgerRepository) CarryInBalances(ctx context.Context, applicationID uuid.UUID, year int, month int) ([]ledger.DayBalance, error) {
	args := m.Called(ctx, applicationID, year, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.DayBalance), args.Error(1)
}

func (m *MockLedgerRepository) WithTx(tx pgx.Tx) ledger.Repository {
	m.Called(tx)
	return m
}

type MockAccountRepository struct {
	mock.Mock
}

var _ account.Repository = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) Create(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*account.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*account.Account), args.Error(1)
}

func (m *MockAccountRepository) Update(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockAccountRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) CustomRates(ctx context.Context, applicationID uuid.UUID) ([]account.CustomRate, error) {
	args := m.Called(ctx, applicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]account.CustomRate), args.Error(1)
}

func (m *MockAccountRepository) TotalBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockAccountRepository) TotalIncomeBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockAccountRepository) WithTx(tx pgx.Tx) account.Repository {
	m.Called(tx)
	return m
}

type runnerFixture struct {
	runner     *Runner
	runs       *MockRunRepository
	operations *MockLedgerRepository
	accounts   *MockAccountRepository
}

func newRunnerFixture(batchSize int) *runnerFixture {
	f := &runnerFixture{
		runs:       new(MockRunRepository),
		operations: new(MockLedgerRepository),
		accounts:   new(MockAccountRepository),
	}
	collector := NewCollector(f.accounts, f.operations)
	f.runner = NewRunner(fakeTxRunner{}, f.runs, f.operations, collector, batchSize, slog.Default())

	f.runs.On("WithTx", mock.Anything).Maybe()
	f.operations.On("WithTx", mock.Anything).Maybe()
	f.accounts.On("WithTx", mock.Anything).Maybe()
	return f
}

func TestRunner_Run(t *testing.T) {
	ctx := context.Background()
	requesterID := uuid.New()

	t.Run("CalculatesAndRecordsMonthlyIncome", func(t *testing.T) {
		f := newRunnerFixture(100)

		run := income.NewOperation(uuid.New(), 2025, time.August, decimal.NewFromInt(1), requesterID)
		accountID := uuid.New()

		f.runs.On("LockForUpdate", ctx, run.ID).Return(run, nil)
		f.runs.On("Update", ctx, run).Return(nil)
		f.operations.On("CarryInBalances", ctx, run.ApplicationID, 2025, 8).Return(nil, nil)
		f.operations.On("MonthDayBalances", ctx, run.ApplicationID, 2025, 8).Return([]ledger.DayBalance{
			{AccountID: accountID, Day: 1, Balance: decimal.NewFromInt(30000)},
		}, nil)
		f.accounts.On("CustomRates", ctx, run.ApplicationID).Return([]account.CustomRate{
			{AccountID: accountID},
		}, nil)

		var batch []*ledger.Operation
		f.operations.On("CreateBatch", ctx, mock.AnythingOfType("[]*ledger.Operation")).Run(func(args mock.Arguments) {
			batch = args.Get(1).([]*ledger.Operation)
		}).Return(nil)

		var messages []string
		err := f.runner.Run(ctx, run.ID, func(message string) {
			messages = append(messages, message)
		})

		require.NoError(t, err)
		assert.Equal(t, income.StateFinished, run.State)
		require.NotNil(t, run.StartedAt)
		require.NotNil(t, run.FinishedAt)

		// 30000 held all 31 days at 1% per month
		require.Len(t, batch, 1)
		op := batch[0]
		assert.Equal(t, accountID, op.AccountID)
		assert.Equal(t, ledger.OperationTypeIncome, op.Type)
		assert.True(t, op.Value.Equal(decimal.NewFromInt(300)), "value %s", op.Value)
		assert.True(t, op.Balance.Equal(decimal.NewFromInt(30300)), "balance %s", op.Balance)
		assert.Equal(t, run.ReferenceDate(), op.OperationDate)
		assert.Equal(t, requesterID, op.OperatorID)

		assert.Contains(t, messages, "calculating income")
		assert.Contains(t, messages, "recording operations: 100%")
	})

	t.Run("SplitsLedgerInsertsIntoBatches", func(t *testing.T) {
		f := newRunnerFixture(2)

		run := income.NewOperation(uuid.New(), 2025, time.June, decimal.NewFromInt(1), requesterID)
		balances := make([]ledger.DayBalance, 0, 3)
		rates := make([]account.CustomRate, 0, 3)
		for i := 0; i < 3; i++ {
			id := uuid.New()
			balances = append(balances, ledger.DayBalance{AccountID: id, Day: 1, Balance: decimal.NewFromInt(60000)})
			rates = append(rates, account.CustomRate{AccountID: id})
		}

		f.runs.On("LockForUpdate", ctx, run.ID).Return(run, nil)
		f.runs.On("Update", ctx, run).Return(nil)
		f.operations.On("CarryInBalances", ctx, run.ApplicationID, 2025, 6).Return(nil, nil)
		f.operations.On("MonthDayBalances", ctx, run.ApplicationID, 2025, 6).Return(balances, nil)
		f.accounts.On("CustomRates", ctx, run.ApplicationID).Return(rates, nil)

		var batchSizes []int
		f.operations.On("CreateBatch", ctx, mock.AnythingOfType("[]*ledger.Operation")).Run(func(args mock.Arguments) {
			batchSizes = append(batchSizes, len(args.Get(1).([]*ledger.Operation)))
		}).Return(nil)

		var messages []string
		err := f.runner.Run(ctx, run.ID, func(message string) {
			messages = append(messages, message)
		})

		require.NoError(t, err)
		assert.Equal(t, income.StateFinished, run.State)
		assert.Equal(t, []int{2, 1}, batchSizes)
		assert.Contains(t, messages, "recording operations: 66.67%")
		assert.Contains(t, messages, "recording operations: 100.00%")
	})

	t.Run("NonWaitingRunIsSkipped", func(t *testing.T) {
		f := newRunnerFixture(100)

		run := income.NewOperation(uuid.New(), 2025, time.July, decimal.NewFromInt(1), requesterID)
		run.State = income.StateRunning
		f.runs.On("LockForUpdate", ctx, run.ID).Return(run, nil)

		err := f.runner.Run(ctx, run.ID, func(string) {})

		require.NoError(t, err)
		assert.Equal(t, income.StateRunning, run.State)
		f.runs.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		f.operations.AssertNotCalled(t, "MonthDayBalances", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.operations.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	})

	t.Run("CollectFailureMarksRunErrored", func(t *testing.T) {
		f := newRunnerFixture(100)

		run := income.NewOperation(uuid.New(), 2025, time.July, decimal.NewFromInt(1), requesterID)
		f.runs.On("LockForUpdate", ctx, run.ID).Return(run, nil)
		f.runs.On("Update", ctx, run).Return(nil)
		f.operations.On("CarryInBalances", ctx, run.ApplicationID, 2025, 7).Return(nil, errors.New("query timeout"))

		err := f.runner.Run(ctx, run.ID, func(string) {})

		require.Error(t, err)
		assert.ErrorContains(t, err, "query timeout")
		assert.Equal(t, income.StateError, run.State)
		assert.NotEmpty(t, run.ErrorMessage)
		require.NotNil(t, run.FinishedAt)
		f.operations.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	})

	t.Run("BatchInsertFailureMarksRunErrored", func(t *testing.T) {
		f := newRunnerFixture(100)

		run := income.NewOperation(uuid.New(), 2025, time.July, decimal.NewFromInt(1), requesterID)
		accountID := uuid.New()

		f.runs.On("LockForUpdate", ctx, run.ID).Return(run, nil)
		f.runs.On("Update", ctx, run).Return(nil)
		f.operations.On("CarryInBalances", ctx, run.ApplicationID, 2025, 7).Return(nil, nil)
		f.operations.On("MonthDayBalances", ctx, run.ApplicationID, 2025, 7).Return([]ledger.DayBalance{
			{AccountID: accountID, Day: 1, Balance: decimal.NewFromInt(30000)},
		}, nil)
		f.accounts.On("CustomRates", ctx, run.ApplicationID).Return([]account.CustomRate{
			{AccountID: accountID},
		}, nil)
		f.operations.On("CreateBatch", ctx, mock.AnythingOfType("[]*ledger.Operation")).Return(errors.New("insert failed"))

		err := f.runner.Run(ctx, run.ID, func(string) {})

		require.Error(t, err)
		assert.ErrorContains(t, err, "insert failed")
		assert.Equal(t, income.StateError, run.State)
		assert.NotEmpty(t, run.ErrorMessage)
	})

	t.Run("MonthWithoutActivityFinishesWithoutInserts", func(t *testing.T) {
		f := newRunnerFixture(100)

		run := income.NewOperation(uuid.New(), 2025, time.July, decimal.NewFromInt(1), requesterID)
		f.runs.On("LockForUpdate", ctx, run.ID).Return(run, nil)
		f.runs.On("Update", ctx, run).Return(nil)
		f.operations.On("CarryInBalances", ctx, run.ApplicationID, 2025, 7).Return(nil, nil)
		f.operations.On("MonthDayBalances", ctx, run.ApplicationID, 2025, 7).Return(nil, nil)
		f.accounts.On("CustomRates", ctx, run.ApplicationID).Return([]account.CustomRate{}, nil)

		var messages []string
		err := f.runner.Run(ctx, run.ID, func(message string) {
			messages = append(messages, message)
		})

		require.NoError(t, err)
		assert.Equal(t, income.StateFinished, run.State)
		assert.Contains(t, messages, "recording operations: 100%")
		f.operations.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	})
}
