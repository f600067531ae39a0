package income

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/suportemr7bank/speedseven/internal/domain/account"
	"github.com/suportemr7bank/speedseven/internal/domain/ledger"
)

// Collector loads the per-account day checkpoints and rates an income run
// operates on
type Collector struct {
	accounts   account.Repository
	operations ledger.Repository
}

// NewCollector creates a checkpoint collector
func NewCollector(accounts account.Repository, operations ledger.Repository) *Collector {
	return &Collector{accounts: accounts, operations: operations}
}

// Checkpoints returns the day checkpoints of every active account of the
// application with activity relevant to the month. For accounts without a
// day-1 operation the previous month's income balance is carried in as a
// synthetic day-1 checkpoint, so a balance left untouched keeps accruing.
func (c *Collector) Checkpoints(ctx context.Context, applicationID uuid.UUID, year int, month time.Month) (map[uuid.UUID][]Checkpoint, error) {
	carryIns, err := c.operations.CarryInBalances(ctx, applicationID, year, int(month))
	if err != nil {
		return nil, fmt.Errorf("failed to load carry-in balances: %w", err)
	}

	monthBalances, err := c.operations.MonthDayBalances(ctx, applicationID, year, int(month))
	if err != nil {
		return nil, fmt.Errorf("failed to load month day balances: %w", err)
	}

	series := make(map[uuid.UUID][]Checkpoint)
	for _, db := range carryIns {
		series[db.AccountID] = append(series[db.AccountID], Checkpoint{Day: db.Day, Balance: db.Balance})
	}
	for _, db := range monthBalances {
		series[db.AccountID] = append(series[db.AccountID], Checkpoint{Day: db.Day, Balance: db.Balance})
	}

	for id := range series {
		sort.Slice(series[id], func(i, j int) bool {
			return series[id][i].Day < series[id][j].Day
		})
	}
	return series, nil
}

// Rates returns the income rate of every active account of the application.
// Accounts without a settings override earn the run's paid rate.
func (c *Collector) Rates(ctx context.Context, applicationID uuid.UUID, paidRate decimal.Decimal) (map[uuid.UUID]decimal.Decimal, error) {
	customRates, err := c.accounts.CustomRates(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load custom rates: %w", err)
	}

	rates := make(map[uuid.UUID]decimal.Decimal, len(customRates))
	for _, cr := range customRates {
		if cr.Rate != nil {
			rates[cr.AccountID] = *cr.Rate
		} else {
			rates[cr.AccountID] = paidRate
		}
	}
	return rates, nil
}
