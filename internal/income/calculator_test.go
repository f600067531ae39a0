package income

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestMonthlyIncome(t *testing.T) {
	rate := d("1.5")

	t.Run("FullMonth", func(t *testing.T) {
		// 10000 held from day 1, 30-day month
		checkpoints := []Checkpoint{{Day: 1, Balance: d("10000")}}

		income, balance := MonthlyIncome(checkpoints, rate, 30)

		assert.True(t, income.Equal(d("150")), "expected 150, got %s", income)
		assert.True(t, balance.Equal(d("10150")), "expected 10150, got %s", balance)
	})

	t.Run("CarryInWithMidMonthDeposit", func(t *testing.T) {
		// carry-in 10000 on day 1, deposit of 1000 on day 17
		// (16*10000 + 14*11000) / 30 * 1.5 / 100
		checkpoints := []Checkpoint{
			{Day: 1, Balance: d("10000")},
			{Day: 17, Balance: d("11000")},
		}

		income, balance := MonthlyIncome(checkpoints, rate, 30)

		assert.True(t, income.Equal(d("157")), "expected 157, got %s", income)
		assert.True(t, balance.Equal(d("11157")), "expected 11157, got %s", balance)
	})

	t.Run("OpenedMidMonth", func(t *testing.T) {
		// first deposit on day 17 earns 14 days including the last day
		checkpoints := []Checkpoint{{Day: 17, Balance: d("10000")}}

		income, _ := MonthlyIncome(checkpoints, rate, 30)

		assert.True(t, income.Equal(d("70")), "expected 70, got %s", income)
	})

	t.Run("LastDayDeposit", func(t *testing.T) {
		// a single day still accrues, a full month would pay 150
		checkpoints := []Checkpoint{{Day: 30, Balance: d("10000")}}

		income, _ := MonthlyIncome(checkpoints, rate, 30)

		assert.True(t, income.Equal(d("5")), "expected 5, got %s", income)
	})

	t.Run("MidMonthWithdraw", func(t *testing.T) {
		// 10000 on day 1, 7000 withdrawn on day 17
		checkpoints := []Checkpoint{
			{Day: 1, Balance: d("10000")},
			{Day: 17, Balance: d("3000")},
		}

		income, balance := MonthlyIncome(checkpoints, rate, 30)

		assert.True(t, income.Equal(d("101")), "expected 101, got %s", income)
		assert.True(t, balance.Equal(d("3101")), "expected 3101, got %s", balance)
	})

	t.Run("MultipleMovements", func(t *testing.T) {
		// 10000 day 1, 11000 day 10, 8000 day 20
		// (9*10000 + 10*11000 + 11*8000) / 30 * 1.5 / 100 = 144.00
		checkpoints := []Checkpoint{
			{Day: 1, Balance: d("10000")},
			{Day: 10, Balance: d("11000")},
			{Day: 20, Balance: d("8000")},
		}

		income, balance := MonthlyIncome(checkpoints, rate, 30)

		assert.True(t, income.Equal(d("144")), "expected 144, got %s", income)
		assert.True(t, balance.Equal(d("8144")), "expected 8144, got %s", balance)
	})

	t.Run("NoCheckpoints", func(t *testing.T) {
		income, balance := MonthlyIncome(nil, rate, 30)

		assert.True(t, income.IsZero())
		assert.True(t, balance.IsZero())
	})

	t.Run("ZeroBalanceSingleCheckpoint", func(t *testing.T) {
		// a closed out account accrues nothing
		checkpoints := []Checkpoint{{Day: 1, Balance: d("0")}}

		income, balance := MonthlyIncome(checkpoints, rate, 30)

		assert.True(t, income.IsZero())
		assert.True(t, balance.IsZero())
	})

	t.Run("HalfEvenRounding", func(t *testing.T) {
		// 25 held for 10 of 30 days at 1.5% accrues exactly 0.125
		checkpoints := []Checkpoint{{Day: 21, Balance: d("25")}}

		income, _ := MonthlyIncome(checkpoints, rate, 30)

		assert.True(t, income.Equal(d("0.12")), "expected 0.12, got %s", income)
	})

	t.Run("FebruaryMonthLength", func(t *testing.T) {
		checkpoints := []Checkpoint{{Day: 1, Balance: d("10000")}}

		income, _ := MonthlyIncome(checkpoints, rate, 28)

		assert.True(t, income.Equal(d("150")), "expected 150, got %s", income)
	})
}
