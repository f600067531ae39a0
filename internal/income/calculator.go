package income

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Checkpoint is an account balance at the end of one calendar day of the
// income month. Day 1 checkpoints may be carried in from the previous
// month's income operation.
type Checkpoint struct {
	Day     int
	Balance decimal.Decimal
}

// MonthlyIncome computes one account's income for a month from its day
// checkpoints and monthly rate percentage. Each balance earns the rate
// prorated by the number of days it was held; the last checkpoint earns
// through the end of the month inclusive, so a balance deposited on the
// last day still earns one day of rate.
//
// Returns the income and the resulting balance, both rounded to cents with
// half-even rounding. Fractions of a cent are not carried to the next month.
func MonthlyIncome(checkpoints []Checkpoint, rate decimal.Decimal, monthDays int) (decimal.Decimal, decimal.Decimal) {
	income := decimal.Zero
	balance := decimal.Zero
	count := len(checkpoints)

	days := decimal.NewFromInt(int64(monthDays))

	accrue := func(base decimal.Decimal, heldDays int) decimal.Decimal {
		propRate := rate.Mul(decimal.NewFromInt(int64(heldDays))).Div(days).Div(hundred)
		return base.Mul(propRate)
	}

	if count > 1 {
		for i := 1; i < count; i++ {
			held := checkpoints[i].Day - checkpoints[i-1].Day
			income = income.Add(accrue(checkpoints[i-1].Balance, held))
		}

		last := checkpoints[count-1]
		if held := monthDays - last.Day + 1; held >= 1 {
			income = income.Add(accrue(last.Balance, held))
		}
		balance = last.Balance

	} else if count == 1 {
		only := checkpoints[0]
		if only.Balance.GreaterThan(decimal.Zero) {
			held := monthDays - only.Day + 1
			income = income.Add(accrue(only.Balance, held))
			balance = only.Balance
		}
	}

	roundIncome := income.RoundBank(2)
	roundBalance := income.Add(balance).RoundBank(2)
	return roundIncome, roundBalance
}
