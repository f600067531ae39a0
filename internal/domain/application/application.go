package application

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/suportemr7bank/speedseven/internal/domain/policy"
)

// Application is an investment product instance clients open accounts
// against. The rate figures are monthly percentages; PaidRate is the default
// applied by the income run for accounts without a custom rate.
type Application struct {
	ID            uuid.UUID          `json:"id"`
	Name          string             `json:"name"`
	Description   string             `json:"description,omitempty"`
	ProductCode   policy.ProductCode `json:"product_code"`
	IsActive      bool               `json:"is_active"`
	MinRate       decimal.Decimal    `json:"min_rate"`
	MaxRate       decimal.Decimal    `json:"max_rate"`
	ExpectedRate  decimal.Decimal    `json:"expected_rate"`
	PaidRate      decimal.Decimal    `json:"paid_rate"`
	CreatedAt     time.Time          `json:"created_at"`
	DeactivatedAt *time.Time         `json:"deactivated_at,omitempty"`
}

// New creates an active application for the given product
func New(name string, code policy.ProductCode, paidRate decimal.Decimal) *Application {
	return &Application{
		ID:          uuid.New(),
		Name:        name,
		ProductCode: code,
		IsActive:    true,
		PaidRate:    paidRate,
		CreatedAt:   time.Now(),
	}
}

// Deactivate closes the application for new operations
func (a *Application) Deactivate(at time.Time) {
	a.IsActive = false
	a.DeactivatedAt = &at
}
