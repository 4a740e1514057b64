package checkout

import (
	"fmt"

	"github.com/angelmondragon/foodstore/pkg/backend"
	"github.com/angelmondragon/foodstore/pkg/config"
	pkgerrors "github.com/angelmondragon/foodstore/pkg/errors"
	"github.com/shopspring/decimal"
)

// Converter turns a display-currency cart total into the settlement amount
// sent to the payment gateway.
type Converter struct {
	rate               decimal.Decimal
	scale              int32
	displayCurrency    string
	settlementCurrency string
}

// NewConverter builds a converter from the checkout configuration.
func NewConverter(cfg config.CheckoutConfig) (Converter, error) {
	rate := cfg.Rate()
	if !rate.IsPositive() {
		return Converter{}, fmt.Errorf("exchange rate must be positive")
	}
	if cfg.SettlementScale < 0 {
		return Converter{}, fmt.Errorf("settlement scale must not be negative")
	}
	return Converter{
		rate:               rate,
		scale:              cfg.SettlementScale,
		displayCurrency:    cfg.DisplayCurrency,
		settlementCurrency: cfg.SettlementCurrency,
	}, nil
}

// CartTotal sums unit price times quantity across the lines.
func CartTotal(lines []backend.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// Settle divides the total by the rate and rounds to the settlement minor unit.
// Non-positive totals, and totals that round to zero, are rejected.
func (c Converter) Settle(total decimal.Decimal) (decimal.Decimal, error) {
	if !total.IsPositive() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "cart total must be greater than zero").
			WithDetails(map[string]any{"total": total.String()})
	}
	amount := total.DivRound(c.rate, c.scale)
	if !amount.IsPositive() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "payment amount rounds to zero").
			WithDetails(map[string]any{"total": total.String(), "rate": c.rate.String()})
	}
	return amount, nil
}
