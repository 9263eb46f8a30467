package calculator

import (
	"context"
	"fmt"

	"github.com/username/investbot/src/models"
)

// ProfitEntry is one labelled line of the profit report.
type ProfitEntry struct {
	Label string
	Value float64
}

// Profit computes realized profit in the default currency. The result always
// starts with "dividend" and "coupon" entries, followed by one entry per
// instrument whose position is fully closed, carrying the accumulated trade
// cash flow (payments plus commissions). Instruments still held are excluded:
// their gain is unrealized.
func (c *Calculator) Profit(ctx context.Context) ([]ProfitEntry, error) {
	dividend, err := c.DividendTotal(ctx)
	if err != nil {
		return nil, err
	}
	coupon, err := c.CouponTotal(ctx)
	if err != nil {
		return nil, err
	}

	profit := []ProfitEntry{
		{Label: "dividend", Value: dividend},
		{Label: "coupon", Value: coupon},
	}

	operations, err := c.Operations(ctx)
	if err != nil {
		return nil, err
	}

	// Accumulate trade cash flow per FIGI, preserving first-seen order.
	figiTotals := make(map[string]float64)
	var figiOrder []string
	for _, op := range operations {
		if !isTradeOperation(op.OperationType) {
			continue
		}
		if op.Currency != c.defaultCurrency || op.InstrumentType == models.InstrumentTypeCurrency {
			continue
		}
		if op.Payment == 0 {
			continue
		}
		if _, seen := figiTotals[op.FIGI]; !seen {
			figiOrder = append(figiOrder, op.FIGI)
		}
		figiTotals[op.FIGI] += op.Payment + op.CommissionValue()
	}

	if len(figiOrder) == 0 {
		return profit, nil
	}

	positions, err := c.client.Portfolio(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading portfolio: %w", err)
	}
	held := make(map[string]bool, len(positions))
	for _, position := range positions {
		held[position.FIGI] = true
	}

	for _, figi := range figiOrder {
		if held[figi] {
			continue
		}
		label, err := c.instrumentLabel(ctx, figi)
		if err != nil {
			return nil, err
		}
		profit = append(profit, ProfitEntry{Label: label, Value: figiTotals[figi]})
	}

	return profit, nil
}

func isTradeOperation(opType models.OperationType) bool {
	for _, t := range tradeOperationTypes {
		if opType == t {
			return true
		}
	}
	return false
}

// instrumentLabel resolves a FIGI to its human-readable display label.
func (c *Calculator) instrumentLabel(ctx context.Context, figi string) (string, error) {
	instrument, err := c.client.InstrumentByFIGI(ctx, figi)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s - %s (%s)", instrument.Ticker, instrument.Name, figi), nil
}
