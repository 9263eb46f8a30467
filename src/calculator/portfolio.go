package calculator

import (
	"context"
	"fmt"

	"github.com/username/investbot/src/models"
	"github.com/username/investbot/src/utils"
)

// PortfolioInfo lists currently held positions, one entry per position, in
// the order the brokerage returns them. CurrentTotal values the position at
// its average purchase price plus expected yield, rounded to 2 decimals.
func (c *Calculator) PortfolioInfo(ctx context.Context) ([]models.PortfolioEntry, error) {
	positions, err := c.client.Portfolio(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading portfolio: %w", err)
	}

	entries := make([]models.PortfolioEntry, 0, len(positions))
	for _, position := range positions {
		var avgPrice float64
		var currency models.Currency
		if position.AveragePositionPrice != nil {
			avgPrice = position.AveragePositionPrice.Value
			currency = position.AveragePositionPrice.Currency
		}
		var expectedYield float64
		if position.ExpectedYield != nil {
			expectedYield = position.ExpectedYield.Value
		}

		name, err := c.instrumentLabel(ctx, position.FIGI)
		if err != nil {
			return nil, err
		}

		entries = append(entries, models.PortfolioEntry{
			Ticker:       position.Ticker,
			Name:         name,
			Currency:     currency,
			CurrentTotal: utils.RoundFloat(avgPrice*position.Balance+expectedYield, 2),
			Lots:         position.Balance,
			AvgPrice:     avgPrice,
		})
	}
	return entries, nil
}
