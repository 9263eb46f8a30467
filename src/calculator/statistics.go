package calculator

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/username/investbot/src/models"
	"github.com/username/investbot/src/utils"
)

const (
	successMarker = "✅"
	failureMarker = "❌"
)

// Section is one titled line of the statistics report.
type Section struct {
	Title string
	Value string
}

// Statistics renders the full report, in fixed section order.
func (c *Calculator) Statistics(ctx context.Context) ([]Section, error) {
	commissions, err := c.Commissions(ctx)
	if err != nil {
		return nil, err
	}
	serviceCommission, err := c.ServiceCommission(ctx)
	if err != nil {
		return nil, err
	}
	payIn, err := c.PayIn(ctx)
	if err != nil {
		return nil, err
	}
	payOut, err := c.PayOut(ctx)
	if err != nil {
		return nil, err
	}
	payTotal, err := c.PayTotal(ctx)
	if err != nil {
		return nil, err
	}
	operationsBalance, err := c.OperationsBalance(ctx)
	if err != nil {
		return nil, err
	}
	balance, err := c.Balance(ctx)
	if err != nil {
		return nil, err
	}
	profit, err := c.Profit(ctx)
	if err != nil {
		return nil, err
	}

	totalProfit := serviceCommission[c.defaultCurrency]
	for _, entry := range profit {
		totalProfit += entry.Value
	}

	return []Section{
		{Title: "Commissions and Taxes", Value: formatCurrencyMap(commissions)},
		{Title: "Service commissions", Value: formatCurrencyMap(serviceCommission)},
		{Title: "Pay In", Value: formatCurrencyMap(payIn)},
		{Title: "Pay Out", Value: formatCurrencyMap(payOut)},
		{Title: "Pay Total", Value: formatCurrencyMap(payTotal)},
		{Title: "Operations", Value: formatCurrencyMap(operationsBalance)},
		{Title: "Balance", Value: formatCurrencyMap(balance)},
		{Title: "Total Profit", Value: amountWithMarker(totalProfit)},
		{Title: "Detailed Profit", Value: formatProfitEntries(profit)},
	}, nil
}

// StatisticsText renders the report as one "title -> value" line per section.
func (c *Calculator) StatisticsText(ctx context.Context) (string, error) {
	sections, err := c.Statistics(ctx)
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(sections))
	for _, section := range sections {
		lines = append(lines, fmt.Sprintf("%s -> %s", section.Title, section.Value))
	}
	return strings.Join(lines, "\n"), nil
}

// formatCurrencyMap renders a per-currency sum as "CUR: value" pairs joined
// by "; ", with currencies in sorted order for stable output.
func formatCurrencyMap(totals map[models.Currency]float64) string {
	currencies := make([]string, 0, len(totals))
	for currency := range totals {
		currencies = append(currencies, string(currency))
	}
	sort.Strings(currencies)

	pairs := make([]string, 0, len(currencies))
	for _, currency := range currencies {
		pairs = append(pairs, fmt.Sprintf("%s: %s", currency, formatAmount(totals[models.Currency(currency)])))
	}
	return strings.Join(pairs, "; ")
}

func formatProfitEntries(entries []ProfitEntry) string {
	var b strings.Builder
	for _, entry := range entries {
		b.WriteString(fmt.Sprintf("%s: %s; ", entry.Label, amountWithMarker(entry.Value)))
	}
	return b.String()
}

// amountWithMarker rounds to 2 decimals and appends a success marker for
// non-negative values, a failure marker for negative ones.
func amountWithMarker(amount float64) string {
	marker := successMarker
	if amount < 0 {
		marker = failureMarker
	}
	return formatAmount(utils.RoundFloat(amount, 2)) + marker
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
