package calculator

import (
	"context"
	"fmt"
	"time"

	"github.com/username/investbot/src/models"
)

// BrokerageClient is the slice of the brokerage API the calculator needs.
type BrokerageClient interface {
	Operations(ctx context.Context, from, to time.Time) ([]models.Operation, error)
	Portfolio(ctx context.Context) ([]models.PortfolioPosition, error)
	InstrumentByFIGI(ctx context.Context, figi string) (models.Instrument, error)
}

// paymentFilter is a closed specification for selecting operations: an empty
// type set matches every operation type, an empty currency matches every
// currency.
type paymentFilter struct {
	types    []models.OperationType
	currency models.Currency
}

func (f paymentFilter) matches(op models.Operation) bool {
	if f.currency != "" && op.Currency != f.currency {
		return false
	}
	if len(f.types) == 0 {
		return true
	}
	for _, t := range f.types {
		if op.OperationType == t {
			return true
		}
	}
	return false
}

var (
	filterAll         = paymentFilter{}
	filterCommissions = paymentFilter{types: []models.OperationType{
		models.OperationTypeBrokerCommission,
		models.OperationTypeServiceCommission,
		models.OperationTypeTaxDividend,
		models.OperationTypeTaxCoupon,
	}}
	filterServiceCommission = paymentFilter{types: []models.OperationType{
		models.OperationTypeServiceCommission,
	}}
	filterPayIn    = paymentFilter{types: []models.OperationType{models.OperationTypePayIn}}
	filterPayOut   = paymentFilter{types: []models.OperationType{models.OperationTypePayOut}}
	filterPayTotal = paymentFilter{types: []models.OperationType{
		models.OperationTypePayIn,
		models.OperationTypePayOut,
	}}
)

var tradeOperationTypes = []models.OperationType{
	models.OperationTypeBuy,
	models.OperationTypeSell,
	models.OperationTypeBuyCard,
}

// Calculator aggregates one account's operations over a date range. The
// operations list is fetched once on first use and kept for the calculator's
// lifetime; construct a new instance for fresh data.
type Calculator struct {
	client          BrokerageClient
	dateFrom        time.Time
	dateTo          time.Time
	defaultCurrency models.Currency

	operations       []models.Operation
	operationsLoaded bool
}

// NewCalculator builds a calculator over the default date range: from
// 2001-01-01 UTC up to the current moment in Moscow time.
func NewCalculator(client BrokerageClient, defaultCurrency models.Currency) *Calculator {
	return &Calculator{
		client:          client,
		dateFrom:        time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC),
		dateTo:          time.Now().In(moscowLocation()),
		defaultCurrency: defaultCurrency,
	}
}

// NewCalculatorForRange builds a calculator over an explicit date range.
func NewCalculatorForRange(client BrokerageClient, defaultCurrency models.Currency, from, to time.Time) *Calculator {
	return &Calculator{
		client:          client,
		dateFrom:        from,
		dateTo:          to,
		defaultCurrency: defaultCurrency,
	}
}

func moscowLocation() *time.Location {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		return time.FixedZone("MSK", 3*60*60)
	}
	return loc
}

// Operations returns the memoized operations list, fetching it on first call.
func (c *Calculator) Operations(ctx context.Context) ([]models.Operation, error) {
	if !c.operationsLoaded {
		operations, err := c.client.Operations(ctx, c.dateFrom, c.dateTo)
		if err != nil {
			return nil, fmt.Errorf("loading operations: %w", err)
		}
		c.operations = operations
		c.operationsLoaded = true
	}
	return c.operations, nil
}

// totalPaymentByFilter sums Payment over surviving operations, grouped by
// currency. A currency absent from the result reads as zero.
func (c *Calculator) totalPaymentByFilter(ctx context.Context, filter paymentFilter) (map[models.Currency]float64, error) {
	operations, err := c.Operations(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[models.Currency]float64)
	for _, op := range operations {
		if filter.matches(op) {
			result[op.Currency] += op.Payment
		}
	}
	return result, nil
}

// Commissions sums broker commissions, service commissions and dividend and
// coupon taxes, per currency.
func (c *Calculator) Commissions(ctx context.Context) (map[models.Currency]float64, error) {
	return c.totalPaymentByFilter(ctx, filterCommissions)
}

func (c *Calculator) ServiceCommission(ctx context.Context) (map[models.Currency]float64, error) {
	return c.totalPaymentByFilter(ctx, filterServiceCommission)
}

func (c *Calculator) PayIn(ctx context.Context) (map[models.Currency]float64, error) {
	return c.totalPaymentByFilter(ctx, filterPayIn)
}

func (c *Calculator) PayOut(ctx context.Context) (map[models.Currency]float64, error) {
	return c.totalPaymentByFilter(ctx, filterPayOut)
}

func (c *Calculator) PayTotal(ctx context.Context) (map[models.Currency]float64, error) {
	return c.totalPaymentByFilter(ctx, filterPayTotal)
}

// Balance sums every operation in the default currency.
func (c *Calculator) Balance(ctx context.Context) (map[models.Currency]float64, error) {
	return c.totalPaymentByFilter(ctx, paymentFilter{currency: c.defaultCurrency})
}

// OperationsBalance sums buy/sell trade operations in the default currency.
func (c *Calculator) OperationsBalance(ctx context.Context) (map[models.Currency]float64, error) {
	return c.totalPaymentByFilter(ctx, paymentFilter{
		types:    tradeOperationTypes,
		currency: c.defaultCurrency,
	})
}

// DividendTotal is the default-currency sum of dividends net of dividend tax.
func (c *Calculator) DividendTotal(ctx context.Context) (float64, error) {
	totals, err := c.totalPaymentByFilter(ctx, paymentFilter{
		types: []models.OperationType{
			models.OperationTypeDividend,
			models.OperationTypeTaxDividend,
		},
		currency: c.defaultCurrency,
	})
	if err != nil {
		return 0, err
	}
	return totals[c.defaultCurrency], nil
}

// CouponTotal is the default-currency sum of coupons net of coupon tax.
func (c *Calculator) CouponTotal(ctx context.Context) (float64, error) {
	totals, err := c.totalPaymentByFilter(ctx, paymentFilter{
		types: []models.OperationType{
			models.OperationTypeCoupon,
			models.OperationTypeTaxCoupon,
		},
		currency: c.defaultCurrency,
	})
	if err != nil {
		return 0, err
	}
	return totals[c.defaultCurrency], nil
}
