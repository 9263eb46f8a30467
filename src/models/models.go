package models

// OperationType mirrors the operation type values returned by the brokerage
// OpenAPI operations endpoint.
type OperationType string

const (
	OperationTypeBuy               OperationType = "Buy"
	OperationTypeSell              OperationType = "Sell"
	OperationTypeBuyCard           OperationType = "BuyCard"
	OperationTypePayIn             OperationType = "PayIn"
	OperationTypePayOut            OperationType = "PayOut"
	OperationTypeDividend          OperationType = "Dividend"
	OperationTypeCoupon            OperationType = "Coupon"
	OperationTypeBrokerCommission  OperationType = "BrokerCommission"
	OperationTypeServiceCommission OperationType = "ServiceCommission"
	OperationTypeMarginCommission  OperationType = "MarginCommission"
	OperationTypeTax               OperationType = "Tax"
	OperationTypeTaxBack           OperationType = "TaxBack"
	OperationTypeTaxDividend       OperationType = "TaxDividend"
	OperationTypeTaxCoupon         OperationType = "TaxCoupon"
)

// Currency is an ISO-4217-style currency code (e.g. "RUB", "USD").
type Currency string

const (
	CurrencyRUB Currency = "RUB"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyHKD Currency = "HKD"
	CurrencyCHF Currency = "CHF"
	CurrencyJPY Currency = "JPY"
	CurrencyCNY Currency = "CNY"
	CurrencyTRY Currency = "TRY"
)

type InstrumentType string

const (
	InstrumentTypeStock    InstrumentType = "Stock"
	InstrumentTypeBond     InstrumentType = "Bond"
	InstrumentTypeEtf      InstrumentType = "Etf"
	InstrumentTypeCurrency InstrumentType = "Currency"
)

// MoneyAmount is a value tagged with its currency.
type MoneyAmount struct {
	Currency Currency `json:"currency"`
	Value    float64  `json:"value"`
}

// Operation is a single account operation. Operations are fetched once per
// calculator instance and treated as read-only afterwards.
type Operation struct {
	ID             string         `json:"id"`
	Status         string         `json:"status"`
	OperationType  OperationType  `json:"operationType"`
	Currency       Currency       `json:"currency"`
	Payment        float64        `json:"payment"`
	FIGI           string         `json:"figi"` // empty for non-instrument operations
	InstrumentType InstrumentType `json:"instrumentType"`
	Commission     *MoneyAmount   `json:"commission"` // nil means no commission charged
	Date           string         `json:"date"`
}

// CommissionValue returns the commission amount, treating an absent
// commission as zero.
func (o Operation) CommissionValue() float64 {
	if o.Commission == nil {
		return 0
	}
	return o.Commission.Value
}

// PortfolioPosition is a currently held position.
type PortfolioPosition struct {
	FIGI                 string         `json:"figi"`
	Ticker               string         `json:"ticker"`
	ISIN                 string         `json:"isin"`
	Name                 string         `json:"name"`
	InstrumentType       InstrumentType `json:"instrumentType"`
	Balance              float64        `json:"balance"`
	Lots                 int            `json:"lots"`
	AveragePositionPrice *MoneyAmount   `json:"averagePositionPrice"`
	ExpectedYield        *MoneyAmount   `json:"expectedYield"`
}

// Instrument is a market search result used to resolve display names.
type Instrument struct {
	FIGI     string   `json:"figi"`
	Ticker   string   `json:"ticker"`
	ISIN     string   `json:"isin"`
	Name     string   `json:"name"`
	Currency Currency `json:"currency"`
	Type     string   `json:"type"`
}

// PortfolioEntry is one row of the portfolio listing report.
type PortfolioEntry struct {
	Ticker       string   `json:"ticker"`
	Name         string   `json:"name"`
	Currency     Currency `json:"currency"`
	CurrentTotal float64  `json:"current_total"`
	Lots         float64  `json:"lots"`
	AvgPrice     float64  `json:"avg_price"`
}
