package models

import "time"

// Instrument is the identity record for a tradable symbol. Only the symbol is
// required; descriptive fields come from the market data provider and are
// overwritten on every import.
type Instrument struct {
	ID     int64  `json:"id"`
	Symbol string `json:"symbol"`

	ShortName           *string `json:"short_name"`
	LongName            *string `json:"long_name"`
	QuoteType           *string `json:"quote_type"`
	Currency            *string `json:"currency"`
	Exchange            *string `json:"exchange"`
	Sector              *string `json:"sector"`
	Industry            *string `json:"industry"`
	City                *string `json:"city"`
	Country             *string `json:"country"`
	Website             *string `json:"website"`
	FullTimeEmployees   *int64  `json:"full_time_employees"`
	LongBusinessSummary *string `json:"long_business_summary"`
}

// QuoteSnapshot is one point-in-time observation of an instrument's market and
// financial metrics. Rows are append-only and never mutated. Every numeric
// field is a pointer: nil means the provider did not report a usable value
// (absent, NaN or infinite), which is distinct from zero.
type QuoteSnapshot struct {
	ID           int64     `json:"id"`
	InstrumentID int64     `json:"instrument_id"`
	TakenAt      time.Time `json:"taken_at"`

	CurrentPrice  *float64 `json:"current_price"`
	Open          *float64 `json:"open"`
	PreviousClose *float64 `json:"previous_close"`
	DayHigh       *float64 `json:"day_high"`
	DayLow        *float64 `json:"day_low"`

	FiftyTwoWeekHigh     *float64 `json:"fifty_two_week_high"`
	FiftyTwoWeekLow      *float64 `json:"fifty_two_week_low"`
	FiftyTwoWeekChange   *float64 `json:"fifty_two_week_change"`
	FiftyDayAverage      *float64 `json:"fifty_day_average"`
	TwoHundredDayAverage *float64 `json:"two_hundred_day_average"`

	MarketCap       *int64 `json:"market_cap"`
	EnterpriseValue *int64 `json:"enterprise_value"`
	Volume          *int64 `json:"volume"`
	AverageVolume   *int64 `json:"average_volume"`

	TrailingPE    *float64 `json:"trailing_pe"`
	ForwardPE     *float64 `json:"forward_pe"`
	PEGRatio      *float64 `json:"peg_ratio"`
	PriceToBook   *float64 `json:"price_to_book"`
	ProfitMargins *float64 `json:"profit_margins"`

	DividendRate  *float64 `json:"dividend_rate"`
	DividendYield *float64 `json:"dividend_yield"`

	TotalRevenue  *int64   `json:"total_revenue"`
	RevenueGrowth *float64 `json:"revenue_growth"`
	EBITDA        *int64   `json:"ebitda"`

	RecommendationKey *string `json:"recommendation_key"`
}

// InstrumentWithQuote pairs an instrument with its most recent snapshot for
// listing endpoints. LatestQuote is nil when no snapshot has been imported yet.
type InstrumentWithQuote struct {
	Instrument
	LatestQuote *QuoteSnapshot `json:"latest_quote"`
}
