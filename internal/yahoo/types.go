package yahoo

import (
	"math"
	"time"
)

// quoteEnvelope is the wire shape of the v7 quote endpoint.
type quoteEnvelope struct {
	QuoteResponse struct {
		Result []quoteResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"quoteResponse"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// quoteResult carries the raw provider fields. Everything except the symbol
// is optional on the wire; pointers distinguish "not reported" from zero.
type quoteResult struct {
	Symbol string `json:"symbol"`

	ShortName           *string `json:"shortName"`
	LongName            *string `json:"longName"`
	QuoteType           *string `json:"quoteType"`
	Currency            *string `json:"currency"`
	Exchange            *string `json:"fullExchangeName"`
	Sector              *string `json:"sector"`
	Industry            *string `json:"industry"`
	City                *string `json:"city"`
	Country             *string `json:"country"`
	Website             *string `json:"website"`
	FullTimeEmployees   *int64  `json:"fullTimeEmployees"`
	LongBusinessSummary *string `json:"longBusinessSummary"`

	RegularMarketTime *int64 `json:"regularMarketTime"`
	PreMarketTime     *int64 `json:"preMarketTime"`

	RegularMarketPrice         *float64 `json:"regularMarketPrice"`
	RegularMarketOpen          *float64 `json:"regularMarketOpen"`
	RegularMarketPreviousClose *float64 `json:"regularMarketPreviousClose"`
	RegularMarketDayHigh       *float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow        *float64 `json:"regularMarketDayLow"`

	FiftyTwoWeekHigh     *float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow      *float64 `json:"fiftyTwoWeekLow"`
	FiftyTwoWeekChange   *float64 `json:"fiftyTwoWeekChangePercent"`
	FiftyDayAverage      *float64 `json:"fiftyDayAverage"`
	TwoHundredDayAverage *float64 `json:"twoHundredDayAverage"`

	MarketCap       *int64 `json:"marketCap"`
	EnterpriseValue *int64 `json:"enterpriseValue"`
	Volume          *int64 `json:"regularMarketVolume"`
	AverageVolume   *int64 `json:"averageDailyVolume3Month"`

	TrailingPE    *float64 `json:"trailingPE"`
	ForwardPE     *float64 `json:"forwardPE"`
	PEGRatio      *float64 `json:"pegRatio"`
	PriceToBook   *float64 `json:"priceToBook"`
	ProfitMargins *float64 `json:"profitMargins"`

	DividendRate  *float64 `json:"dividendRate"`
	DividendYield *float64 `json:"dividendYield"`

	TotalRevenue  *int64   `json:"totalRevenue"`
	RevenueGrowth *float64 `json:"revenueGrowth"`
	EBITDA        *int64   `json:"ebitda"`

	RecommendationKey *string `json:"recommendationKey"`
}

// chartEnvelope is the wire shape of the v8 chart endpoint.
type chartEnvelope struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open  []*float64 `json:"open"`
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"chart"`
}

// Snapshot is a sanitized single-symbol snapshot of descriptive and financial
// fields. Nil numeric fields mean the provider did not report a usable value.
type Snapshot struct {
	Symbol string

	ShortName           *string
	LongName            *string
	QuoteType           *string
	Currency            *string
	Exchange            *string
	Sector              *string
	Industry            *string
	City                *string
	Country             *string
	Website             *string
	FullTimeEmployees   *int64
	LongBusinessSummary *string

	RegularMarketTime *int64
	PreMarketTime     *int64

	CurrentPrice  *float64
	Open          *float64
	PreviousClose *float64
	DayHigh       *float64
	DayLow        *float64

	FiftyTwoWeekHigh     *float64
	FiftyTwoWeekLow      *float64
	FiftyTwoWeekChange   *float64
	FiftyDayAverage      *float64
	TwoHundredDayAverage *float64

	MarketCap       *int64
	EnterpriseValue *int64
	Volume          *int64
	AverageVolume   *int64

	TrailingPE    *float64
	ForwardPE     *float64
	PEGRatio      *float64
	PriceToBook   *float64
	ProfitMargins *float64

	DividendRate  *float64
	DividendYield *float64

	TotalRevenue  *int64
	RevenueGrowth *float64
	EBITDA        *int64

	RecommendationKey *string
}

// BatchQuote is the minimal per-symbol result of a multi-symbol fetch: the
// current price and the previous close, either of which may be absent.
type BatchQuote struct {
	Symbol        string
	Price         *float64
	PreviousClose *float64
}

// Bar is one daily open/close observation from the historical chart endpoint.
type Bar struct {
	Date  time.Time `json:"date"`
	Open  float64   `json:"open"`
	Close float64   `json:"close"`
}

// SanitizeFloat maps NaN and infinite values to absent. Providers sometimes
// report +Inf for ratios with a zero denominator; storing those as numbers
// would poison downstream aggregation.
func SanitizeFloat(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}
