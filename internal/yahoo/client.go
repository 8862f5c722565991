package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Yahoo Finance quote API. No API key is required, but the endpoint expects a
// browser-like User-Agent or it answers 429.
const defaultBaseURL = "https://query1.finance.yahoo.com"

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"

// Client is an HTTP client for the Yahoo Finance quote and chart endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Yahoo Finance client.
func NewClient() *Client {
	return NewClientWithBaseURL(defaultBaseURL)
}

// NewClientWithBaseURL creates a client against a custom base URL (for testing).
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Snapshot fetches the full descriptive and financial snapshot for one symbol.
func (c *Client) Snapshot(ctx context.Context, symbol string) (*Snapshot, error) {
	results, err := c.fetchQuotes(ctx, []string{symbol})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no quote data returned for %s", symbol)
	}
	return parseSnapshot(results[0]), nil
}

// BatchQuotes fetches current price and previous close for many symbols in a
// single request. Symbols absent from the response are simply missing from
// the returned map; the caller decides how to handle them.
func (c *Client) BatchQuotes(ctx context.Context, symbols []string) (map[string]BatchQuote, error) {
	if len(symbols) == 0 {
		return map[string]BatchQuote{}, nil
	}

	results, err := c.fetchQuotes(ctx, symbols)
	if err != nil {
		return nil, err
	}

	quotes := make(map[string]BatchQuote, len(results))
	for _, r := range results {
		quotes[r.Symbol] = BatchQuote{
			Symbol:        r.Symbol,
			Price:         SanitizeFloat(r.RegularMarketPrice),
			PreviousClose: SanitizeFloat(r.RegularMarketPreviousClose),
		}
	}
	return quotes, nil
}

// DailyBars fetches daily open/close bars for a symbol over a date range.
// Days without data (holidays, halts) come back as JSON nulls and are skipped.
func (c *Client) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error) {
	params := url.Values{}
	params.Set("period1", strconv.FormatInt(start.Unix(), 10))
	params.Set("period2", strconv.FormatInt(end.Unix(), 10))
	params.Set("interval", "1d")

	body, err := c.doRequest(ctx, "/v8/finance/chart/"+url.PathEscape(symbol), params)
	if err != nil {
		return nil, err
	}

	var envelope chartEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chart response: %w", err)
	}
	if envelope.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error for %s: %s", symbol, envelope.Chart.Error.Description)
	}
	if len(envelope.Chart.Result) == 0 || len(envelope.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no chart data returned for %s", symbol)
	}

	result := envelope.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	var bars []Bar
	for i, ts := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.Close) {
			break
		}
		open := SanitizeFloat(quote.Open[i])
		closePrice := SanitizeFloat(quote.Close[i])
		if open == nil || closePrice == nil {
			continue
		}
		bars = append(bars, Bar{
			Date:  time.Unix(ts, 0).UTC(),
			Open:  *open,
			Close: *closePrice,
		})
	}
	return bars, nil
}

func (c *Client) fetchQuotes(ctx context.Context, symbols []string) ([]quoteResult, error) {
	params := url.Values{}
	params.Set("symbols", strings.Join(symbols, ","))

	body, err := c.doRequest(ctx, "/v7/finance/quote", params)
	if err != nil {
		return nil, err
	}

	var envelope quoteEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quote response: %w", err)
	}
	if envelope.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("quote API error: %s", envelope.QuoteResponse.Error.Description)
	}
	return envelope.QuoteResponse.Result, nil
}

func (c *Client) doRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// parseSnapshot sanitizes every numeric field so that NaN/Inf/absent values
// all collapse to nil.
func parseSnapshot(r quoteResult) *Snapshot {
	return &Snapshot{
		Symbol: r.Symbol,

		ShortName:           r.ShortName,
		LongName:            r.LongName,
		QuoteType:           r.QuoteType,
		Currency:            r.Currency,
		Exchange:            r.Exchange,
		Sector:              r.Sector,
		Industry:            r.Industry,
		City:                r.City,
		Country:             r.Country,
		Website:             r.Website,
		FullTimeEmployees:   r.FullTimeEmployees,
		LongBusinessSummary: r.LongBusinessSummary,

		RegularMarketTime: r.RegularMarketTime,
		PreMarketTime:     r.PreMarketTime,

		CurrentPrice:  SanitizeFloat(r.RegularMarketPrice),
		Open:          SanitizeFloat(r.RegularMarketOpen),
		PreviousClose: SanitizeFloat(r.RegularMarketPreviousClose),
		DayHigh:       SanitizeFloat(r.RegularMarketDayHigh),
		DayLow:        SanitizeFloat(r.RegularMarketDayLow),

		FiftyTwoWeekHigh:     SanitizeFloat(r.FiftyTwoWeekHigh),
		FiftyTwoWeekLow:      SanitizeFloat(r.FiftyTwoWeekLow),
		FiftyTwoWeekChange:   SanitizeFloat(r.FiftyTwoWeekChange),
		FiftyDayAverage:      SanitizeFloat(r.FiftyDayAverage),
		TwoHundredDayAverage: SanitizeFloat(r.TwoHundredDayAverage),

		MarketCap:       r.MarketCap,
		EnterpriseValue: r.EnterpriseValue,
		Volume:          r.Volume,
		AverageVolume:   r.AverageVolume,

		TrailingPE:    SanitizeFloat(r.TrailingPE),
		ForwardPE:     SanitizeFloat(r.ForwardPE),
		PEGRatio:      SanitizeFloat(r.PEGRatio),
		PriceToBook:   SanitizeFloat(r.PriceToBook),
		ProfitMargins: SanitizeFloat(r.ProfitMargins),

		DividendRate:  SanitizeFloat(r.DividendRate),
		DividendYield: SanitizeFloat(r.DividendYield),

		TotalRevenue:  r.TotalRevenue,
		RevenueGrowth: SanitizeFloat(r.RevenueGrowth),
		EBITDA:        r.EBITDA,

		RecommendationKey: r.RecommendationKey,
	}
}
