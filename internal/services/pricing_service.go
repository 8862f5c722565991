package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"admiral/internal/cache"
	"admiral/internal/yahoo"

	log "github.com/sirupsen/logrus"
)

// PricingService merges externally fetched quotes into stored positions and
// serves historical bars for entry price suggestions.
type PricingService struct {
	positions  PositionStore
	marketData MarketData
	quoteCache *cache.QuoteCache
}

// NewPricingService creates a new PricingService.
func NewPricingService(positions PositionStore, marketData MarketData, quoteCache *cache.QuoteCache) *PricingService {
	return &PricingService{
		positions:  positions,
		marketData: marketData,
		quoteCache: quoteCache,
	}
}

// RefreshPrices fetches current price and previous close for all stored
// positions in one batched request and recomputes each position's market
// value and daily change. A missing or unusable quote for one symbol leaves
// that position's stale values in place; a total batch failure is logged and
// leaves every position unchanged. Only storage errors surface to the caller.
func (s *PricingService) RefreshPrices(ctx context.Context) error {
	defer TrackTime("RefreshPrices", time.Now())

	positions, err := s.positions.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list positions: %w", err)
	}
	if len(positions) == 0 {
		log.Debug("no positions to refresh")
		return nil
	}

	symbols := make([]string, 0, len(positions))
	for _, p := range positions {
		symbols = append(symbols, p.Symbol)
	}

	cacheKey := strings.Join(symbols, ",")
	quotes, ok := s.quoteCache.Get(cacheKey)
	if !ok {
		quotes, err = s.marketData.BatchQuotes(ctx, symbols)
		if err != nil {
			// Provider unreachable: degrade to stale data, not failure.
			log.Errorf("batch price fetch failed: %v", err)
			return nil
		}
		s.quoteCache.Set(cacheKey, quotes)
	}

	tx, err := s.positions.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	updated := 0
	for _, pos := range positions {
		quote, ok := quotes[pos.Symbol]
		if !ok || quote.Price == nil || quote.PreviousClose == nil || *quote.PreviousClose == 0 {
			log.Warnf("no usable quote for %s, keeping stale values", pos.Symbol)
			continue
		}

		perShareChange := *quote.Price - *quote.PreviousClose
		pos.CurrentPrice = *quote.Price
		pos.CurrentValue = pos.Quantity * *quote.Price
		pos.DailyChange = perShareChange * pos.Quantity
		pos.DailyChangePercent = perShareChange / *quote.PreviousClose * 100
		pos.LastUpdated = now

		if err := s.positions.UpdateMarketData(ctx, tx, pos); err != nil {
			return fmt.Errorf("failed to update position for %s: %w", pos.Symbol, err)
		}
		updated++
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Debugf("refreshed prices for %d of %d positions", updated, len(positions))
	return nil
}

// DailyBars fetches daily open/close bars for a symbol over a date range. The
// UI uses this to suggest an entry price when a transaction is dated in the
// past.
func (s *PricingService) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]yahoo.Bar, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}
	bars, err := s.marketData.DailyBars(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch daily bars for %s: %w", symbol, err)
	}
	return bars, nil
}
