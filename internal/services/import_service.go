package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"admiral/internal/models"
	"admiral/internal/yahoo"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// importConcurrency bounds parallel snapshot fetches in a batch import. Each
// symbol is independent, but the provider throttles aggressive clients.
const importConcurrency = 4

// ImportService ingests market snapshots: it fetches one provider snapshot
// per symbol, upserts the instrument's descriptive fields and appends one
// immutable quote snapshot row.
type ImportService struct {
	instruments InstrumentStore
	quotes      QuoteStore
	marketData  MarketData

	now func() time.Time
}

// NewImportService creates a new ImportService.
func NewImportService(instruments InstrumentStore, quotes QuoteStore, marketData MarketData) *ImportService {
	return &ImportService{
		instruments: instruments,
		quotes:      quotes,
		marketData:  marketData,
		now:         time.Now,
	}
}

// ImportSnapshot fetches and stores one snapshot for a symbol. The instrument
// upsert and the snapshot append share a single database transaction.
func (s *ImportService) ImportSnapshot(ctx context.Context, symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return ErrInvalidSymbol
	}

	snap, err := s.marketData.Snapshot(ctx, symbol)
	if err != nil {
		return fmt.Errorf("failed to fetch snapshot for %s: %w", symbol, err)
	}

	instrument := instrumentFromSnapshot(symbol, snap)

	tx, err := s.instruments.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.instruments.Upsert(ctx, tx, instrument); err != nil {
		return err
	}

	quote := quoteFromSnapshot(instrument.ID, snap)
	quote.TakenAt = s.takenAt(snap)
	if err := s.quotes.Append(ctx, tx, quote); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Debugf("imported snapshot for %s", symbol)
	return nil
}

// ImportBatch imports snapshots for many symbols with bounded parallelism.
// A failure for one symbol is recorded and never aborts the others.
func (s *ImportService) ImportBatch(ctx context.Context, symbols []string) *models.BatchImportResult {
	result := &models.BatchImportResult{Errors: []string{}}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(importConcurrency)

	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			err := s.ImportSnapshot(ctx, symbol)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Errorf("import failed for %s: %v", symbol, err)
				result.Errors = append(result.Errors, err.Error())
				return nil
			}
			result.Imported++
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures land in result.Errors

	return result
}

// ListInstruments returns every instrument with its latest imported snapshot.
func (s *ImportService) ListInstruments(ctx context.Context) ([]*models.InstrumentWithQuote, error) {
	return s.instruments.ListWithLatestQuote(ctx)
}

// takenAt resolves the snapshot timestamp: the provider's regular market
// time, then its pre-market time, then the import's wall clock.
func (s *ImportService) takenAt(snap *yahoo.Snapshot) time.Time {
	if snap.RegularMarketTime != nil {
		return time.Unix(*snap.RegularMarketTime, 0).UTC()
	}
	if snap.PreMarketTime != nil {
		return time.Unix(*snap.PreMarketTime, 0).UTC()
	}
	return s.now()
}

func instrumentFromSnapshot(symbol string, snap *yahoo.Snapshot) *models.Instrument {
	return &models.Instrument{
		Symbol:              symbol,
		ShortName:           snap.ShortName,
		LongName:            snap.LongName,
		QuoteType:           snap.QuoteType,
		Currency:            snap.Currency,
		Exchange:            snap.Exchange,
		Sector:              snap.Sector,
		Industry:            snap.Industry,
		City:                snap.City,
		Country:             snap.Country,
		Website:             snap.Website,
		FullTimeEmployees:   snap.FullTimeEmployees,
		LongBusinessSummary: snap.LongBusinessSummary,
	}
}

func quoteFromSnapshot(instrumentID int64, snap *yahoo.Snapshot) *models.QuoteSnapshot {
	return &models.QuoteSnapshot{
		InstrumentID: instrumentID,

		CurrentPrice:  snap.CurrentPrice,
		Open:          snap.Open,
		PreviousClose: snap.PreviousClose,
		DayHigh:       snap.DayHigh,
		DayLow:        snap.DayLow,

		FiftyTwoWeekHigh:     snap.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:      snap.FiftyTwoWeekLow,
		FiftyTwoWeekChange:   snap.FiftyTwoWeekChange,
		FiftyDayAverage:      snap.FiftyDayAverage,
		TwoHundredDayAverage: snap.TwoHundredDayAverage,

		MarketCap:       snap.MarketCap,
		EnterpriseValue: snap.EnterpriseValue,
		Volume:          snap.Volume,
		AverageVolume:   snap.AverageVolume,

		TrailingPE:    snap.TrailingPE,
		ForwardPE:     snap.ForwardPE,
		PEGRatio:      snap.PEGRatio,
		PriceToBook:   snap.PriceToBook,
		ProfitMargins: snap.ProfitMargins,

		DividendRate:  snap.DividendRate,
		DividendYield: snap.DividendYield,

		TotalRevenue:  snap.TotalRevenue,
		RevenueGrowth: snap.RevenueGrowth,
		EBITDA:        snap.EBITDA,

		RecommendationKey: snap.RecommendationKey,
	}
}
