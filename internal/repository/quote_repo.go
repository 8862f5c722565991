package repository

import (
	"context"
	"fmt"

	"admiral/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuoteRepository handles database operations for quote snapshots. Snapshots
// are append-only: there is no update or delete path here on purpose.
type QuoteRepository struct {
	pool *pgxpool.Pool
}

// NewQuoteRepository creates a new QuoteRepository.
func NewQuoteRepository(pool *pgxpool.Pool) *QuoteRepository {
	return &QuoteRepository{pool: pool}
}

// Append inserts one new immutable snapshot row.
func (r *QuoteRepository) Append(ctx context.Context, tx pgx.Tx, s *models.QuoteSnapshot) error {
	query := `
		INSERT INTO quote_snapshots (
			instrument_id, taken_at, current_price, open, previous_close,
			day_high, day_low, fifty_two_week_high, fifty_two_week_low,
			fifty_two_week_change, fifty_day_average, two_hundred_day_average,
			market_cap, enterprise_value, volume, average_volume, trailing_pe,
			forward_pe, peg_ratio, price_to_book, profit_margins, dividend_rate,
			dividend_yield, total_revenue, revenue_growth, ebitda, recommendation_key
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)
		RETURNING id
	`
	err := q(r.pool, tx).QueryRow(ctx, query,
		s.InstrumentID, s.TakenAt, s.CurrentPrice, s.Open, s.PreviousClose,
		s.DayHigh, s.DayLow, s.FiftyTwoWeekHigh, s.FiftyTwoWeekLow,
		s.FiftyTwoWeekChange, s.FiftyDayAverage, s.TwoHundredDayAverage,
		s.MarketCap, s.EnterpriseValue, s.Volume, s.AverageVolume, s.TrailingPE,
		s.ForwardPE, s.PEGRatio, s.PriceToBook, s.ProfitMargins, s.DividendRate,
		s.DividendYield, s.TotalRevenue, s.RevenueGrowth, s.EBITDA, s.RecommendationKey,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to append quote snapshot: %w", err)
	}
	return nil
}
