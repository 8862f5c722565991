package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"admiral/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInstrumentNotFound = errors.New("instrument not found")

// InstrumentRepository handles database operations for instruments.
type InstrumentRepository struct {
	pool *pgxpool.Pool
}

// NewInstrumentRepository creates a new InstrumentRepository.
func NewInstrumentRepository(pool *pgxpool.Pool) *InstrumentRepository {
	return &InstrumentRepository{pool: pool}
}

// BeginTx starts a new database transaction.
func (r *InstrumentRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

const instrumentColumns = `
	id, symbol, short_name, long_name, quote_type, currency, exchange,
	sector, industry, city, country, website, full_time_employees,
	long_business_summary`

func scanInstrument(row pgx.Row) (*models.Instrument, error) {
	i := &models.Instrument{}
	err := row.Scan(
		&i.ID, &i.Symbol, &i.ShortName, &i.LongName, &i.QuoteType, &i.Currency,
		&i.Exchange, &i.Sector, &i.Industry, &i.City, &i.Country, &i.Website,
		&i.FullTimeEmployees, &i.LongBusinessSummary,
	)
	if err != nil {
		return nil, err
	}
	return i, nil
}

// GetBySymbol retrieves an instrument by its (upper-cased) symbol.
func (r *InstrumentRepository) GetBySymbol(ctx context.Context, tx pgx.Tx, symbol string) (*models.Instrument, error) {
	query := `SELECT ` + instrumentColumns + ` FROM instruments WHERE symbol = $1`
	i, err := scanInstrument(q(r.pool, tx).QueryRow(ctx, query, symbol))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInstrumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get instrument: %w", err)
	}
	return i, nil
}

// GetAll retrieves all instruments ordered by symbol.
func (r *InstrumentRepository) GetAll(ctx context.Context) ([]*models.Instrument, error) {
	query := `SELECT ` + instrumentColumns + ` FROM instruments ORDER BY symbol`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query instruments: %w", err)
	}
	defer rows.Close()

	var result []*models.Instrument
	for rows.Next() {
		i, err := scanInstrument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instrument: %w", err)
		}
		result = append(result, i)
	}
	return result, rows.Err()
}

// Upsert inserts the instrument or, when the symbol already exists, overwrites
// its descriptive fields with the latest values. The instrument's ID is filled
// in either way.
func (r *InstrumentRepository) Upsert(ctx context.Context, tx pgx.Tx, i *models.Instrument) error {
	query := `
		INSERT INTO instruments (
			symbol, short_name, long_name, quote_type, currency, exchange,
			sector, industry, city, country, website, full_time_employees,
			long_business_summary
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (symbol) DO UPDATE SET
			short_name = EXCLUDED.short_name,
			long_name = EXCLUDED.long_name,
			quote_type = EXCLUDED.quote_type,
			currency = EXCLUDED.currency,
			exchange = EXCLUDED.exchange,
			sector = EXCLUDED.sector,
			industry = EXCLUDED.industry,
			city = EXCLUDED.city,
			country = EXCLUDED.country,
			website = EXCLUDED.website,
			full_time_employees = EXCLUDED.full_time_employees,
			long_business_summary = EXCLUDED.long_business_summary
		RETURNING id
	`
	err := q(r.pool, tx).QueryRow(ctx, query,
		i.Symbol, i.ShortName, i.LongName, i.QuoteType, i.Currency, i.Exchange,
		i.Sector, i.Industry, i.City, i.Country, i.Website, i.FullTimeEmployees,
		i.LongBusinessSummary,
	).Scan(&i.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert instrument: %w", err)
	}
	return nil
}

// ListWithLatestQuote retrieves every instrument joined with its most recent
// quote snapshot (nil when no snapshot has been imported yet).
func (r *InstrumentRepository) ListWithLatestQuote(ctx context.Context) ([]*models.InstrumentWithQuote, error) {
	query := `
		SELECT ` + instrumentColumns + `,
		       qs.id, qs.instrument_id, qs.taken_at, qs.current_price, qs.open,
		       qs.previous_close, qs.day_high, qs.day_low, qs.fifty_two_week_high,
		       qs.fifty_two_week_low, qs.fifty_two_week_change, qs.fifty_day_average,
		       qs.two_hundred_day_average, qs.market_cap, qs.enterprise_value,
		       qs.volume, qs.average_volume, qs.trailing_pe, qs.forward_pe,
		       qs.peg_ratio, qs.price_to_book, qs.profit_margins, qs.dividend_rate,
		       qs.dividend_yield, qs.total_revenue, qs.revenue_growth, qs.ebitda,
		       qs.recommendation_key
		FROM instruments
		LEFT JOIN LATERAL (
			SELECT * FROM quote_snapshots
			WHERE quote_snapshots.instrument_id = instruments.id
			ORDER BY taken_at DESC, id DESC
			LIMIT 1
		) qs ON true
		ORDER BY instruments.symbol
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query instruments with quotes: %w", err)
	}
	defer rows.Close()

	var result []*models.InstrumentWithQuote
	for rows.Next() {
		item := &models.InstrumentWithQuote{}
		quote := &models.QuoteSnapshot{}
		var quoteID, quoteInstrumentID *int64
		var takenAt *time.Time
		err := rows.Scan(
			&item.ID, &item.Symbol, &item.ShortName, &item.LongName, &item.QuoteType,
			&item.Currency, &item.Exchange, &item.Sector, &item.Industry, &item.City,
			&item.Country, &item.Website, &item.FullTimeEmployees, &item.LongBusinessSummary,
			&quoteID, &quoteInstrumentID, &takenAt, &quote.CurrentPrice, &quote.Open,
			&quote.PreviousClose, &quote.DayHigh, &quote.DayLow, &quote.FiftyTwoWeekHigh,
			&quote.FiftyTwoWeekLow, &quote.FiftyTwoWeekChange, &quote.FiftyDayAverage,
			&quote.TwoHundredDayAverage, &quote.MarketCap, &quote.EnterpriseValue,
			&quote.Volume, &quote.AverageVolume, &quote.TrailingPE, &quote.ForwardPE,
			&quote.PEGRatio, &quote.PriceToBook, &quote.ProfitMargins, &quote.DividendRate,
			&quote.DividendYield, &quote.TotalRevenue, &quote.RevenueGrowth, &quote.EBITDA,
			&quote.RecommendationKey,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instrument with quote: %w", err)
		}
		if quoteID != nil {
			quote.ID = *quoteID
			quote.InstrumentID = *quoteInstrumentID
			if takenAt != nil {
				quote.TakenAt = *takenAt
			}
			item.LatestQuote = quote
		}
		result = append(result, item)
	}
	return result, rows.Err()
}
