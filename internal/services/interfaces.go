package services

import (
	"context"
	"time"

	"admiral/internal/models"
	"admiral/internal/yahoo"

	"github.com/jackc/pgx/v5"
)

// Store interfaces decouple the engine from Postgres so the replay and
// valuation logic can be unit tested against in-memory fakes. The repository
// package provides the real implementations. Methods that take a pgx.Tx
// participate in a caller-owned transaction when one is supplied.

// InstrumentStore is the storage surface for instruments.
type InstrumentStore interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	GetBySymbol(ctx context.Context, tx pgx.Tx, symbol string) (*models.Instrument, error)
	GetAll(ctx context.Context) ([]*models.Instrument, error)
	Upsert(ctx context.Context, tx pgx.Tx, i *models.Instrument) error
	ListWithLatestQuote(ctx context.Context) ([]*models.InstrumentWithQuote, error)
}

// QuoteStore is the storage surface for append-only quote snapshots.
type QuoteStore interface {
	Append(ctx context.Context, tx pgx.Tx, s *models.QuoteSnapshot) error
}

// TransactionStore is the storage surface for the trade log.
type TransactionStore interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	Insert(ctx context.Context, tx pgx.Tx, t *models.Transaction) error
	ListByInstrument(ctx context.Context, tx pgx.Tx, instrumentID int64) ([]*models.Transaction, error)
	List(ctx context.Context, symbol string) ([]*models.Transaction, error)
}

// PositionStore is the storage surface for derived positions.
type PositionStore interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	GetByInstrument(ctx context.Context, tx pgx.Tx, instrumentID int64) (*models.Position, error)
	GetAll(ctx context.Context) ([]*models.Position, error)
	Upsert(ctx context.Context, tx pgx.Tx, p *models.Position) error
	UpdateMarketData(ctx context.Context, tx pgx.Tx, p *models.Position) error
	Delete(ctx context.Context, tx pgx.Tx, instrumentID int64) error
}

// MarketData is the external market data provider surface the engine consumes.
type MarketData interface {
	Snapshot(ctx context.Context, symbol string) (*yahoo.Snapshot, error)
	BatchQuotes(ctx context.Context, symbols []string) (map[string]yahoo.BatchQuote, error)
	DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]yahoo.Bar, error)
}
