package handlers

import (
	"context"
	"sort"
	"sync"
	"time"

	"admiral/internal/models"
	"admiral/internal/repository"
	"admiral/internal/yahoo"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// In-memory store fakes so handler tests can drive real services end to end
// without Postgres.

type fakeTx struct{}

func (fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { return fakeTx{}, nil }
func (fakeTx) Commit(ctx context.Context) error          { return nil }
func (fakeTx) Rollback(ctx context.Context) error        { return nil }
func (fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (fakeTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (fakeTx) Conn() *pgx.Conn                                               { return nil }

// fakeInstrumentStore is locked because batch imports upsert concurrently.
type fakeInstrumentStore struct {
	mu          sync.Mutex
	instruments map[string]*models.Instrument
	nextID      int64
}

func newFakeInstrumentStore() *fakeInstrumentStore {
	return &fakeInstrumentStore{instruments: make(map[string]*models.Instrument)}
}

func (f *fakeInstrumentStore) BeginTx(ctx context.Context) (pgx.Tx, error) { return fakeTx{}, nil }

func (f *fakeInstrumentStore) GetBySymbol(ctx context.Context, tx pgx.Tx, symbol string) (*models.Instrument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.instruments[symbol]
	if !ok {
		return nil, repository.ErrInstrumentNotFound
	}
	copied := *i
	return &copied, nil
}

func (f *fakeInstrumentStore) GetAll(ctx context.Context) ([]*models.Instrument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	symbols := make([]string, 0, len(f.instruments))
	for s := range f.instruments {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	result := make([]*models.Instrument, 0, len(symbols))
	for _, s := range symbols {
		copied := *f.instruments[s]
		result = append(result, &copied)
	}
	return result, nil
}

func (f *fakeInstrumentStore) Upsert(ctx context.Context, tx pgx.Tx, i *models.Instrument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.instruments[i.Symbol]; ok {
		i.ID = existing.ID
	} else {
		f.nextID++
		i.ID = f.nextID
	}
	copied := *i
	f.instruments[i.Symbol] = &copied
	return nil
}

func (f *fakeInstrumentStore) ListWithLatestQuote(ctx context.Context) ([]*models.InstrumentWithQuote, error) {
	all, _ := f.GetAll(ctx)
	result := make([]*models.InstrumentWithQuote, 0, len(all))
	for _, i := range all {
		result = append(result, &models.InstrumentWithQuote{Instrument: *i})
	}
	return result, nil
}

type fakeQuoteStore struct {
	mu        sync.Mutex
	snapshots []*models.QuoteSnapshot
}

func (f *fakeQuoteStore) Append(ctx context.Context, tx pgx.Tx, s *models.QuoteSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *s
	f.snapshots = append(f.snapshots, &copied)
	return nil
}

type fakeTransactionStore struct {
	txs    []*models.Transaction
	nextID int64
}

func (f *fakeTransactionStore) BeginTx(ctx context.Context) (pgx.Tx, error) { return fakeTx{}, nil }

func (f *fakeTransactionStore) Insert(ctx context.Context, tx pgx.Tx, t *models.Transaction) error {
	f.nextID++
	t.ID = f.nextID
	copied := *t
	f.txs = append(f.txs, &copied)
	return nil
}

func (f *fakeTransactionStore) ListByInstrument(ctx context.Context, tx pgx.Tx, instrumentID int64) ([]*models.Transaction, error) {
	var result []*models.Transaction
	for _, t := range f.txs {
		if t.InstrumentID == instrumentID {
			copied := *t
			result = append(result, &copied)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date.Time) {
			return result[i].Date.Before(result[j].Date.Time)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (f *fakeTransactionStore) List(ctx context.Context, symbol string) ([]*models.Transaction, error) {
	var result []*models.Transaction
	for _, t := range f.txs {
		if symbol == "" || t.Symbol == symbol {
			copied := *t
			result = append(result, &copied)
		}
	}
	return result, nil
}

type fakePositionStore struct {
	instruments *fakeInstrumentStore
	positions   map[int64]models.Position
}

func newFakePositionStore(instruments *fakeInstrumentStore) *fakePositionStore {
	return &fakePositionStore{instruments: instruments, positions: make(map[int64]models.Position)}
}

func (f *fakePositionStore) BeginTx(ctx context.Context) (pgx.Tx, error) { return fakeTx{}, nil }

// symbolFor mirrors the real repository's JOIN on instruments: positions never
// store a symbol themselves, reads derive it from the instrument row.
func (f *fakePositionStore) symbolFor(instrumentID int64) string {
	f.instruments.mu.Lock()
	defer f.instruments.mu.Unlock()
	for _, i := range f.instruments.instruments {
		if i.ID == instrumentID {
			return i.Symbol
		}
	}
	return ""
}

func (f *fakePositionStore) GetByInstrument(ctx context.Context, tx pgx.Tx, instrumentID int64) (*models.Position, error) {
	p, ok := f.positions[instrumentID]
	if !ok {
		return nil, nil
	}
	p.Symbol = f.symbolFor(instrumentID)
	return &p, nil
}

func (f *fakePositionStore) GetAll(ctx context.Context) ([]*models.Position, error) {
	result := make([]*models.Position, 0, len(f.positions))
	for id := range f.positions {
		p := f.positions[id]
		p.Symbol = f.symbolFor(id)
		result = append(result, &p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Symbol < result[j].Symbol })
	return result, nil
}

func (f *fakePositionStore) Upsert(ctx context.Context, tx pgx.Tx, p *models.Position) error {
	copied := *p
	copied.Symbol = f.symbolFor(p.InstrumentID)
	f.positions[p.InstrumentID] = copied
	return nil
}

func (f *fakePositionStore) UpdateMarketData(ctx context.Context, tx pgx.Tx, p *models.Position) error {
	existing, ok := f.positions[p.InstrumentID]
	if !ok {
		return nil
	}
	existing.CurrentPrice = p.CurrentPrice
	existing.CurrentValue = p.CurrentValue
	existing.DailyChange = p.DailyChange
	existing.DailyChangePercent = p.DailyChangePercent
	existing.LastUpdated = p.LastUpdated
	f.positions[p.InstrumentID] = existing
	return nil
}

func (f *fakePositionStore) Delete(ctx context.Context, tx pgx.Tx, instrumentID int64) error {
	delete(f.positions, instrumentID)
	return nil
}

type fakeMarketData struct {
	snapshots    map[string]*yahoo.Snapshot
	snapshotErrs map[string]error
	batchQuotes  map[string]yahoo.BatchQuote
	batchErr     error
	bars         []yahoo.Bar
	barsErr      error
}

func newFakeMarketData() *fakeMarketData {
	return &fakeMarketData{
		snapshots:    make(map[string]*yahoo.Snapshot),
		snapshotErrs: make(map[string]error),
		batchQuotes:  make(map[string]yahoo.BatchQuote),
	}
}

func (f *fakeMarketData) Snapshot(ctx context.Context, symbol string) (*yahoo.Snapshot, error) {
	if err, ok := f.snapshotErrs[symbol]; ok {
		return nil, err
	}
	if snap, ok := f.snapshots[symbol]; ok {
		return snap, nil
	}
	return &yahoo.Snapshot{Symbol: symbol}, nil
}

func (f *fakeMarketData) BatchQuotes(ctx context.Context, symbols []string) (map[string]yahoo.BatchQuote, error) {
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	return f.batchQuotes, nil
}

func (f *fakeMarketData) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]yahoo.Bar, error) {
	if f.barsErr != nil {
		return nil, f.barsErr
	}
	return f.bars, nil
}
