package services

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

// ---- In-memory fakes for the store and provider interfaces ----

// stubTx satisfies pgx.Tx for fakes that have no real transaction semantics.
type stubTx struct{}

func (stubTx) Begin(ctx context.Context) (pgx.Tx, error) { return stubTx{}, nil }
func (stubTx) Commit(ctx context.Context) error          { return nil }
func (stubTx) Rollback(ctx context.Context) error        { return nil }
func (stubTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (stubTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (stubTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (stubTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (stubTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (stubTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (stubTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (stubTx) Conn() *pgx.Conn                                               { return nil }

// mockInstrumentStore is locked because batch imports upsert concurrently.
type mockInstrumentStore struct {
	mu          sync.Mutex
	instruments map[string]*models.Instrument
	nextID      int64
}

func newMockInstrumentStore() *mockInstrumentStore {
	return &mockInstrumentStore{instruments: make(map[string]*models.Instrument)}
}

func (m *mockInstrumentStore) BeginTx(ctx context.Context) (pgx.Tx, error) { return stubTx{}, nil }

func (m *mockInstrumentStore) GetBySymbol(ctx context.Context, tx pgx.Tx, symbol string) (*models.Instrument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.instruments[symbol]
	if !ok {
		return nil, repository.ErrInstrumentNotFound
	}
	copied := *i
	return &copied, nil
}

func (m *mockInstrumentStore) GetAll(ctx context.Context) ([]*models.Instrument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	symbols := make([]string, 0, len(m.instruments))
	for s := range m.instruments {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	result := make([]*models.Instrument, 0, len(symbols))
	for _, s := range symbols {
		copied := *m.instruments[s]
		result = append(result, &copied)
	}
	return result, nil
}

func (m *mockInstrumentStore) Upsert(ctx context.Context, tx pgx.Tx, i *models.Instrument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.instruments[i.Symbol]; ok {
		i.ID = existing.ID
	} else {
		m.nextID++
		i.ID = m.nextID
	}
	copied := *i
	m.instruments[i.Symbol] = &copied
	return nil
}

func (m *mockInstrumentStore) ListWithLatestQuote(ctx context.Context) ([]*models.InstrumentWithQuote, error) {
	all, _ := m.GetAll(ctx)
	result := make([]*models.InstrumentWithQuote, 0, len(all))
	for _, i := range all {
		result = append(result, &models.InstrumentWithQuote{Instrument: *i})
	}
	return result, nil
}

type mockQuoteStore struct {
	mu        sync.Mutex
	snapshots []*models.QuoteSnapshot
	nextID    int64
}

func (m *mockQuoteStore) Append(ctx context.Context, tx pgx.Tx, s *models.QuoteSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s.ID = m.nextID
	copied := *s
	m.snapshots = append(m.snapshots, &copied)
	return nil
}

func (m *mockQuoteStore) forInstrument(instrumentID int64) []*models.QuoteSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.QuoteSnapshot
	for _, s := range m.snapshots {
		if s.InstrumentID == instrumentID {
			result = append(result, s)
		}
	}
	return result
}

type mockTransactionStore struct {
	txs    []*models.Transaction
	nextID int64
}

func (m *mockTransactionStore) BeginTx(ctx context.Context) (pgx.Tx, error) { return stubTx{}, nil }

func (m *mockTransactionStore) Insert(ctx context.Context, tx pgx.Tx, t *models.Transaction) error {
	m.nextID++
	t.ID = m.nextID
	copied := *t
	m.txs = append(m.txs, &copied)
	return nil
}

func (m *mockTransactionStore) ListByInstrument(ctx context.Context, tx pgx.Tx, instrumentID int64) ([]*models.Transaction, error) {
	var result []*models.Transaction
	for _, t := range m.txs {
		if t.InstrumentID == instrumentID {
			copied := *t
			result = append(result, &copied)
		}
	}
	sort.SliceStable(result, func(a, b int) bool {
		if !result[a].Date.Time.Equal(result[b].Date.Time) {
			return result[a].Date.Time.Before(result[b].Date.Time)
		}
		return result[a].ID < result[b].ID
	})
	return result, nil
}

func (m *mockTransactionStore) List(ctx context.Context, symbol string) ([]*models.Transaction, error) {
	var result []*models.Transaction
	for _, t := range m.txs {
		if symbol == "" || t.Symbol == symbol {
			copied := *t
			result = append(result, &copied)
		}
	}
	return result, nil
}

type mockPositionStore struct {
	positions map[int64]models.Position
}

func newMockPositionStore() *mockPositionStore {
	return &mockPositionStore{positions: make(map[int64]models.Position)}
}

func (m *mockPositionStore) BeginTx(ctx context.Context) (pgx.Tx, error) { return stubTx{}, nil }

func (m *mockPositionStore) GetByInstrument(ctx context.Context, tx pgx.Tx, instrumentID int64) (*models.Position, error) {
	p, ok := m.positions[instrumentID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *mockPositionStore) GetAll(ctx context.Context) ([]*models.Position, error) {
	result := make([]*models.Position, 0, len(m.positions))
	for _, p := range m.positions {
		copied := p
		result = append(result, &copied)
	}
	sort.Slice(result, func(a, b int) bool { return result[a].Symbol < result[b].Symbol })
	return result, nil
}

func (m *mockPositionStore) Upsert(ctx context.Context, tx pgx.Tx, p *models.Position) error {
	if existing, ok := m.positions[p.InstrumentID]; ok {
		p.ID = existing.ID
	} else {
		p.ID = int64(len(m.positions) + 1)
	}
	m.positions[p.InstrumentID] = *p
	return nil
}

func (m *mockPositionStore) UpdateMarketData(ctx context.Context, tx pgx.Tx, p *models.Position) error {
	existing, ok := m.positions[p.InstrumentID]
	if !ok {
		return nil
	}
	existing.CurrentPrice = p.CurrentPrice
	existing.CurrentValue = p.CurrentValue
	existing.DailyChange = p.DailyChange
	existing.DailyChangePercent = p.DailyChangePercent
	existing.LastUpdated = p.LastUpdated
	m.positions[p.InstrumentID] = existing
	return nil
}

func (m *mockPositionStore) Delete(ctx context.Context, tx pgx.Tx, instrumentID int64) error {
	delete(m.positions, instrumentID)
	return nil
}

type mockMarketData struct {
	snapshots    map[string]*yahoo.Snapshot
	snapshotErrs map[string]error

	batchQuotes map[string]yahoo.BatchQuote
	batchErr    error
	batchCalls  int

	bars    []yahoo.Bar
	barsErr error
}

func newMockMarketData() *mockMarketData {
	return &mockMarketData{
		snapshots:    make(map[string]*yahoo.Snapshot),
		snapshotErrs: make(map[string]error),
		batchQuotes:  make(map[string]yahoo.BatchQuote),
	}
}

func (m *mockMarketData) Snapshot(ctx context.Context, symbol string) (*yahoo.Snapshot, error) {
	if err, ok := m.snapshotErrs[symbol]; ok {
		return nil, err
	}
	if snap, ok := m.snapshots[symbol]; ok {
		return snap, nil
	}
	return &yahoo.Snapshot{Symbol: symbol}, nil
}

func (m *mockMarketData) BatchQuotes(ctx context.Context, symbols []string) (map[string]yahoo.BatchQuote, error) {
	m.batchCalls++
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	return m.batchQuotes, nil
}

func (m *mockMarketData) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]yahoo.Bar, error) {
	if m.barsErr != nil {
		return nil, m.barsErr
	}
	return m.bars, nil
}

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }
func int64Ptr(v int64) *int64     { return &v }
