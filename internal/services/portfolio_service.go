package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"admiral/internal/models"
	"admiral/internal/repository"

	"github.com/jackc/pgx/v5"
)

// quantityEpsilon is the documented zero tolerance for derived quantities.
// Transaction quantities are floating-point, so a flat position can come out
// of replay as something like 1e-15 rather than exactly zero.
const quantityEpsilon = 0.0001

var (
	ErrInvalidSymbol        = errors.New("symbol is required")
	ErrInvalidSide          = errors.New("side must be BUY or SELL")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrInvalidPrice         = errors.New("price must be positive")
	ErrInvalidFees          = errors.New("fees must not be negative")
	ErrInvalidDate          = errors.New("trade date is required")
	ErrInsufficientHoldings = errors.New("sell quantity exceeds current holdings")
)

// PortfolioService owns the position engine: recording trades, replaying the
// transaction log into positions, and aggregating the portfolio summary.
type PortfolioService struct {
	instruments  InstrumentStore
	transactions TransactionStore
	positions    PositionStore
}

// NewPortfolioService creates a new PortfolioService.
func NewPortfolioService(instruments InstrumentStore, transactions TransactionStore, positions PositionStore) *PortfolioService {
	return &PortfolioService{
		instruments:  instruments,
		transactions: transactions,
		positions:    positions,
	}
}

// replay folds an ordered transaction log into a running quantity and cost
// basis. A BUY adds its gross cash amount (fees included) to the basis; a
// SELL removes proportional cost at the pre-sale average, so realized P&L
// never feeds back into the basis. Selling from a non-positive quantity is a
// data inconsistency and clamps both figures to zero rather than going
// negative.
func replay(txs []*models.Transaction) (quantity, costBasis float64) {
	for _, t := range txs {
		switch t.Side {
		case models.SideBuy:
			quantity += t.Quantity
			costBasis += t.TotalAmount
		case models.SideSell:
			if quantity > 0 {
				avg := costBasis / quantity
				quantity -= t.Quantity
				costBasis = quantity * avg
			} else {
				quantity = 0
				costBasis = 0
			}
		}
	}
	return quantity, costBasis
}

// Recalculate rebuilds the stored position for one instrument from its full
// transaction log. The operation is idempotent and runs in a single database
// transaction.
func (s *PortfolioService) Recalculate(ctx context.Context, instrumentID int64) error {
	tx, err := s.transactions.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.recalculateTx(ctx, tx, instrumentID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// recalculateTx is the replay pass within a caller-owned transaction.
func (s *PortfolioService) recalculateTx(ctx context.Context, tx pgx.Tx, instrumentID int64) error {
	txs, err := s.transactions.ListByInstrument(ctx, tx, instrumentID)
	if err != nil {
		return fmt.Errorf("failed to list transactions: %w", err)
	}

	quantity, costBasis := replay(txs)

	if quantity <= quantityEpsilon {
		if err := s.positions.Delete(ctx, tx, instrumentID); err != nil {
			return fmt.Errorf("failed to delete position: %w", err)
		}
		return nil
	}

	pos, err := s.positions.GetByInstrument(ctx, tx, instrumentID)
	if err != nil {
		return fmt.Errorf("failed to get position: %w", err)
	}
	if pos == nil {
		pos = &models.Position{InstrumentID: instrumentID}
	}

	pos.Quantity = quantity
	pos.AverageCost = costBasis / quantity
	pos.TotalCost = costBasis
	// Preserve the last known price and revalue against the new quantity.
	if pos.CurrentPrice > 0 {
		pos.CurrentValue = quantity * pos.CurrentPrice
	}
	pos.LastUpdated = time.Now()

	if err := s.positions.Upsert(ctx, tx, pos); err != nil {
		return fmt.Errorf("failed to upsert position: %w", err)
	}
	return nil
}

// RecalculateAll rebuilds positions for every known instrument. Returns the
// number of instruments processed.
func (s *PortfolioService) RecalculateAll(ctx context.Context) (int, error) {
	defer TrackTime("RecalculateAll", time.Now())

	instruments, err := s.instruments.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list instruments: %w", err)
	}

	for _, i := range instruments {
		if err := s.Recalculate(ctx, i.ID); err != nil {
			return 0, fmt.Errorf("failed to recalculate %s: %w", i.Symbol, err)
		}
	}
	return len(instruments), nil
}

// RecordTransaction validates and persists one trade, then recalculates the
// instrument's position before returning. Instrument creation, the oversell
// check, the insert and the recalculation all share one database transaction,
// so a rejection or failure at any point leaves no partial write.
func (s *PortfolioService) RecordTransaction(ctx context.Context, req *models.RecordTransactionRequest) (*models.Transaction, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}
	if req.Side != models.SideBuy && req.Side != models.SideSell {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidSide, req.Side)
	}
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if req.Price <= 0 {
		return nil, ErrInvalidPrice
	}
	if req.Fees < 0 {
		return nil, ErrInvalidFees
	}
	if req.Date.IsZero() {
		return nil, ErrInvalidDate
	}

	// Everything from here on shares one database transaction, so a rejected
	// or failed operation leaves neither instrument nor position state behind.
	tx, err := s.transactions.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	instrument, err := s.instruments.GetBySymbol(ctx, tx, symbol)
	if errors.Is(err, repository.ErrInstrumentNotFound) {
		if req.Side == models.SideSell {
			// Nothing held for an unseen symbol, so any sell oversells.
			return nil, fmt.Errorf("%w: holding 0.0000, selling %.4f", ErrInsufficientHoldings, req.Quantity)
		}
		// First BUY for an unseen symbol creates its instrument row;
		// descriptive fields arrive with the next snapshot import.
		instrument = &models.Instrument{Symbol: symbol}
		if err := s.instruments.Upsert(ctx, tx, instrument); err != nil {
			return nil, fmt.Errorf("failed to create instrument: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to get instrument: %w", err)
	}

	// Over-sell is checked against the stored position, not re-derived: the
	// position cache is the engine's own output and the only writer is us.
	if req.Side == models.SideSell {
		pos, err := s.positions.GetByInstrument(ctx, tx, instrument.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get position: %w", err)
		}
		var held float64
		if pos != nil {
			held = pos.Quantity
		}
		if req.Quantity > held+quantityEpsilon {
			return nil, fmt.Errorf("%w: holding %.4f, selling %.4f", ErrInsufficientHoldings, held, req.Quantity)
		}
	}

	total := req.Quantity*req.Price + req.Fees
	if req.Side == models.SideSell {
		total = req.Quantity*req.Price - req.Fees
	}

	t := &models.Transaction{
		InstrumentID: instrument.ID,
		Symbol:       symbol,
		Date:         req.Date,
		Side:         req.Side,
		Quantity:     req.Quantity,
		Price:        req.Price,
		Fees:         req.Fees,
		TotalAmount:  total,
	}

	if err := s.transactions.Insert(ctx, tx, t); err != nil {
		return nil, err
	}
	if err := s.recalculateTx(ctx, tx, instrument.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return t, nil
}

// Transactions lists recorded trades, optionally filtered by symbol.
func (s *PortfolioService) Transactions(ctx context.Context, symbol string) ([]*models.Transaction, error) {
	return s.transactions.List(ctx, strings.ToUpper(strings.TrimSpace(symbol)))
}

// Positions lists all stored positions.
func (s *PortfolioService) Positions(ctx context.Context) ([]*models.Position, error) {
	return s.positions.GetAll(ctx)
}

// Summary aggregates all stored positions into portfolio-level totals. Pure
// read; no side effects.
func (s *PortfolioService) Summary(ctx context.Context) (*models.PortfolioSummary, error) {
	defer TrackTime("Summary", time.Now())

	positions, err := s.positions.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}

	summary := &models.PortfolioSummary{PositionsCount: len(positions)}
	for _, p := range positions {
		summary.TotalValue += p.CurrentValue
		summary.TotalInvested += p.TotalCost
		summary.DailyChange += p.DailyChange
	}
	summary.TotalPnL = summary.TotalValue - summary.TotalInvested
	if summary.TotalInvested > 0 {
		summary.TotalPnLPercent = summary.TotalPnL / summary.TotalInvested * 100
	}
	return summary, nil
}
