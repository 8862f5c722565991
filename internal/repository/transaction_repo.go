package repository

import (
	"context"
	"fmt"

	"admiral/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransactionRepository handles database operations for trade transactions.
// The transaction log is append-only.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// BeginTx starts a new database transaction.
func (r *TransactionRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// Insert appends one trade to the log.
func (r *TransactionRepository) Insert(ctx context.Context, tx pgx.Tx, t *models.Transaction) error {
	query := `
		INSERT INTO transactions (instrument_id, trade_date, side, quantity, price, fees, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := q(r.pool, tx).QueryRow(ctx, query,
		t.InstrumentID, t.Date.Time, string(t.Side), t.Quantity, t.Price, t.Fees, t.TotalAmount,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// ListByInstrument retrieves the full transaction log for one instrument in
// replay order: trade date ascending, insertion order breaking ties.
func (r *TransactionRepository) ListByInstrument(ctx context.Context, tx pgx.Tx, instrumentID int64) ([]*models.Transaction, error) {
	query := `
		SELECT t.id, t.instrument_id, i.symbol, t.trade_date, t.side,
		       t.quantity, t.price, t.fees, t.total_amount
		FROM transactions t
		JOIN instruments i ON i.id = t.instrument_id
		WHERE t.instrument_id = $1
		ORDER BY t.trade_date ASC, t.id ASC
	`
	rows, err := q(r.pool, tx).Query(ctx, query, instrumentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// List retrieves transactions across all instruments, newest first, optionally
// filtered by symbol.
func (r *TransactionRepository) List(ctx context.Context, symbol string) ([]*models.Transaction, error) {
	query := `
		SELECT t.id, t.instrument_id, i.symbol, t.trade_date, t.side,
		       t.quantity, t.price, t.fees, t.total_amount
		FROM transactions t
		JOIN instruments i ON i.id = t.instrument_id
		WHERE $1 = '' OR i.symbol = $1
		ORDER BY t.trade_date DESC, t.id DESC
	`
	rows, err := r.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func scanTransactions(rows pgx.Rows) ([]*models.Transaction, error) {
	var result []*models.Transaction
	for rows.Next() {
		t := &models.Transaction{}
		var side string
		if err := rows.Scan(
			&t.ID, &t.InstrumentID, &t.Symbol, &t.Date.Time, &side,
			&t.Quantity, &t.Price, &t.Fees, &t.TotalAmount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.Side = models.TransactionSide(side)
		result = append(result, t)
	}
	return result, rows.Err()
}
