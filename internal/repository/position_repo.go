package repository

import (
	"context"
	"errors"
	"fmt"

	"admiral/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PositionRepository handles database operations for derived positions.
// Positions are a cache over the transaction log: at most one row per
// instrument, deleted when holdings reach zero.
type PositionRepository struct {
	pool *pgxpool.Pool
}

// NewPositionRepository creates a new PositionRepository.
func NewPositionRepository(pool *pgxpool.Pool) *PositionRepository {
	return &PositionRepository{pool: pool}
}

// BeginTx starts a new database transaction.
func (r *PositionRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

const positionColumns = `
	p.id, p.instrument_id, i.symbol, p.quantity, p.average_cost, p.total_cost,
	p.current_price, p.current_value, p.daily_change, p.daily_change_percent,
	p.last_updated`

func scanPosition(row pgx.Row) (*models.Position, error) {
	p := &models.Position{}
	err := row.Scan(
		&p.ID, &p.InstrumentID, &p.Symbol, &p.Quantity, &p.AverageCost, &p.TotalCost,
		&p.CurrentPrice, &p.CurrentValue, &p.DailyChange, &p.DailyChangePercent,
		&p.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetByInstrument retrieves the position for one instrument, or nil when the
// instrument has no open position.
func (r *PositionRepository) GetByInstrument(ctx context.Context, tx pgx.Tx, instrumentID int64) (*models.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions p
		JOIN instruments i ON i.id = p.instrument_id
		WHERE p.instrument_id = $1
	`
	p, err := scanPosition(q(r.pool, tx).QueryRow(ctx, query, instrumentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	return p, nil
}

// GetAll retrieves every stored position ordered by symbol.
func (r *PositionRepository) GetAll(ctx context.Context) ([]*models.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions p
		JOIN instruments i ON i.id = p.instrument_id
		ORDER BY i.symbol
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var result []*models.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// Upsert writes the full position row, replacing any existing row for the
// instrument. Callers are expected to have loaded the previous row first when
// market fields must be preserved.
func (r *PositionRepository) Upsert(ctx context.Context, tx pgx.Tx, p *models.Position) error {
	query := `
		INSERT INTO positions (
			instrument_id, quantity, average_cost, total_cost, current_price,
			current_value, daily_change, daily_change_percent, last_updated
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (instrument_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			average_cost = EXCLUDED.average_cost,
			total_cost = EXCLUDED.total_cost,
			current_price = EXCLUDED.current_price,
			current_value = EXCLUDED.current_value,
			daily_change = EXCLUDED.daily_change,
			daily_change_percent = EXCLUDED.daily_change_percent,
			last_updated = EXCLUDED.last_updated
		RETURNING id
	`
	err := q(r.pool, tx).QueryRow(ctx, query,
		p.InstrumentID, p.Quantity, p.AverageCost, p.TotalCost, p.CurrentPrice,
		p.CurrentValue, p.DailyChange, p.DailyChangePercent, p.LastUpdated,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert position: %w", err)
	}
	return nil
}

// UpdateMarketData updates only the market-derived fields of a position,
// leaving the cost accounting columns untouched.
func (r *PositionRepository) UpdateMarketData(ctx context.Context, tx pgx.Tx, p *models.Position) error {
	query := `
		UPDATE positions
		SET current_price = $2, current_value = $3, daily_change = $4,
		    daily_change_percent = $5, last_updated = $6
		WHERE instrument_id = $1
	`
	_, err := q(r.pool, tx).Exec(ctx, query,
		p.InstrumentID, p.CurrentPrice, p.CurrentValue, p.DailyChange,
		p.DailyChangePercent, p.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to update position market data: %w", err)
	}
	return nil
}

// Delete removes the position for an instrument. Deleting an absent position
// is a no-op.
func (r *PositionRepository) Delete(ctx context.Context, tx pgx.Tx, instrumentID int64) error {
	_, err := q(r.pool, tx).Exec(ctx, `DELETE FROM positions WHERE instrument_id = $1`, instrumentID)
	if err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}
	return nil
}
