package models

import "time"

// TransactionSide is the direction of a trade.
type TransactionSide string

const (
	SideBuy  TransactionSide = "BUY"
	SideSell TransactionSide = "SELL"
)

// Transaction is an irrevocable record of one trade. The transaction log is
// the system of record for all position state; rows are append-only.
//
// TotalAmount is the signed cash amount computed at entry time:
// quantity*price + fees for a BUY (cash out), quantity*price - fees for a
// SELL (cash in). Both are stored as positive numbers.
type Transaction struct {
	ID           int64           `json:"id"`
	InstrumentID int64           `json:"instrument_id"`
	Symbol       string          `json:"symbol"` // joined from instruments, not a column
	Date         Date            `json:"date"`
	Side         TransactionSide `json:"side"`
	Quantity     float64         `json:"quantity"`
	Price        float64         `json:"price"`
	Fees         float64         `json:"fees"`
	TotalAmount  float64         `json:"total_amount"`
}

// Position is the derived cache of current holdings for one instrument.
// It is fully recomputable from the transaction log plus the latest price and
// is never independently authoritative. There is at most one row per
// instrument; the row is deleted when the derived quantity reaches zero.
type Position struct {
	ID           int64  `json:"id"`
	InstrumentID int64  `json:"instrument_id"`
	Symbol       string `json:"symbol"` // joined from instruments, not a column

	Quantity    float64 `json:"quantity"`
	AverageCost float64 `json:"average_cost"`
	TotalCost   float64 `json:"total_cost"`

	CurrentPrice       float64 `json:"current_price"`
	CurrentValue       float64 `json:"current_value"`
	DailyChange        float64 `json:"daily_change"`
	DailyChangePercent float64 `json:"daily_change_percent"`

	LastUpdated time.Time `json:"last_updated"`
}

// PortfolioSummary aggregates all stored positions into portfolio-level totals.
type PortfolioSummary struct {
	TotalValue      float64 `json:"total_value"`
	TotalInvested   float64 `json:"total_invested"`
	TotalPnL        float64 `json:"total_pnl"`
	TotalPnLPercent float64 `json:"total_pnl_percent"`
	DailyChange     float64 `json:"daily_change"`
	PositionsCount  int     `json:"positions_count"`
}

// SyncResult reports the outcome of a full sync cycle: recalculation, price
// refresh, then summary, in that order.
type SyncResult struct {
	RecalculatedInstruments int              `json:"recalculated_instruments"`
	Summary                 PortfolioSummary `json:"summary"`
}
