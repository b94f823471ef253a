package domain

import "github.com/shopspring/decimal"

// Position is the read-side P&L projection for one user. It is
// recomputed from the trade ledger on demand and never persisted.
type Position struct {
	UserID       string
	Symbol       string
	NetPosition  int64
	TotalBought  int64
	TotalSold    int64
	AvgBuyPrice  decimal.Decimal
	AvgSellPrice decimal.Decimal
	RealizedPnL  decimal.Decimal
}
