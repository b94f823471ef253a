package core

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/quotepit/quotepit/internal/domain"
)

// RecentTrades returns the newest trades for a symbol, newest first.
func (e *Engine) RecentTrades(ctx context.Context, symbol string, limit int) ([]*domain.Trade, error) {
	return e.repo.LoadTrades(ctx, symbol, limit)
}

// TradesForUser returns the user's denormalized trade history.
func (e *Engine) TradesForUser(ctx context.Context, userID string) ([]*domain.Trade, error) {
	return e.repo.LoadTradesForUser(ctx, userID)
}

// TradesForQuote returns the fills recorded against one quote.
func (e *Engine) TradesForQuote(ctx context.Context, quoteID string) ([]*domain.Trade, error) {
	return e.repo.LoadTradesForQuote(ctx, quoteID)
}

// Position projects the user's P&L from their trade history.
func (e *Engine) Position(ctx context.Context, userID, symbol string) (domain.Position, error) {
	trades, err := e.repo.LoadTradesForUser(ctx, userID)
	if err != nil {
		return domain.Position{}, err
	}
	return ProjectPosition(userID, symbol, trades), nil
}

// ProjectPosition is a pure function over the trade set filtered to
// trades where the user is buyer or seller. Average prices are
// notional-weighted; realized P&L covers only the matched portion of
// bought-then-sold quantity.
func ProjectPosition(userID, symbol string, trades []*domain.Trade) domain.Position {
	var boughtQty, soldQty, boughtNotional, soldNotional int64
	for _, t := range trades {
		if symbol != "" && t.Symbol != symbol {
			continue
		}
		if t.BuyerID == userID {
			boughtQty += t.Amount
			boughtNotional += t.Price * t.Amount
		}
		if t.SellerID == userID {
			soldQty += t.Amount
			soldNotional += t.Price * t.Amount
		}
	}

	pos := domain.Position{
		UserID:      userID,
		Symbol:      symbol,
		NetPosition: boughtQty - soldQty,
		TotalBought: boughtQty,
		TotalSold:   soldQty,
	}
	if boughtQty > 0 {
		pos.AvgBuyPrice = decimal.NewFromInt(boughtNotional).Div(decimal.NewFromInt(boughtQty))
	}
	if soldQty > 0 {
		pos.AvgSellPrice = decimal.NewFromInt(soldNotional).Div(decimal.NewFromInt(soldQty))
	}
	matched := boughtQty
	if soldQty < matched {
		matched = soldQty
	}
	if matched > 0 {
		pos.RealizedPnL = pos.AvgSellPrice.Sub(pos.AvgBuyPrice).Mul(decimal.NewFromInt(matched))
	}
	return pos
}
