package core

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/quotepit/quotepit/internal/domain"
)

func trade(buyer, seller string, price, amount int64) *domain.Trade {
	return &domain.Trade{
		Symbol:   testSymbol,
		Price:    price,
		Amount:   amount,
		BuyerID:  buyer,
		SellerID: seller,
	}
}

func TestProjectPositionEmpty(t *testing.T) {
	pos := ProjectPosition("nobody", testSymbol, nil)
	require.Equal(t, int64(0), pos.NetPosition)
	require.True(t, pos.AvgBuyPrice.IsZero())
	require.True(t, pos.AvgSellPrice.IsZero())
	require.True(t, pos.RealizedPnL.IsZero())
}

func TestProjectPositionBuysOnly(t *testing.T) {
	trades := []*domain.Trade{
		trade("me", "a", 100, 4),
		trade("me", "b", 110, 6),
	}
	pos := ProjectPosition("me", testSymbol, trades)
	require.Equal(t, int64(10), pos.NetPosition)
	require.Equal(t, int64(10), pos.TotalBought)
	require.Equal(t, int64(0), pos.TotalSold)
	// (100*4 + 110*6) / 10 = 106
	require.True(t, pos.AvgBuyPrice.Equal(decimal.NewFromInt(106)), "avg buy = %s", pos.AvgBuyPrice)
	require.True(t, pos.RealizedPnL.IsZero(), "nothing sold, nothing realized")
}

func TestProjectPositionRealizedPnL(t *testing.T) {
	trades := []*domain.Trade{
		trade("me", "a", 100, 10),
		trade("b", "me", 105, 4),
	}
	pos := ProjectPosition("me", testSymbol, trades)
	require.Equal(t, int64(6), pos.NetPosition)
	// matched quantity is 4, realized = (105 - 100) * 4 = 20
	require.True(t, pos.RealizedPnL.Equal(decimal.NewFromInt(20)), "realized = %s", pos.RealizedPnL)
}

func TestProjectPositionSellFirst(t *testing.T) {
	trades := []*domain.Trade{
		trade("a", "me", 105, 8),
		trade("me", "b", 100, 3),
	}
	pos := ProjectPosition("me", testSymbol, trades)
	require.Equal(t, int64(-5), pos.NetPosition)
	// matched quantity 3, realized = (105 - 100) * 3 = 15
	require.True(t, pos.RealizedPnL.Equal(decimal.NewFromInt(15)), "realized = %s", pos.RealizedPnL)
}

func TestProjectPositionFiltersSymbol(t *testing.T) {
	other := trade("me", "a", 999, 7)
	other.Symbol = "OTHER"
	trades := []*domain.Trade{
		trade("me", "a", 100, 2),
		other,
	}
	pos := ProjectPosition("me", testSymbol, trades)
	require.Equal(t, int64(2), pos.NetPosition)
}

func TestProjectPositionIgnoresOthersTrades(t *testing.T) {
	trades := []*domain.Trade{
		trade("a", "b", 100, 5),
	}
	pos := ProjectPosition("me", testSymbol, trades)
	require.Equal(t, int64(0), pos.NetPosition)
}

func TestPositionFromExecutedTrades(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	q := submit(t, e, "maker", 100, 10, 105, 10)
	_, err := e.ExecuteTrade(ctx, "taker", q.ID, domain.Lift, 4)
	require.NoError(t, err)
	_, err = e.ExecuteTrade(ctx, "taker", q.ID, domain.Hit, 4)
	require.NoError(t, err)

	// Taker bought 4 at 105 and sold 4 at 100: flat, down 20.
	pos, err := e.Position(ctx, "taker", testSymbol)
	require.NoError(t, err)
	require.Equal(t, int64(0), pos.NetPosition)
	require.True(t, pos.RealizedPnL.Equal(decimal.NewFromInt(-20)), "realized = %s", pos.RealizedPnL)

	// The maker's side mirrors it.
	makerPos, err := e.Position(ctx, "maker", testSymbol)
	require.NoError(t, err)
	require.Equal(t, int64(0), makerPos.NetPosition)
	require.True(t, makerPos.RealizedPnL.Equal(decimal.NewFromInt(20)), "realized = %s", makerPos.RealizedPnL)
}

func TestRecentTradesNewestFirst(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	q := submit(t, e, "maker", 100, 10, 105, 10)
	first, err := e.ExecuteTrade(ctx, "taker", q.ID, domain.Lift, 2)
	require.NoError(t, err)
	second, err := e.ExecuteTrade(ctx, "taker", q.ID, domain.Lift, 3)
	require.NoError(t, err)

	trades, err := e.RecentTrades(ctx, testSymbol, 10)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	require.Equal(t, second.ID, trades[0].ID)
	require.Equal(t, first.ID, trades[1].ID)
}
