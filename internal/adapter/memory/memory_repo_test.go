package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quotepit/quotepit/internal/domain"
)

func activeQuote(id, owner string) *domain.Quote {
	return &domain.Quote{
		ID:          id,
		OwnerID:     owner,
		Symbol:      "QPX",
		BidPrice:    100,
		BidAmount:   10,
		OfferPrice:  105,
		OfferAmount: 10,
		Status:      domain.Active,
	}
}

func TestSaveQuoteAssignsVersionAndTimestamp(t *testing.T) {
	r := NewRepo()
	ctx := context.Background()

	q := activeQuote("q1", "owner")
	require.NoError(t, r.SaveQuote(ctx, q))
	require.Equal(t, int64(1), q.Version)
	require.False(t, q.LastUpdated.IsZero())

	loaded, err := r.LoadQuote(ctx, "q1")
	require.NoError(t, err)
	require.Equal(t, q.Version, loaded.Version)
}

func TestLoadQuoteNotFound(t *testing.T) {
	r := NewRepo()
	_, err := r.LoadQuote(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrQuoteNotFound)
}

func TestUpdateQuoteVersionGuard(t *testing.T) {
	r := NewRepo()
	ctx := context.Background()

	q := activeQuote("q1", "owner")
	require.NoError(t, r.SaveQuote(ctx, q))

	tx, err := r.BeginTx(ctx)
	require.NoError(t, err)
	cur, err := tx.QuoteForUpdate(ctx, "q1")
	require.NoError(t, err)

	cur.BidAmount = 5
	require.NoError(t, tx.UpdateQuote(ctx, cur, cur.Version))
	require.NoError(t, tx.Commit(ctx))

	// A second update guarded on the old version must lose.
	tx2, err := r.BeginTx(ctx)
	require.NoError(t, err)
	defer tx2.Rollback(ctx)
	err = tx2.UpdateQuote(ctx, cur, 1)
	require.ErrorIs(t, err, domain.ErrStaleQuote)
}

func TestRollbackDiscardsStagedWrites(t *testing.T) {
	r := NewRepo()
	ctx := context.Background()

	q := activeQuote("q1", "owner")
	require.NoError(t, r.SaveQuote(ctx, q))

	tx, err := r.BeginTx(ctx)
	require.NoError(t, err)
	cur, err := tx.QuoteForUpdate(ctx, "q1")
	require.NoError(t, err)
	cur.Status = domain.Canceled
	require.NoError(t, tx.UpdateQuote(ctx, cur, cur.Version))
	require.NoError(t, tx.InsertTrade(ctx, &domain.Trade{ID: "t1", Symbol: "QPX", QuoteID: "q1"}))
	require.NoError(t, tx.InsertTradeHistory(ctx, "owner", &domain.Trade{ID: "t1"}))
	require.NoError(t, tx.Rollback(ctx))

	loaded, err := r.LoadQuote(ctx, "q1")
	require.NoError(t, err)
	require.Equal(t, domain.Active, loaded.Status)

	trades, err := r.LoadTrades(ctx, "QPX", 0)
	require.NoError(t, err)
	require.Empty(t, trades)

	hist, err := r.LoadTradesForUser(ctx, "owner")
	require.NoError(t, err)
	require.Empty(t, hist)
}

func TestCommitAppliesAllWritesTogether(t *testing.T) {
	r := NewRepo()
	ctx := context.Background()

	q := activeQuote("q1", "owner")
	require.NoError(t, r.SaveQuote(ctx, q))

	tr := &domain.Trade{ID: "t1", Symbol: "QPX", QuoteID: "q1", BuyerID: "owner", SellerID: "taker", Price: 100, Amount: 10}

	tx, err := r.BeginTx(ctx)
	require.NoError(t, err)
	cur, err := tx.QuoteForUpdate(ctx, "q1")
	require.NoError(t, err)
	cur.BidAmount = 0
	cur.Status = domain.Executed
	require.NoError(t, tx.UpdateQuote(ctx, cur, cur.Version))
	require.NoError(t, tx.InsertTrade(ctx, tr))
	require.NoError(t, tx.InsertTradeHistory(ctx, "owner", tr))
	require.NoError(t, tx.InsertTradeHistory(ctx, "taker", tr))
	require.NoError(t, tx.Commit(ctx))

	loaded, err := r.LoadQuote(ctx, "q1")
	require.NoError(t, err)
	require.Equal(t, domain.Executed, loaded.Status)
	require.Equal(t, int64(2), loaded.Version)

	trades, err := r.LoadTradesForQuote(ctx, "q1")
	require.NoError(t, err)
	require.Len(t, trades, 1)

	for _, uid := range []string{"owner", "taker"} {
		hist, err := r.LoadTradesForUser(ctx, uid)
		require.NoError(t, err)
		require.Len(t, hist, 1)
	}
}

func TestTransactionsSerialize(t *testing.T) {
	r := NewRepo()
	ctx := context.Background()

	q := activeQuote("q1", "owner")
	require.NoError(t, r.SaveQuote(ctx, q))

	tx, err := r.BeginTx(ctx)
	require.NoError(t, err)

	second := make(chan struct{})
	go func() {
		tx2, err := r.BeginTx(ctx)
		if err == nil {
			_ = tx2.Rollback(ctx)
		}
		close(second)
	}()

	time.Sleep(50 * time.Millisecond)
	select {
	case <-second:
		t.Fatal("second transaction started while the first was open")
	default:
	}

	require.NoError(t, tx.Rollback(ctx))
	<-second
}
