package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quotepit/quotepit/internal/domain"
)

func TestSubmitQuoteValidation(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	cases := []struct {
		name       string
		bid, offer domain.Level
	}{
		{"zero bid price", domain.Level{Price: 0, Amount: 10}, domain.Level{Price: 105, Amount: 10}},
		{"zero offer price", domain.Level{Price: 100, Amount: 10}, domain.Level{Price: 0, Amount: 10}},
		{"locked market", domain.Level{Price: 100, Amount: 10}, domain.Level{Price: 100, Amount: 10}},
		{"crossed own quote", domain.Level{Price: 106, Amount: 10}, domain.Level{Price: 105, Amount: 10}},
		{"negative bid amount", domain.Level{Price: 100, Amount: -1}, domain.Level{Price: 105, Amount: 10}},
		{"negative offer amount", domain.Level{Price: 100, Amount: 10}, domain.Level{Price: 105, Amount: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.SubmitQuote(ctx, "owner", testSymbol, tc.bid, tc.offer)
			require.True(t, domain.IsValidation(err), "got %v", err)
		})
	}
}

func TestSubmitQuoteUpsertsInPlace(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	first := submit(t, e, "owner", 100, 10, 105, 10)
	second := submit(t, e, "owner", 99, 5, 106, 5)
	require.Equal(t, first.ID, second.ID, "resubmission must keep the quote id")
	require.Equal(t, int64(99), second.BidPrice)
	require.Equal(t, int64(5), second.OfferAmount)

	quotes, err := e.ActiveQuotes(ctx, testSymbol)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
}

func TestSubmitQuoteRejectsCrossedMarket(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	submit(t, e, "userX", 100, 10, 105, 10)

	// userY's offer at 100 would cross userX's resting bid at 100.
	_, err := e.SubmitQuote(ctx, "userY", testSymbol,
		domain.Level{Price: 95, Amount: 10},
		domain.Level{Price: 100, Amount: 10})
	require.True(t, domain.IsValidation(err), "got %v", err)

	// A bid at or above the resting offer is rejected too.
	_, err = e.SubmitQuote(ctx, "userY", testSymbol,
		domain.Level{Price: 105, Amount: 10},
		domain.Level{Price: 110, Amount: 10})
	require.True(t, domain.IsValidation(err), "got %v", err)

	// Inside the resting spread is fine.
	_, err = e.SubmitQuote(ctx, "userY", testSymbol,
		domain.Level{Price: 101, Amount: 10},
		domain.Level{Price: 104, Amount: 10})
	require.NoError(t, err)

	quotes, err := e.ActiveQuotes(ctx, testSymbol)
	require.NoError(t, err)
	require.Len(t, quotes, 2)
}

func TestCancelQuote(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	q := submit(t, e, "owner", 100, 10, 105, 10)
	require.NoError(t, e.CancelQuote(ctx, "owner", q.ID))

	cur, err := e.GetQuote(ctx, q.ID)
	require.NoError(t, err)
	require.Equal(t, domain.Canceled, cur.Status)

	quotes, err := e.ActiveQuotes(ctx, testSymbol)
	require.NoError(t, err)
	require.Empty(t, quotes)
}

func TestCancelTerminalQuoteIsNoOp(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	q := submit(t, e, "owner", 100, 10, 105, 10)
	require.NoError(t, e.CancelQuote(ctx, "owner", q.ID))

	err := e.CancelQuote(ctx, "owner", q.ID)
	require.ErrorIs(t, err, domain.ErrStaleQuote)

	cur, err := e.GetQuote(ctx, q.ID)
	require.NoError(t, err)
	require.Equal(t, domain.Canceled, cur.Status, "second cancel must not change state")

	// An executed quote cannot be canceled either.
	q2 := submit(t, e, "owner", 100, 5, 105, 5)
	_, err = e.ExecuteTrade(ctx, "taker", q2.ID, domain.Hit, 5)
	require.NoError(t, err)
	err = e.CancelQuote(ctx, "owner", q2.ID)
	require.ErrorIs(t, err, domain.ErrStaleQuote)
}

func TestCancelQuoteOwnerOnly(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	q := submit(t, e, "owner", 100, 10, 105, 10)
	err := e.CancelQuote(ctx, "intruder", q.ID)
	require.ErrorIs(t, err, domain.ErrPermissionDenied)

	cur, err := e.GetQuote(ctx, q.ID)
	require.NoError(t, err)
	require.Equal(t, domain.Active, cur.Status)
}

func TestSubmitAfterTerminalCreatesNewQuote(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	q := submit(t, e, "owner", 100, 10, 105, 10)
	require.NoError(t, e.CancelQuote(ctx, "owner", q.ID))

	q2 := submit(t, e, "owner", 100, 10, 105, 10)
	require.NotEqual(t, q.ID, q2.ID)

	quotes, err := e.ActiveQuotes(ctx, testSymbol)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	require.Equal(t, q2.ID, quotes[0].ID)
}

func TestActiveQuotesSortedBestBidFirst(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	submit(t, e, "a", 98, 10, 106, 10)
	submit(t, e, "b", 100, 10, 105, 10)
	submit(t, e, "c", 99, 10, 107, 10)

	quotes, err := e.ActiveQuotes(ctx, testSymbol)
	require.NoError(t, err)
	require.Len(t, quotes, 3)
	require.Equal(t, int64(100), quotes[0].BidPrice)
	require.Equal(t, int64(99), quotes[1].BidPrice)
	require.Equal(t, int64(98), quotes[2].BidPrice)
}

func TestSubmitRequiresIdentity(t *testing.T) {
	e := newTestEngine()
	_, err := e.SubmitQuote(context.Background(), "", testSymbol,
		domain.Level{Price: 100, Amount: 10},
		domain.Level{Price: 105, Amount: 10})
	require.ErrorIs(t, err, domain.ErrNotAuthenticated)
}
