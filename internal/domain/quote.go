package domain

import (
	"time"
)

type Side string
type QuoteStatus string

const (
	// Hit trades against the resting bid: the requester sells into it.
	Hit Side = "HIT"
	// Lift trades against the resting offer: the requester buys from it.
	Lift Side = "LIFT"

	Active   QuoteStatus = "ACTIVE"
	Canceled QuoteStatus = "CANCELED"
	Executed QuoteStatus = "EXECUTED"
)

// Level is one side of a two-sided quote.
type Level struct {
	Price  int64
	Amount int64
}

// Quote is a user's standing two-sided price for one instrument.
// At most one ACTIVE quote exists per (OwnerID, Symbol); submission
// updates the existing id in place rather than creating a new one.
type Quote struct {
	ID          string
	OwnerID     string
	Symbol      string
	BidPrice    int64
	BidAmount   int64
	OfferPrice  int64
	OfferAmount int64
	Status      QuoteStatus
	// LastTradeID references the most recent fill against this quote;
	// when Status is EXECUTED it is the closing trade.
	LastTradeID string
	// Version is bumped on every mutation; transactional updates are
	// guarded on it so concurrent fills cannot both commit.
	Version     int64
	LastUpdated time.Time
}

func (q *Quote) IsActive() bool {
	return q.Status == Active
}

// Terminal reports whether the quote can no longer be mutated.
func (q *Quote) Terminal() bool {
	return q.Status == Canceled || q.Status == Executed
}

// Available returns the amount a trade on the given side may consume:
// HIT consumes the bid, LIFT consumes the offer.
func (q *Quote) Available(side Side) int64 {
	if side == Hit {
		return q.BidAmount
	}
	return q.OfferAmount
}

// PriceFor returns the execution price for the given side.
func (q *Quote) PriceFor(side Side) int64 {
	if side == Hit {
		return q.BidPrice
	}
	return q.OfferPrice
}
