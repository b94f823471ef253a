package domain

import "time"

// Trade is immutable once created. BuyerID/SellerID are resolved from
// the quote owner and the requester based on which side was taken:
// HIT makes the owner the buyer, LIFT makes the requester the buyer.
type Trade struct {
	ID        string
	Symbol    string
	QuoteID   string
	Side      Side
	Price     int64
	Amount    int64
	BuyerID   string
	SellerID  string
	Timestamp time.Time
}
