package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	Hit  Side = "HIT"
	Lift Side = "LIFT"
)

type SubmitQuoteRequest struct {
	Symbol      string `json:"symbol" binding:"required"`
	BidPrice    int64  `json:"bid_price" binding:"required"`
	BidAmount   int64  `json:"bid_amount"`
	OfferPrice  int64  `json:"offer_price" binding:"required"`
	OfferAmount int64  `json:"offer_amount"`
}

type SubmitQuoteResponse struct {
	Quote   Quote  `json:"quote"`
	Message string `json:"message,omitempty"`
}

type CancelQuoteRequest struct {
	QuoteID string `json:"quote_id" binding:"required"`
}

type CancelQuoteResponse struct {
	QuoteID   string `json:"quote_id"`
	Cancelled bool   `json:"cancelled"`
	Message   string `json:"message,omitempty"`
}

type ExecuteTradeRequest struct {
	QuoteID string `json:"quote_id" binding:"required"`
	Side    Side   `json:"side" binding:"required"`
	Amount  int64  `json:"amount" binding:"required"`
}

type ExecuteTradeResponse struct {
	Trade   Trade  `json:"trade"`
	Message string `json:"message,omitempty"`
}

type GetBookResponse struct {
	Symbol    string    `json:"symbol"`
	Quotes    []Quote   `json:"quotes"`
	Timestamp time.Time `json:"timestamp"`
}

type GetTradesResponse struct {
	Trades []Trade `json:"trades"`
}

type GetPositionResponse struct {
	UserID       string          `json:"user_id"`
	Symbol       string          `json:"symbol"`
	NetPosition  int64           `json:"net_position"`
	TotalBought  int64           `json:"total_bought"`
	TotalSold    int64           `json:"total_sold"`
	AvgBuyPrice  decimal.Decimal `json:"avg_buy_price"`
	AvgSellPrice decimal.Decimal `json:"avg_sell_price"`
	RealizedPnL  decimal.Decimal `json:"realized_pnl"`
}

type Quote struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Symbol      string    `json:"symbol"`
	BidPrice    int64     `json:"bid_price"`
	BidAmount   int64     `json:"bid_amount"`
	OfferPrice  int64     `json:"offer_price"`
	OfferAmount int64     `json:"offer_amount"`
	Status      string    `json:"status"`
	LastUpdated time.Time `json:"last_updated"`
}

type Trade struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	QuoteID   string    `json:"quote_id"`
	Side      Side      `json:"side"`
	Price     int64     `json:"price"`
	Amount    int64     `json:"amount"`
	BuyerID   string    `json:"buyer_id"`
	SellerID  string    `json:"seller_id"`
	Timestamp time.Time `json:"timestamp"`
}
