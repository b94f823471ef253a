package port

import (
	"context"

	"github.com/quotepit/quotepit/internal/domain"
)

type Repository interface {
	LoadQuote(ctx context.Context, quoteID string) (*domain.Quote, error)
	LoadActiveQuote(ctx context.Context, ownerID, symbol string) (*domain.Quote, error)
	LoadActiveQuotes(ctx context.Context, symbol string) ([]*domain.Quote, error)
	SaveQuote(ctx context.Context, q *domain.Quote) error
	LoadTrades(ctx context.Context, symbol string, limit int) ([]*domain.Trade, error)
	LoadTradesForUser(ctx context.Context, userID string) ([]*domain.Trade, error)
	LoadTradesForQuote(ctx context.Context, quoteID string) ([]*domain.Trade, error)
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx is the transactional boundary for a fill or a cancel: the quote
// mutation, the trade append and both per-party history entries must
// commit as a unit or not at all.
type Tx interface {
	QuoteForUpdate(ctx context.Context, quoteID string) (*domain.Quote, error)
	// UpdateQuote persists the quote guarded on the version it was
	// read at; domain.ErrStaleQuote if another writer won.
	UpdateQuote(ctx context.Context, q *domain.Quote, readVersion int64) error
	InsertTrade(ctx context.Context, t *domain.Trade) error
	InsertTradeHistory(ctx context.Context, userID string, t *domain.Trade) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
