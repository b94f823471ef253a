package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/quotepit/quotepit/internal/domain"
	"github.com/quotepit/quotepit/internal/port"
)

// Engine implements the quote desk business logic: quote submission
// and cancellation, hit/lift execution, ledger reads. All mutations
// are funneled through the repository's transactional operations;
// the engine itself holds no quote state.
type Engine struct {
	repo  port.Repository
	cache port.Cache
	pub   port.Publisher
	log   *slog.Logger
}

func NewEngine(repo port.Repository, cache port.Cache, pub port.Publisher, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{repo: repo, cache: cache, pub: pub, log: log}
}

// ExecuteTrade fills requestedAmount against the quote's bid (HIT) or
// offer (LIFT). The re-read of the quote, the quote mutation, the
// trade append and both per-party history entries happen inside one
// storage transaction; a concurrent fill or cancel that commits first
// surfaces as domain.ErrStaleQuote and must not be retried against
// the old snapshot.
func (e *Engine) ExecuteTrade(ctx context.Context, requesterID, quoteID string, side domain.Side, requestedAmount int64) (*domain.Trade, error) {
	if requesterID == "" {
		return nil, domain.ErrNotAuthenticated
	}
	if side != domain.Hit && side != domain.Lift {
		return nil, domain.NewValidationError("side", 0, "must be HIT or LIFT")
	}

	var trade *domain.Trade
	err := withTx(ctx, e.repo, func(tx port.Tx) error {
		q, err := tx.QuoteForUpdate(ctx, quoteID)
		if err != nil {
			return err
		}
		if !q.IsActive() {
			return domain.ErrStaleQuote
		}

		available := q.Available(side)
		if requestedAmount <= 0 {
			return domain.NewValidationError("amount", requestedAmount, "must be positive")
		}
		if requestedAmount > available {
			return domain.NewValidationError("amount", requestedAmount, "exceeds available")
		}

		trade = &domain.Trade{
			ID:        uuid.NewString(),
			Symbol:    q.Symbol,
			QuoteID:   q.ID,
			Side:      side,
			Price:     q.PriceFor(side),
			Amount:    requestedAmount,
			Timestamp: time.Now(),
		}
		if side == domain.Hit {
			// The requester hits the bid: sells into it.
			trade.BuyerID = q.OwnerID
			trade.SellerID = requesterID
		} else {
			// The requester lifts the offer: buys from it.
			trade.BuyerID = requesterID
			trade.SellerID = q.OwnerID
		}

		readVersion := q.Version
		remaining := available - requestedAmount
		if side == domain.Hit {
			q.BidAmount = remaining
		} else {
			q.OfferAmount = remaining
		}
		q.LastTradeID = trade.ID
		if remaining == 0 {
			q.Status = domain.Executed
		}

		if err := tx.UpdateQuote(ctx, q, readVersion); err != nil {
			return err
		}
		if err := tx.InsertTrade(ctx, trade); err != nil {
			return err
		}
		if err := tx.InsertTradeHistory(ctx, trade.BuyerID, trade); err != nil {
			return err
		}
		return tx.InsertTradeHistory(ctx, trade.SellerID, trade)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("trade executed",
		"trade_id", trade.ID,
		"quote_id", trade.QuoteID,
		"side", string(trade.Side),
		"price", trade.Price,
		"amount", trade.Amount,
		"buyer", trade.BuyerID,
		"seller", trade.SellerID,
	)

	if e.pub != nil {
		e.pub.PublishTrade(trade)
	}
	e.refreshBook(ctx, trade.Symbol)
	return trade, nil
}

// refreshBook rebuilds the cached active-quote snapshot after a
// committed mutation and pushes it to live subscribers.
func (e *Engine) refreshBook(ctx context.Context, symbol string) {
	quotes, err := e.repo.LoadActiveQuotes(ctx, symbol)
	if err != nil {
		e.log.Warn("book refresh failed", "symbol", symbol, "err", err)
		// Drop the cached snapshot rather than keep serving the
		// pre-mutation book.
		if e.cache != nil {
			if cerr := e.cache.Invalidate(ctx, symbol); cerr != nil {
				e.log.Warn("book cache invalidate failed", "symbol", symbol, "err", cerr)
			}
		}
		return
	}
	sortBook(quotes)
	if e.cache != nil {
		if err := e.cache.SetBook(ctx, symbol, quotes); err != nil {
			e.log.Warn("book cache update failed", "symbol", symbol, "err", err)
		}
	}
	if e.pub != nil {
		e.pub.PublishBook(symbol, quotes)
	}
}
