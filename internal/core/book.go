package core

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/quotepit/quotepit/internal/domain"
	"github.com/quotepit/quotepit/internal/port"
)

// SubmitQuote creates or replaces the caller's active quote for the
// symbol. If an active quote already exists for (ownerID, symbol) it
// is updated in place under the same id.
func (e *Engine) SubmitQuote(ctx context.Context, ownerID, symbol string, bid, offer domain.Level) (*domain.Quote, error) {
	if ownerID == "" {
		return nil, domain.ErrNotAuthenticated
	}
	if err := validateQuote(bid, offer); err != nil {
		return nil, err
	}
	// Anti-cross check against a snapshot of the resting book. This
	// read is not part of the write transaction: a concurrent
	// submission can invalidate it before our write lands, which is
	// an accepted race, not a crash risk.
	if err := e.checkCrossed(ctx, ownerID, symbol, bid, offer); err != nil {
		return nil, err
	}

	existing, err := e.repo.LoadActiveQuote(ctx, ownerID, symbol)
	if err != nil && !errors.Is(err, domain.ErrQuoteNotFound) {
		return nil, err
	}

	var q *domain.Quote
	if existing != nil {
		err = withTx(ctx, e.repo, func(tx port.Tx) error {
			cur, err := tx.QuoteForUpdate(ctx, existing.ID)
			if err != nil {
				return err
			}
			if !cur.IsActive() {
				return domain.ErrStaleQuote
			}
			readVersion := cur.Version
			cur.BidPrice = bid.Price
			cur.BidAmount = bid.Amount
			cur.OfferPrice = offer.Price
			cur.OfferAmount = offer.Amount
			q = cur
			return tx.UpdateQuote(ctx, cur, readVersion)
		})
	} else {
		q = &domain.Quote{
			ID:          uuid.NewString(),
			OwnerID:     ownerID,
			Symbol:      symbol,
			BidPrice:    bid.Price,
			BidAmount:   bid.Amount,
			OfferPrice:  offer.Price,
			OfferAmount: offer.Amount,
			Status:      domain.Active,
			LastUpdated: time.Now(),
		}
		err = e.repo.SaveQuote(ctx, q)
	}
	if err != nil {
		return nil, err
	}

	e.log.Info("quote submitted",
		"quote_id", q.ID,
		"owner", ownerID,
		"symbol", symbol,
		"bid", bid.Price, "bid_amount", bid.Amount,
		"offer", offer.Price, "offer_amount", offer.Amount,
	)
	e.refreshBook(ctx, symbol)
	return q, nil
}

// CancelQuote pulls the caller's quote. Allowed only while active;
// canceling an already-terminal quote returns ErrStaleQuote without
// any state change.
func (e *Engine) CancelQuote(ctx context.Context, callerID, quoteID string) error {
	if callerID == "" {
		return domain.ErrNotAuthenticated
	}
	var symbol string
	err := withTx(ctx, e.repo, func(tx port.Tx) error {
		q, err := tx.QuoteForUpdate(ctx, quoteID)
		if err != nil {
			return err
		}
		if q.OwnerID != callerID {
			return domain.ErrPermissionDenied
		}
		if q.Terminal() {
			return domain.ErrStaleQuote
		}
		readVersion := q.Version
		q.Status = domain.Canceled
		symbol = q.Symbol
		return tx.UpdateQuote(ctx, q, readVersion)
	})
	if err != nil {
		return err
	}
	e.log.Info("quote canceled", "quote_id", quoteID, "owner", callerID)
	e.refreshBook(ctx, symbol)
	return nil
}

// ActiveQuotes returns the resting book for a symbol, best bid first.
func (e *Engine) ActiveQuotes(ctx context.Context, symbol string) ([]*domain.Quote, error) {
	if e.cache != nil {
		if quotes, err := e.cache.GetBook(ctx, symbol); err == nil && quotes != nil {
			return quotes, nil
		}
	}
	quotes, err := e.repo.LoadActiveQuotes(ctx, symbol)
	if err != nil {
		return nil, err
	}
	sortBook(quotes)
	if e.cache != nil {
		_ = e.cache.SetBook(ctx, symbol, quotes)
	}
	return quotes, nil
}

// GetQuote returns one quote in any state.
func (e *Engine) GetQuote(ctx context.Context, quoteID string) (*domain.Quote, error) {
	return e.repo.LoadQuote(ctx, quoteID)
}

func validateQuote(bid, offer domain.Level) error {
	if bid.Price <= 0 {
		return domain.NewValidationError("bid_price", bid.Price, "must be positive")
	}
	if offer.Price <= 0 {
		return domain.NewValidationError("offer_price", offer.Price, "must be positive")
	}
	if bid.Price >= offer.Price {
		return domain.NewValidationError("bid_price", bid.Price, "must be below offer price")
	}
	if bid.Amount < 0 {
		return domain.NewValidationError("bid_amount", bid.Amount, "must not be negative")
	}
	if offer.Amount < 0 {
		return domain.NewValidationError("offer_amount", offer.Amount, "must not be negative")
	}
	return nil
}

// checkCrossed rejects a bid at or above the best resting offer from
// any other owner, and an offer at or below the best resting bid.
func (e *Engine) checkCrossed(ctx context.Context, ownerID, symbol string, bid, offer domain.Level) error {
	quotes, err := e.repo.LoadActiveQuotes(ctx, symbol)
	if err != nil {
		return err
	}
	for _, q := range quotes {
		if q.OwnerID == ownerID {
			continue
		}
		if q.OfferAmount > 0 && bid.Price >= q.OfferPrice {
			return domain.NewValidationError("bid_price", bid.Price, "crosses resting offer")
		}
		if q.BidAmount > 0 && offer.Price <= q.BidPrice {
			return domain.NewValidationError("offer_price", offer.Price, "crosses resting bid")
		}
	}
	return nil
}

func sortBook(quotes []*domain.Quote) {
	sort.SliceStable(quotes, func(i, j int) bool {
		if quotes[i].BidPrice != quotes[j].BidPrice {
			return quotes[i].BidPrice > quotes[j].BidPrice
		}
		return quotes[i].LastUpdated.Before(quotes[j].LastUpdated)
	})
}
