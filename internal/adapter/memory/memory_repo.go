package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/quotepit/quotepit/internal/domain"
	"github.com/quotepit/quotepit/internal/port"
)

var _ port.Repository = (*Repo)(nil)

// Repo is an in-memory Repository used by tests and local runs. A
// transaction holds the repo lock from BeginTx until Commit or
// Rollback, so transactions are fully serialized: the loser of a
// racing fill re-reads the quote after the winner committed and
// observes the terminal state.
type Repo struct {
	mu      sync.Mutex
	quotes  map[string]*domain.Quote
	trades  []*domain.Trade
	history map[string][]*domain.Trade
}

func NewRepo() *Repo {
	return &Repo{
		quotes:  make(map[string]*domain.Quote),
		history: make(map[string][]*domain.Trade),
	}
}

func (r *Repo) LoadQuote(ctx context.Context, quoteID string) (*domain.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quotes[quoteID]
	if !ok {
		return nil, domain.ErrQuoteNotFound
	}
	cp := *q
	return &cp, nil
}

func (r *Repo) LoadActiveQuote(ctx context.Context, ownerID, symbol string) (*domain.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range r.quotes {
		if q.OwnerID == ownerID && q.Symbol == symbol && q.Status == domain.Active {
			cp := *q
			return &cp, nil
		}
	}
	return nil, domain.ErrQuoteNotFound
}

func (r *Repo) LoadActiveQuotes(ctx context.Context, symbol string) ([]*domain.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []*domain.Quote
	for _, q := range r.quotes {
		if q.Symbol == symbol && q.Status == domain.Active {
			cp := *q
			res = append(res, &cp)
		}
	}
	return res, nil
}

func (r *Repo) SaveQuote(ctx context.Context, q *domain.Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *q
	cp.Version = 1
	cp.LastUpdated = time.Now()
	r.quotes[cp.ID] = &cp
	q.Version = cp.Version
	q.LastUpdated = cp.LastUpdated
	return nil
}

func (r *Repo) LoadTrades(ctx context.Context, symbol string, limit int) ([]*domain.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []*domain.Trade
	for i := len(r.trades) - 1; i >= 0; i-- {
		t := r.trades[i]
		if symbol != "" && t.Symbol != symbol {
			continue
		}
		cp := *t
		res = append(res, &cp)
		if limit > 0 && len(res) >= limit {
			break
		}
	}
	return res, nil
}

func (r *Repo) LoadTradesForUser(ctx context.Context, userID string) ([]*domain.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []*domain.Trade
	for _, t := range r.history[userID] {
		cp := *t
		res = append(res, &cp)
	}
	return res, nil
}

func (r *Repo) LoadTradesForQuote(ctx context.Context, quoteID string) ([]*domain.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []*domain.Trade
	for _, t := range r.trades {
		if t.QuoteID == quoteID {
			cp := *t
			res = append(res, &cp)
		}
	}
	return res, nil
}

func (r *Repo) BeginTx(ctx context.Context) (port.Tx, error) {
	r.mu.Lock()
	return &memTx{repo: r}, nil
}

type memTx struct {
	repo *Repo
	done bool

	stagedQuotes  map[string]*domain.Quote
	stagedTrades  []*domain.Trade
	stagedHistory map[string][]*domain.Trade
}

var _ port.Tx = (*memTx)(nil)

func (t *memTx) QuoteForUpdate(ctx context.Context, quoteID string) (*domain.Quote, error) {
	if t.done {
		return nil, errors.New("transaction closed")
	}
	if q, ok := t.stagedQuotes[quoteID]; ok {
		cp := *q
		return &cp, nil
	}
	q, ok := t.repo.quotes[quoteID]
	if !ok {
		return nil, domain.ErrQuoteNotFound
	}
	cp := *q
	return &cp, nil
}

func (t *memTx) UpdateQuote(ctx context.Context, q *domain.Quote, readVersion int64) error {
	if t.done {
		return errors.New("transaction closed")
	}
	cur, ok := t.repo.quotes[q.ID]
	if !ok {
		return domain.ErrQuoteNotFound
	}
	if cur.Version != readVersion {
		return domain.ErrStaleQuote
	}
	cp := *q
	cp.Version = readVersion + 1
	cp.LastUpdated = time.Now()
	if t.stagedQuotes == nil {
		t.stagedQuotes = make(map[string]*domain.Quote)
	}
	t.stagedQuotes[cp.ID] = &cp
	return nil
}

func (t *memTx) InsertTrade(ctx context.Context, tr *domain.Trade) error {
	if t.done {
		return errors.New("transaction closed")
	}
	cp := *tr
	t.stagedTrades = append(t.stagedTrades, &cp)
	return nil
}

func (t *memTx) InsertTradeHistory(ctx context.Context, userID string, tr *domain.Trade) error {
	if t.done {
		return errors.New("transaction closed")
	}
	// One history entry per (user, trade), as the storage schema's
	// primary key guarantees. A self-trade writes once.
	for _, h := range t.stagedHistory[userID] {
		if h.ID == tr.ID {
			return nil
		}
	}
	for _, h := range t.repo.history[userID] {
		if h.ID == tr.ID {
			return nil
		}
	}
	cp := *tr
	if t.stagedHistory == nil {
		t.stagedHistory = make(map[string][]*domain.Trade)
	}
	t.stagedHistory[userID] = append(t.stagedHistory[userID], &cp)
	return nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return errors.New("transaction closed")
	}
	for id, q := range t.stagedQuotes {
		t.repo.quotes[id] = q
	}
	t.repo.trades = append(t.repo.trades, t.stagedTrades...)
	for uid, trs := range t.stagedHistory {
		t.repo.history[uid] = append(t.repo.history[uid], trs...)
	}
	t.done = true
	t.repo.mu.Unlock()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.repo.mu.Unlock()
	return nil
}
