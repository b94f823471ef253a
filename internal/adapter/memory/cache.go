package memory

import (
	"context"
	"sync"

	"github.com/quotepit/quotepit/internal/domain"
	"github.com/quotepit/quotepit/internal/port"
)

var _ port.Cache = (*Cache)(nil)

type Cache struct {
	mu    sync.Mutex
	store map[string][]*domain.Quote
}

func NewCache() *Cache {
	return &Cache{store: make(map[string][]*domain.Quote)}
}

func (c *Cache) SetBook(ctx context.Context, symbol string, quotes []*domain.Quote) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]*domain.Quote, len(quotes))
	for i, q := range quotes {
		qc := *q
		cp[i] = &qc
	}
	c.store[symbol] = cp
	return nil
}

func (c *Cache) GetBook(ctx context.Context, symbol string) ([]*domain.Quote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	quotes, ok := c.store[symbol]
	if !ok {
		return nil, nil
	}
	cp := make([]*domain.Quote, len(quotes))
	for i, q := range quotes {
		qc := *q
		cp[i] = &qc
	}
	return cp, nil
}

func (c *Cache) Invalidate(ctx context.Context, symbol string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, symbol)
	return nil
}
