package port

import (
	"context"

	"github.com/quotepit/quotepit/internal/domain"
)

type Cache interface {
	SetBook(ctx context.Context, symbol string, quotes []*domain.Quote) error
	GetBook(ctx context.Context, symbol string) ([]*domain.Quote, error)
	Invalidate(ctx context.Context, symbol string) error
}
