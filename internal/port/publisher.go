package port

import "github.com/quotepit/quotepit/internal/domain"

// Publisher fans out committed state changes to live subscribers.
// Delivery is best-effort push; slow consumers are skipped, they
// re-sync from the next full snapshot.
type Publisher interface {
	PublishBook(symbol string, quotes []*domain.Quote)
	PublishTrade(t *domain.Trade)
}
