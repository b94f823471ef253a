package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quotepit/quotepit/internal/domain"
	"github.com/quotepit/quotepit/internal/port"
)

const (
	subscriberBuffer = 16
	writeTimeout     = 5 * time.Second
)

// Event is one message on the live feed: a full active-book snapshot
// after every quote change, or a single committed trade.
type Event struct {
	Type   string         `json:"type"` // "book" or "trade"
	Symbol string         `json:"symbol"`
	Quotes []domain.Quote `json:"quotes,omitempty"`
	Trade  *domain.Trade  `json:"trade,omitempty"`
}

var _ port.Publisher = (*Feed)(nil)

// Feed fans committed engine events out to websocket subscribers.
type Feed struct {
	hub      *hub[Event]
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewFeed(log *slog.Logger) *Feed {
	if log == nil {
		log = slog.Default()
	}
	return &Feed{
		hub:      newHub[Event](),
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		log:      log,
	}
}

func (f *Feed) PublishBook(symbol string, quotes []*domain.Quote) {
	ev := Event{Type: "book", Symbol: symbol, Quotes: make([]domain.Quote, len(quotes))}
	for i, q := range quotes {
		ev.Quotes[i] = *q
	}
	f.hub.Broadcast(ev)
}

func (f *Feed) PublishTrade(t *domain.Trade) {
	cp := *t
	f.hub.Broadcast(Event{Type: "trade", Symbol: t.Symbol, Trade: &cp})
}

// ServeHTTP upgrades the connection and streams events until the
// client disconnects.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.log.Warn("ws upgrade failed", "err", err)
		return
	}
	sub := f.hub.Subscribe(subscriberBuffer)
	defer f.hub.Unsubscribe(sub)
	defer conn.Close()

	// Drain reads so close frames are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev := <-sub.ch:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
