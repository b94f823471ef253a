package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quotepit/quotepit/internal/domain"
	"github.com/quotepit/quotepit/internal/port"
)

var _ port.Repository = (*Repo)(nil)

type Repo struct {
	pool *pgxpool.Pool
}

// call Close when finished working with the database.
func NewRepo(ctx context.Context, dsn string) (*Repo, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	return &Repo{pool: pool}, nil
}

func NewRepoFromPool(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (p *Repo) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// EnsureSchema creates the tables if they do not exist. Idempotent;
// called once from the startup sequence, never from package init.
func (p *Repo) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS quotes(
    id           TEXT PRIMARY KEY,
    owner_id     TEXT NOT NULL,
    symbol       TEXT NOT NULL,
    bid_price    BIGINT NOT NULL,
    bid_amount   BIGINT NOT NULL,
    offer_price  BIGINT NOT NULL,
    offer_amount BIGINT NOT NULL,
    status       TEXT NOT NULL,
    last_trade   TEXT NOT NULL DEFAULT '',
    version      BIGINT NOT NULL DEFAULT 1,
    last_updated TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS quotes_active_owner_symbol
    ON quotes(owner_id, symbol) WHERE status = 'ACTIVE';

CREATE TABLE IF NOT EXISTS trades(
    id        TEXT PRIMARY KEY,
    symbol    TEXT NOT NULL,
    quote_id  TEXT NOT NULL,
    side      TEXT NOT NULL,
    price     BIGINT NOT NULL,
    amount    BIGINT NOT NULL,
    buyer_id  TEXT NOT NULL,
    seller_id TEXT NOT NULL,
    ts        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS trade_history(
    user_id  TEXT NOT NULL,
    trade_id TEXT NOT NULL REFERENCES trades(id),
    PRIMARY KEY (user_id, trade_id)
);
`)
	if err != nil {
		return classify("ensure schema", err)
	}
	return nil
}

const quoteColumns = `id, owner_id, symbol, bid_price, bid_amount, offer_price, offer_amount, status, last_trade, version, last_updated`

func scanQuote(row pgx.Row) (*domain.Quote, error) {
	var q domain.Quote
	var status string
	err := row.Scan(&q.ID, &q.OwnerID, &q.Symbol, &q.BidPrice, &q.BidAmount,
		&q.OfferPrice, &q.OfferAmount, &status, &q.LastTradeID, &q.Version, &q.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrQuoteNotFound
		}
		return nil, classify("load quote", err)
	}
	q.Status = domain.QuoteStatus(status)
	return &q, nil
}

func (p *Repo) LoadQuote(ctx context.Context, quoteID string) (*domain.Quote, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, quoteID)
	return scanQuote(row)
}

func (p *Repo) LoadActiveQuote(ctx context.Context, ownerID, symbol string) (*domain.Quote, error) {
	row := p.pool.QueryRow(ctx, `
SELECT `+quoteColumns+` FROM quotes
WHERE owner_id = $1 AND symbol = $2 AND status = 'ACTIVE'
`, ownerID, symbol)
	return scanQuote(row)
}

func (p *Repo) LoadActiveQuotes(ctx context.Context, symbol string) ([]*domain.Quote, error) {
	rows, err := p.pool.Query(ctx, `
SELECT `+quoteColumns+` FROM quotes
WHERE symbol = $1 AND status = 'ACTIVE'
ORDER BY bid_price DESC, last_updated ASC
`, symbol)
	if err != nil {
		return nil, classify("load book", err)
	}
	defer rows.Close()

	var res []*domain.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, q)
	}
	return res, rows.Err()
}

func (p *Repo) SaveQuote(ctx context.Context, q *domain.Quote) error {
	row := p.pool.QueryRow(ctx, `
INSERT INTO quotes(id, owner_id, symbol, bid_price, bid_amount, offer_price, offer_amount, status, last_trade, version, last_updated)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,1,NOW())
RETURNING version, last_updated
`, q.ID, q.OwnerID, q.Symbol, q.BidPrice, q.BidAmount, q.OfferPrice, q.OfferAmount, string(q.Status), q.LastTradeID)
	if err := row.Scan(&q.Version, &q.LastUpdated); err != nil {
		return classify("save quote", err)
	}
	return nil
}

func (p *Repo) LoadTrades(ctx context.Context, symbol string, limit int) ([]*domain.Trade, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.pool.Query(ctx, `
SELECT id, symbol, quote_id, side, price, amount, buyer_id, seller_id, ts
FROM trades WHERE symbol = $1
ORDER BY ts DESC LIMIT $2
`, symbol, limit)
	if err != nil {
		return nil, classify("load trades", err)
	}
	defer rows.Close()
	return scanTrades(rows)
}

func (p *Repo) LoadTradesForUser(ctx context.Context, userID string) ([]*domain.Trade, error) {
	rows, err := p.pool.Query(ctx, `
SELECT t.id, t.symbol, t.quote_id, t.side, t.price, t.amount, t.buyer_id, t.seller_id, t.ts
FROM trade_history h JOIN trades t ON t.id = h.trade_id
WHERE h.user_id = $1
ORDER BY t.ts ASC
`, userID)
	if err != nil {
		return nil, classify("load trade history", err)
	}
	defer rows.Close()
	return scanTrades(rows)
}

func (p *Repo) LoadTradesForQuote(ctx context.Context, quoteID string) ([]*domain.Trade, error) {
	rows, err := p.pool.Query(ctx, `
SELECT id, symbol, quote_id, side, price, amount, buyer_id, seller_id, ts
FROM trades WHERE quote_id = $1
ORDER BY ts ASC
`, quoteID)
	if err != nil {
		return nil, classify("load quote trades", err)
	}
	defer rows.Close()
	return scanTrades(rows)
}

func scanTrades(rows pgx.Rows) ([]*domain.Trade, error) {
	var res []*domain.Trade
	for rows.Next() {
		var t domain.Trade
		var side string
		if err := rows.Scan(&t.ID, &t.Symbol, &t.QuoteID, &side, &t.Price, &t.Amount,
			&t.BuyerID, &t.SellerID, &t.Timestamp); err != nil {
			return nil, classify("scan trade", err)
		}
		t.Side = domain.Side(side)
		res = append(res, &t)
	}
	return res, rows.Err()
}

func (p *Repo) BeginTx(ctx context.Context) (port.Tx, error) {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, classify("begin tx", err)
	}
	return &pgTx{tx: tx}, nil
}

type pgTx struct {
	tx pgx.Tx
}

var _ port.Tx = (*pgTx)(nil)

// QuoteForUpdate reads the quote's current state inside the
// transaction with a row lock, so the remaining-amount fields a fill
// is computed from cannot come from a stale client-side cache.
func (t *pgTx) QuoteForUpdate(ctx context.Context, quoteID string) (*domain.Quote, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1 FOR UPDATE`, quoteID)
	return scanQuote(row)
}

// UpdateQuote is guarded on the version the quote was read at; zero
// rows affected means another fill or cancel committed in between.
func (t *pgTx) UpdateQuote(ctx context.Context, q *domain.Quote, readVersion int64) error {
	res, err := t.tx.Exec(ctx, `
UPDATE quotes
SET bid_price = $1, bid_amount = $2, offer_price = $3, offer_amount = $4,
    status = $5, last_trade = $6, version = version + 1, last_updated = NOW()
WHERE id = $7 AND version = $8
`, q.BidPrice, q.BidAmount, q.OfferPrice, q.OfferAmount, string(q.Status), q.LastTradeID, q.ID, readVersion)
	if err != nil {
		return classify("update quote", err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrStaleQuote
	}
	return nil
}

func (t *pgTx) InsertTrade(ctx context.Context, tr *domain.Trade) error {
	row := t.tx.QueryRow(ctx, `
INSERT INTO trades(id, symbol, quote_id, side, price, amount, buyer_id, seller_id, ts)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,NOW())
RETURNING ts
`, tr.ID, tr.Symbol, tr.QuoteID, string(tr.Side), tr.Price, tr.Amount, tr.BuyerID, tr.SellerID)
	if err := row.Scan(&tr.Timestamp); err != nil {
		return classify("insert trade", err)
	}
	return nil
}

func (t *pgTx) InsertTradeHistory(ctx context.Context, userID string, tr *domain.Trade) error {
	_, err := t.tx.Exec(ctx, `
INSERT INTO trade_history(user_id, trade_id) VALUES($1,$2)
ON CONFLICT (user_id, trade_id) DO NOTHING
`, userID, tr.ID)
	if err != nil {
		return classify("insert trade history", err)
	}
	return nil
}

func (t *pgTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return classify("commit", err)
	}
	return nil
}

func (t *pgTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

// classify maps pg failures onto the domain taxonomy structurally,
// by SQLSTATE class, never by message text.
func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "40001" || pgErr.Code == "40P01":
			// serialization failure / deadlock: another writer won
			return domain.ErrStaleQuote
		case pgErr.Code == "42501":
			return domain.ErrPermissionDenied
		case pgErr.Code[:2] == "23":
			// integrity violation, e.g. the partial unique index on
			// active (owner, symbol)
			return domain.NewFatalStorageError(op, err)
		case pgErr.Code[:2] == "08":
			return domain.NewStorageError(op, err)
		}
	}
	return domain.NewStorageError(op, err)
}
