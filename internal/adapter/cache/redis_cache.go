package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quotepit/quotepit/internal/domain"
	"github.com/quotepit/quotepit/internal/port"
)

var _ port.Cache = (*RedisCache)(nil)

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(addr, password string, db int, ttl time.Duration) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisCache{client: rdb, ttl: ttl}
}

func key(symbol string) string { return "book:" + symbol }

// encodeBook always produces a JSON array. A nil slice would marshal
// as null and round-trip back to nil, making every read of an empty
// book a cache miss.
func encodeBook(quotes []*domain.Quote) ([]byte, error) {
	if quotes == nil {
		quotes = make([]*domain.Quote, 0)
	}
	return json.Marshal(quotes)
}

func decodeBook(b []byte) ([]*domain.Quote, error) {
	quotes := make([]*domain.Quote, 0)
	if err := json.Unmarshal(b, &quotes); err != nil {
		return nil, err
	}
	return quotes, nil
}

func (c *RedisCache) SetBook(ctx context.Context, symbol string, quotes []*domain.Quote) error {
	b, err := encodeBook(quotes)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(symbol), b, c.ttl).Err()
}

func (c *RedisCache) GetBook(ctx context.Context, symbol string) ([]*domain.Quote, error) {
	b, err := c.client.Get(ctx, key(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeBook(b)
}

func (c *RedisCache) Invalidate(ctx context.Context, symbol string) error {
	return c.client.Del(ctx, key(symbol)).Err()
}
