package currency

import (
	"context"
	"fmt"
	"time"

	"github.com/playerwallet/wallet-service/internal/domain/entities"
	"github.com/playerwallet/wallet-service/internal/domain/repositories"
	"github.com/playerwallet/wallet-service/internal/infrastructure/cache"
	"github.com/playerwallet/wallet-service/pkg/logger"
)

// CachedClient wraps a repositories.CurrencyClient with a Redis cache-aside
// layer. The oracle is the system of record; every engine and strategy call
// resolves a WalletInfo's currency through this path on every RPC, so a cold
// cache would mean one oracle round trip per wallet operation.
type CachedClient struct {
	inner  repositories.CurrencyClient
	cache  cache.Store
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedClient returns a CurrencyClient that serves from cache before
// falling back to inner. ttl of zero disables caching and every call passes
// straight through.
func NewCachedClient(inner repositories.CurrencyClient, store cache.Store, ttl time.Duration, log *logger.Logger) *CachedClient {
	return &CachedClient{inner: inner, cache: store, ttl: ttl, logger: log}
}

func nameCacheKey(clientID int64, name string) string {
	return fmt.Sprintf("currency:name:%d:%s", clientID, name)
}

func idCacheKey(clientID, currencyID int64) string {
	return fmt.Sprintf("currency:id:%d:%d", clientID, currencyID)
}

// GetEnabledByName resolves a currency by display name, checking the cache
// before falling through to the oracle.
func (c *CachedClient) GetEnabledByName(ctx context.Context, clientID int64, name string) (entities.Currency, error) {
	if c.ttl <= 0 {
		return c.inner.GetEnabledByName(ctx, clientID, name)
	}
	key := nameCacheKey(clientID, name)

	var cached entities.Currency
	if err := c.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	currency, err := c.inner.GetEnabledByName(ctx, clientID, name)
	if err != nil {
		return entities.Currency{}, err
	}

	c.store(ctx, key, idCacheKey(clientID, currency.ID), currency)
	return currency, nil
}

// GetEnabledByID resolves a currency by id, checking the cache before
// falling through to the oracle.
func (c *CachedClient) GetEnabledByID(ctx context.Context, clientID int64, currencyID int64) (entities.Currency, error) {
	if c.ttl <= 0 {
		return c.inner.GetEnabledByID(ctx, clientID, currencyID)
	}
	key := idCacheKey(clientID, currencyID)

	var cached entities.Currency
	if err := c.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	currency, err := c.inner.GetEnabledByID(ctx, clientID, currencyID)
	if err != nil {
		return entities.Currency{}, err
	}

	c.store(ctx, key, nameCacheKey(clientID, currency.Name), currency)
	return currency, nil
}

// store writes both the id- and name-keyed entries so a lookup by either
// dimension is a cache hit after the first resolution of a currency.
func (c *CachedClient) store(ctx context.Context, primaryKey, secondaryKey string, currency entities.Currency) {
	if err := c.cache.Set(ctx, primaryKey, currency, c.ttl); err != nil {
		c.logger.Warn("currency cache write failed", "key", primaryKey, "error", err)
	}
	if err := c.cache.Set(ctx, secondaryKey, currency, c.ttl); err != nil {
		c.logger.Warn("currency cache write failed", "key", secondaryKey, "error", err)
	}
}
