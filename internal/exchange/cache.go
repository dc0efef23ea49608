package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/marketpulse/scanner/internal/domain"
)

// CandleCache fronts repeated candle reads within the same scan-tick
// window with a Redis cache-aside layer, keyed by market+symbol+timeframe.
// Writes are best-effort and asynchronous: a cache failure never fails
// the caller's read.
type CandleCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewCandleCache builds a cache against an already-connected Redis client.
func NewCandleCache(client *redis.Client, ttl time.Duration) *CandleCache {
	return &CandleCache{redis: client, ttl: ttl}
}

func candleCacheKey(market domain.MarketKind, symbol string, tf domain.Timeframe) string {
	return fmt.Sprintf("candles:%s:%s:%s", market, symbol, tf)
}

// Get returns the cached candle slice, if present and unexpired.
func (c *CandleCache) Get(market domain.MarketKind, symbol string, tf domain.Timeframe) ([]domain.Candle, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	cached, err := c.redis.Get(ctx, candleCacheKey(market, symbol, tf)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("redis error during candle cache lookup")
		}
		return nil, false
	}

	var candles []domain.Candle
	if err := json.Unmarshal([]byte(cached), &candles); err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("failed to unmarshal cached candles")
		return nil, false
	}
	return candles, true
}

// Put stores candles asynchronously; failures are logged, not returned.
func (c *CandleCache) Put(market domain.MarketKind, symbol string, tf domain.Timeframe, candles []domain.Candle) {
	data, err := json.Marshal(candles)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("failed to marshal candles for cache")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := c.redis.Set(ctx, candleCacheKey(market, symbol, tf), data, c.ttl).Err(); err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("failed to cache candles")
		}
	}()
}
