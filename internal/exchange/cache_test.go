package exchange

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/marketpulse/scanner/internal/domain"
)

func newTestCache(t *testing.T) *CandleCache {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCandleCache(client, time.Minute)
}

func TestCandleCache_MissThenHit(t *testing.T) {
	cache := newTestCache(t)

	_, ok := cache.Get(domain.MarketSpot, "BTCUSDT", domain.Timeframe1h)
	require.False(t, ok)

	candles := []domain.Candle{{Symbol: "BTCUSDT", Close: 100}}
	cache.Put(domain.MarketSpot, "BTCUSDT", domain.Timeframe1h, candles)

	require.Eventually(t, func() bool {
		got, ok := cache.Get(domain.MarketSpot, "BTCUSDT", domain.Timeframe1h)
		return ok && len(got) == 1 && got[0].Close == 100
	}, time.Second, 10*time.Millisecond)
}

func TestCandleCache_KeysAreScopedByMarketAndTimeframe(t *testing.T) {
	cache := newTestCache(t)
	cache.Put(domain.MarketSpot, "BTCUSDT", domain.Timeframe1h, []domain.Candle{{Close: 1}})

	require.Eventually(t, func() bool {
		_, ok := cache.Get(domain.MarketSpot, "BTCUSDT", domain.Timeframe1h)
		return ok
	}, time.Second, 10*time.Millisecond)

	_, ok := cache.Get(domain.MarketFutures, "BTCUSDT", domain.Timeframe1h)
	require.False(t, ok)
	_, ok = cache.Get(domain.MarketSpot, "BTCUSDT", domain.Timeframe5m)
	require.False(t, ok)
}
