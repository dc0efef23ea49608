package scanner

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marketpulse/scanner/internal/config"
	"github.com/marketpulse/scanner/internal/domain"
	"github.com/marketpulse/scanner/internal/exchange"
	"github.com/marketpulse/scanner/internal/signal"
)

func bullishCandles(n int) []domain.Candle {
	candles := make([]domain.Candle, n)
	price := 100.0
	start := time.Now().Add(-time.Duration(n) * time.Hour)
	for i := 0; i < n; i++ {
		price += 1.0 + 0.5*math.Sin(float64(i)/3)
		volume := 1000.0
		if i >= n-3 {
			volume = 3000.0
		}
		open := price - 1
		candles[i] = domain.Candle{
			Symbol:    "BTCUSDT",
			Market:    domain.MarketSpot,
			Timeframe: domain.Timeframe1h,
			OpenTime:  start.Add(time.Duration(i) * time.Hour),
			CloseTime: start.Add(time.Duration(i+1) * time.Hour),
			Open:      open,
			High:      price + 0.5,
			Low:       open - 0.5,
			Close:     price,
			Volume:    volume,
		}
	}
	return candles
}

func newTestScheduler(t *testing.T) (*Scheduler, *exchange.FakeClient, SymbolStore) {
	t.Helper()
	client := exchange.NewFakeClient()
	symbols := NewMemorySymbolStore()
	store := signal.NewMemoryStore()
	engineCfg := domain.DefaultSignalEngineConfig()
	eng := signal.NewEngine(engineCfg, store)

	track := NewTrack(config.TrackConfig{
		Name:          "spot-1h",
		Market:        "spot",
		Timeframe:     "1h",
		Interval:      time.Hour,
		CandleLimit:   200,
		BatchSize:     10,
		MaxConcurrent: 4,
	})

	sched := NewScheduler([]Track{track}, client, symbols, eng, nil)
	return sched, client, symbols
}

func TestScanOnce_NoActiveSymbolsIsNoop(t *testing.T) {
	sched, _, _ := newTestScheduler(t)
	summary := sched.scanOnce(context.Background(), sched.tracks[0])
	require.Equal(t, 0, summary.SymbolsProcessed)
	require.Equal(t, 0, summary.Errors)
}

func TestScanOnce_CreatesSignalForBullishSymbol(t *testing.T) {
	sched, client, symStore := newTestScheduler(t)
	ctx := context.Background()

	require.NoError(t, symStore.Upsert(ctx, domain.Symbol{Name: "BTCUSDT", Market: domain.MarketSpot, Active: true, Volume24h: 1000}))
	client.SeedSymbols(domain.MarketSpot, []domain.Symbol{{Name: "BTCUSDT", Market: domain.MarketSpot, Active: true}})
	client.SeedCandles(domain.MarketSpot, "BTCUSDT", domain.Timeframe1h, bullishCandles(80))

	summary := sched.scanOnce(ctx, sched.tracks[0])
	require.Equal(t, 1, summary.SymbolsProcessed)
	require.Equal(t, 0, summary.Errors)
	// Confidence on synthetic data may or may not clear the approval
	// threshold; either outcome (created or skipped-dup) is a valid,
	// non-error result here.
	require.Equal(t, summary.Created+summary.SkippedDup, 1)
}

func TestFetchInBatches_ChunksRequests(t *testing.T) {
	sched, client, _ := newTestScheduler(t)
	for _, sym := range []string{"AUSDT", "BUSDT", "CUSDT"} {
		client.SeedCandles(domain.MarketSpot, sym, domain.Timeframe1h, bullishCandles(60))
	}
	track := sched.tracks[0]
	track.BatchSize = 1
	track.BatchDelay = 0

	out, err := sched.fetchInBatches(context.Background(), track, []string{"AUSDT", "BUSDT", "CUSDT"})
	require.NoError(t, err)
	require.Len(t, out, 3)
}
