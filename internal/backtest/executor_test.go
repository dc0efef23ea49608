package backtest

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/marketpulse/scanner/internal/domain"
)

func newTestRun(symbols []string, start time.Time) domain.BacktestRun {
	return domain.BacktestRun{
		ID:             uuid.New().String(),
		Name:           "test run",
		Symbols:        symbols,
		Market:         domain.MarketSpot,
		Timeframe:      domain.Timeframe1h,
		StartTime:      start,
		EndTime:        start.Add(300 * time.Hour),
		InitialBalance: 10000,
		SizingMode:     domain.SizingFixed,
		FixedSizeQuote: 500,
	}
}

func TestExecutor_Run_CompletesWithMetrics(t *testing.T) {
	start := time.Unix(1700000000, 0)
	loader := &fakeCandleLoader{bySymbol: map[string][]domain.Candle{
		"AAAUSDT": bullishCandles(300, start),
		"BBBUSDT": bullishCandles(300, start),
	}}
	store := NewMemoryStore()
	run := newTestRun([]string{"AAAUSDT", "BBBUSDT"}, start)
	require.NoError(t, store.Create(context.Background(), run))

	ex := NewExecutor(loader, store, time.Minute)
	cfg := domain.DefaultSignalEngineConfig()
	cfg.UseVolatilityAware = true // executor must force this back to false

	finished, trades, err := ex.Run(context.Background(), run, cfg)
	require.NoError(t, err)
	require.Equal(t, domain.RunStatusCompleted, finished.Status)
	require.NotNil(t, finished.Metrics)
	require.NotEmpty(t, trades)
	require.Equal(t, finished.Metrics.TotalTrades, len(trades))

	for i := 1; i < len(trades); i++ {
		require.False(t, trades[i].OpenedAt.Before(trades[i-1].OpenedAt), "trades must be settled in chronological open order")
	}

	saved, err := store.Get(context.Background(), run.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RunStatusCompleted, saved.Status)

	storedTrades, err := store.ListTrades(context.Background(), run.ID)
	require.NoError(t, err)
	require.Equal(t, len(trades), len(storedTrades))
}

func TestExecutor_Run_FailsOnInsufficientCandles(t *testing.T) {
	start := time.Unix(1700000000, 0)
	loader := &fakeCandleLoader{bySymbol: map[string][]domain.Candle{
		"AAAUSDT": flatCandles(5, start),
	}}
	store := NewMemoryStore()
	run := newTestRun([]string{"AAAUSDT"}, start)
	require.NoError(t, store.Create(context.Background(), run))

	ex := NewExecutor(loader, store, time.Minute)
	finished, trades, err := ex.Run(context.Background(), run, domain.DefaultSignalEngineConfig())
	require.Error(t, err)
	require.Nil(t, trades)
	require.Equal(t, domain.RunStatusFailed, finished.Status)
	require.NotEmpty(t, finished.Error)

	saved, err := store.Get(context.Background(), run.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RunStatusFailed, saved.Status)
}

func TestExecutor_Run_FailsOnCandleLoadError(t *testing.T) {
	store := NewMemoryStore()
	run := newTestRun([]string{"AAAUSDT"}, time.Unix(1700000000, 0))
	require.NoError(t, store.Create(context.Background(), run))

	ex := NewExecutor(erroringCandleLoader{}, store, time.Minute)
	finished, _, err := ex.Run(context.Background(), run, domain.DefaultSignalEngineConfig())
	require.Error(t, err)
	require.Equal(t, domain.RunStatusFailed, finished.Status)
}

func TestAggregate_ProfitFactorEdgeCases(t *testing.T) {
	run := newTestRun([]string{"AAAUSDT"}, time.Unix(1700000000, 0))

	onlyWins := []SimulatedTrade{{PnL: 10, PnLPct: 0.1}, {PnL: 20, PnLPct: 0.2}}
	m := aggregate(run, onlyWins)
	require.True(t, math.IsInf(m.ProfitFactor, 1))
	require.Equal(t, 2, m.WinningTrades)

	onlyLosses := []SimulatedTrade{{PnL: -10, PnLPct: -0.1}}
	m2 := aggregate(run, onlyLosses)
	require.Equal(t, 0.0, m2.ProfitFactor)
}

func TestSizeAndSettle_FixedSizingComputesPnL(t *testing.T) {
	run := newTestRun([]string{"AAAUSDT"}, time.Unix(1700000000, 0))
	run.SizingMode = domain.SizingFixed
	run.FixedSizeQuote = 1000

	trades := []SimulatedTrade{
		{
			Direction:  domain.DirectionLong,
			EntryPrice: 100,
			ExitPrice:  110,
			Leverage:   1,
			OpenedAt:   run.StartTime,
			ClosedAt:   run.StartTime.Add(time.Hour),
		},
	}
	sizeAndSettle(run, trades)
	require.InDelta(t, 10, trades[0].Quantity, 0.0001)
	require.InDelta(t, 100, trades[0].PnL, 0.0001)
}
