package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marketpulse/scanner/internal/domain"
)

func TestGenerateCombinations_ExpandsCartesianProduct(t *testing.T) {
	params := []Parameter{
		{Name: "min_confidence", Type: ParamTypeFloat, Min: 0.6, Max: 0.8, Step: 0.1},
		{Name: "sl_atr_multiplier", Type: ParamTypeFloat, Min: 1.0, Max: 2.0, Step: 1.0},
	}
	combos := generateCombinations(params)
	require.Len(t, combos, 3*2)
	for _, c := range combos {
		require.Contains(t, c, "min_confidence")
		require.Contains(t, c, "sl_atr_multiplier")
	}
}

func TestGenerateCombinations_NoParamsReturnsSinglePoint(t *testing.T) {
	combos := generateCombinations(nil)
	require.Len(t, combos, 1)
	require.Empty(t, combos[0])
}

func TestGridSearchOptimizer_RanksByObjective(t *testing.T) {
	start := time.Unix(1700000000, 0)
	loader := &fakeCandleLoader{bySymbol: map[string][]domain.Candle{
		"AAAUSDT": bullishCandles(300, start),
	}}
	store := NewMemoryStore()
	run := newTestRun([]string{"AAAUSDT"}, start)
	require.NoError(t, store.Create(context.Background(), run))

	ex := NewExecutor(loader, store, time.Minute)
	mutate := func(base domain.SignalEngineConfig, params ParameterSet) domain.SignalEngineConfig {
		base.MinConfidence = params["min_confidence"]
		return base
	}
	params := []Parameter{
		{Name: "min_confidence", Type: ParamTypeFloat, Min: 0.5, Max: 0.8, Step: 0.3},
	}

	opt := NewGridSearchOptimizer(ex, run, domain.DefaultSignalEngineConfig(), mutate, params, nil)
	opt.SetParallelism(2)

	results, err := opt.Optimize(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)

	for i := 1; i < len(results); i++ {
		require.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
		require.Equal(t, i, results[i-1].Rank)
	}
}
