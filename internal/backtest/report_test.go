package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marketpulse/scanner/internal/domain"
)

func TestGenerateReport_FailedRunShowsError(t *testing.T) {
	run := domain.BacktestRun{Name: "r", ID: "1", Status: domain.RunStatusFailed, Error: "boom"}
	out := GenerateReport(run)
	require.Contains(t, out, "boom")
	require.Contains(t, out, "FAILED")
}

func TestGenerateReport_CompletedRunShowsMetrics(t *testing.T) {
	run := domain.BacktestRun{
		Name:      "r",
		ID:        "1",
		Status:    domain.RunStatusCompleted,
		Symbols:   []string{"AAAUSDT"},
		Timeframe: domain.Timeframe1h,
		StartTime: time.Unix(1700000000, 0),
		EndTime:   time.Unix(1700000000, 0).Add(time.Hour),
		Metrics: &domain.BacktestMetrics{
			TotalTrades:   10,
			WinningTrades: 6,
			LosingTrades:  4,
			WinRate:       0.6,
			ProfitFactor:  math.Inf(1),
		},
	}
	out := GenerateReport(run)
	require.Contains(t, out, "inf (no losing trades)")
	require.Contains(t, out, "AAAUSDT")
}

func TestGenerateGridReport_LimitsToTopN(t *testing.T) {
	results := []GridResult{
		{Rank: 1, Score: 3, Parameters: ParameterSet{"a": 1}, Metrics: &domain.BacktestMetrics{}},
		{Rank: 2, Score: 2, Parameters: ParameterSet{"a": 2}, Metrics: &domain.BacktestMetrics{}},
		{Rank: 3, Score: 1, Parameters: ParameterSet{"a": 3}, Metrics: &domain.BacktestMetrics{}},
	}
	out := GenerateGridReport(results, 2)
	require.Contains(t, out, "#1")
	require.Contains(t, out, "#2")
	require.NotContains(t, out, "#3")
}
