package backtest

import (
	"fmt"
	"math"
	"strings"

	"github.com/marketpulse/scanner/internal/domain"
)

// GenerateReport renders a run's metrics as a plain-text summary for
// cmd/backtest's stdout, the CLI equivalent of a finished run.
func GenerateReport(run domain.BacktestRun) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Backtest Run: %s (%s)\n", run.Name, run.ID)
	fmt.Fprintf(&b, "Status: %s\n", run.Status)
	if run.Status == domain.RunStatusFailed {
		fmt.Fprintf(&b, "Error: %s\n", run.Error)
		return b.String()
	}
	if run.Metrics == nil {
		return b.String()
	}

	m := run.Metrics
	fmt.Fprintf(&b, "Symbols: %s | Timeframe: %s\n", strings.Join(run.Symbols, ", "), run.Timeframe)
	fmt.Fprintf(&b, "Window: %s -> %s\n", run.StartTime.Format("2006-01-02"), run.EndTime.Format("2006-01-02"))
	fmt.Fprintf(&b, "Initial balance: %.2f\n\n", run.InitialBalance)

	fmt.Fprintf(&b, "Trades:        %d (%d win / %d loss)\n", m.TotalTrades, m.WinningTrades, m.LosingTrades)
	fmt.Fprintf(&b, "Win rate:      %.1f%%\n", m.WinRate*100)
	fmt.Fprintf(&b, "Total return:  %.2f%%\n", m.TotalReturnPct)
	fmt.Fprintf(&b, "Max drawdown:  %.2f%%\n", m.MaxDrawdownPct)
	fmt.Fprintf(&b, "Profit factor: %s\n", formatProfitFactor(m.ProfitFactor))
	fmt.Fprintf(&b, "Sharpe ratio:  %.2f\n", m.SharpeRatio)
	fmt.Fprintf(&b, "Sortino ratio: %.2f\n", m.SortinoRatio)
	fmt.Fprintf(&b, "Average win:   %.2f\n", m.AverageWin)
	fmt.Fprintf(&b, "Average loss:  %.2f\n", m.AverageLoss)

	return b.String()
}

func formatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "inf (no losing trades)"
	}
	return fmt.Sprintf("%.2f", pf)
}

// GenerateGridReport renders a grid search's top results, for
// cmd/backtest's --grid mode.
func GenerateGridReport(results []GridResult, topN int) string {
	if topN <= 0 || topN > len(results) {
		topN = len(results)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Grid search: %d combinations evaluated, top %d by Sharpe ratio\n\n", len(results), topN)
	for _, r := range results[:topN] {
		fmt.Fprintf(&b, "#%-3d score=%-8.3f sharpe=%-8.3f return=%-8.2f%% drawdown=%-7.2f%% params=%s\n",
			r.Rank, r.Score, r.Metrics.SharpeRatio, r.Metrics.TotalReturnPct, r.Metrics.MaxDrawdownPct, formatParams(r.Parameters))
	}
	return b.String()
}

func formatParams(params ParameterSet) string {
	var parts []string
	for k, v := range params {
		parts = append(parts, fmt.Sprintf("%s=%g", k, v))
	}
	return strings.Join(parts, ", ")
}
