package backtest

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/marketpulse/scanner/internal/domain"
)

// CandleLoader fetches the historical candles a run needs. Persistence
// (Postgres or a CSV cache) and an in-memory fixture both satisfy this
// for the executor and for tests respectively.
type CandleLoader interface {
	LoadCandles(ctx context.Context, symbol string, market domain.MarketKind, timeframe domain.Timeframe, start, end time.Time) ([]domain.Candle, error)
}

// Executor replays a BacktestRun to completion, saving progress through
// the given Store so PENDING -> RUNNING -> {COMPLETED, FAILED} is
// observable by a caller polling the run.
type Executor struct {
	candles CandleLoader
	store   Store
	timeout time.Duration
}

// NewExecutor constructs an Executor. timeout bounds the whole run
// (default one hour) and is enforced as a context deadline, not a
// best-effort check, so a hung replay cannot run unbounded.
func NewExecutor(candles CandleLoader, store Store, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = time.Hour
	}
	return &Executor{candles: candles, store: store, timeout: timeout}
}

// Run executes run.ID end to end: loads candles for every symbol,
// replays each through an isolated replay-mode signal engine, merges
// and sizes the resulting trades in chronological open order, and
// persists the terminal COMPLETED or FAILED state.
func (ex *Executor) Run(ctx context.Context, run domain.BacktestRun, cfg domain.SignalEngineConfig) (*domain.BacktestRun, []SimulatedTrade, error) {
	ctx, cancel := context.WithTimeout(ctx, ex.timeout)
	defer cancel()

	candlesBySymbol, err := ex.loadAll(ctx, run)
	if err != nil {
		run.Status = domain.RunStatusFailed
		run.Error = err.Error()
		run.CompletedAt = time.Now()
		if uerr := ex.store.Update(ctx, run); uerr != nil {
			log.Error().Err(uerr).Str("run_id", run.ID).Msg("backtest: failed to persist FAILED status")
		}
		return &run, nil, err
	}

	return ex.runWithCandles(ctx, run, cfg, candlesBySymbol)
}

// runWithCandles is Run minus the candle load, so the grid-search
// optimizer can replay the same (symbol -> candles) map across many
// parameter combinations without re-fetching it each time.
func (ex *Executor) runWithCandles(ctx context.Context, run domain.BacktestRun, cfg domain.SignalEngineConfig, candlesBySymbol map[string][]domain.Candle) (*domain.BacktestRun, []SimulatedTrade, error) {
	run.Status = domain.RunStatusRunning
	if err := ex.store.Update(ctx, run); err != nil {
		return nil, nil, fmt.Errorf("backtest: failed to mark run running: %w", err)
	}

	// Crucial correctness requirement: a backtest always respects the
	// run's own configured parameters. Any volatility-aware override in
	// the engine would make identical (candles, config) pairs produce
	// different signals depending on when the run executes.
	if cfg.UseVolatilityAware {
		log.Warn().Str("run_id", run.ID).Msg("backtest: forcing use_volatility_aware=false for replay determinism")
		cfg.UseVolatilityAware = false
	}

	trades, err := ex.replayAll(ctx, run, cfg, candlesBySymbol)
	if err != nil {
		run.Status = domain.RunStatusFailed
		run.Error = err.Error()
		run.CompletedAt = time.Now()
		if uerr := ex.store.Update(ctx, run); uerr != nil {
			log.Error().Err(uerr).Str("run_id", run.ID).Msg("backtest: failed to persist FAILED status")
		}
		return &run, nil, err
	}

	sort.Slice(trades, func(i, j int) bool { return trades[i].OpenedAt.Before(trades[j].OpenedAt) })
	sizeAndSettle(run, trades)

	run.Metrics = aggregate(run, trades)
	run.Status = domain.RunStatusCompleted
	run.CompletedAt = time.Now()
	if err := ex.store.SaveTrades(ctx, run.ID, trades); err != nil {
		return nil, nil, fmt.Errorf("backtest: failed to persist trade log: %w", err)
	}
	if err := ex.store.Update(ctx, run); err != nil {
		return nil, nil, fmt.Errorf("backtest: failed to persist completed run: %w", err)
	}

	return &run, trades, nil
}

func (ex *Executor) loadAll(ctx context.Context, run domain.BacktestRun) (map[string][]domain.Candle, error) {
	out := make(map[string][]domain.Candle, len(run.Symbols))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, symbol := range run.Symbols {
		symbol := symbol
		g.Go(func() error {
			candles, err := ex.candles.LoadCandles(gctx, symbol, run.Market, run.Timeframe, run.StartTime, run.EndTime)
			if err != nil {
				return fmt.Errorf("backtest: failed to load candles for %s: %w", symbol, err)
			}
			mu.Lock()
			out[symbol] = candles
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// replayAll replays every symbol's already-loaded candles concurrently;
// a failure on any symbol fails the whole run, since a partial trade
// log would violate the COMPLETED-implies-complete-metrics invariant.
func (ex *Executor) replayAll(ctx context.Context, run domain.BacktestRun, cfg domain.SignalEngineConfig, candlesBySymbol map[string][]domain.Candle) ([]SimulatedTrade, error) {
	var mu sync.Mutex
	var all []SimulatedTrade
	g, gctx := errgroup.WithContext(ctx)

	for symbol, candles := range candlesBySymbol {
		symbol, candles := symbol, candles
		g.Go(func() error {
			trades, err := replaySymbol(gctx, cfg, run.Market, run.Timeframe, symbol, candles)
			if err != nil {
				return err
			}
			mu.Lock()
			all = append(all, trades...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return all, nil
}

// sizeAndSettle walks trades in chronological open order, sizing each
// one against the run's running balance under its configured sizing
// mode and computing its realized P&L. Trades must already be sorted
// by OpenedAt; sizing and the Kelly sample pool both depend on that
// order, which is itself fully determined by the input candles, so
// re-running the same inputs reproduces the same balance path.
func sizeAndSettle(run domain.BacktestRun, trades []SimulatedTrade) {
	balance := run.InitialBalance
	var closed []SimulatedTrade

	for i := range trades {
		t := &trades[i]

		var notional float64
		switch run.SizingMode {
		case domain.SizingPercent:
			notional = balance * run.PercentOfBalance
		case domain.SizingKelly:
			notional = balance * kellyFraction(computeTradeStats(closed), run.KellyFraction)
		default: // SizingFixed, and the zero value
			notional = run.FixedSizeQuote
		}
		if notional < 0 {
			notional = 0
		}

		t.Quantity = notional / t.EntryPrice

		sign := 1.0
		if t.Direction == domain.DirectionShort {
			sign = -1.0
		}
		t.PnL = sign * (t.ExitPrice - t.EntryPrice) * t.Quantity * t.Leverage
		if notional > 0 {
			t.PnLPct = t.PnL / notional
		}

		balance += t.PnL
		closed = append(closed, *t)
	}
}

// aggregate computes the run's performance report from its settled
// trade log: win rate, total return, profit factor with the explicit
// +Inf/0 edge cases, max drawdown over the realized equity curve, and
// a trade-frequency-annualized Sharpe/Sortino pair.
func aggregate(run domain.BacktestRun, trades []SimulatedTrade) *domain.BacktestMetrics {
	m := &domain.BacktestMetrics{}
	if len(trades) == 0 {
		m.ProfitFactor = 0
		return m
	}

	var totalPnL, sumProfit, sumLoss float64
	var losses int
	returns := make([]float64, 0, len(trades))

	equity := run.InitialBalance
	peak := equity
	maxDrawdown := 0.0

	for _, t := range trades {
		m.TotalTrades++
		totalPnL += t.PnL
		returns = append(returns, t.PnLPct)

		equity += t.PnL
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			if dd := (peak - equity) / peak; dd > maxDrawdown {
				maxDrawdown = dd
			}
		}

		switch {
		case t.PnL > 0:
			m.WinningTrades++
			sumProfit += t.PnL
		case t.PnL < 0:
			losses++
			sumLoss += -t.PnL
		}
	}

	m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades)
	m.LosingTrades = losses
	if run.InitialBalance > 0 {
		m.TotalReturnPct = totalPnL / run.InitialBalance * 100
	}
	m.MaxDrawdownPct = maxDrawdown * 100

	switch {
	case sumLoss == 0 && sumProfit > 0:
		m.ProfitFactor = math.Inf(1)
	case sumProfit == 0:
		m.ProfitFactor = 0
	default:
		m.ProfitFactor = sumProfit / sumLoss
	}

	if m.WinningTrades > 0 {
		m.AverageWin = sumProfit / float64(m.WinningTrades)
	}
	if losses > 0 {
		m.AverageLoss = -sumLoss / float64(losses)
	}

	m.SharpeRatio, m.SortinoRatio = riskAdjustedReturns(returns, run)
	return m
}

// riskAdjustedReturns computes Sharpe and Sortino ratios on per-trade
// returns, annualized by the observed trade frequency over the run's
// window rather than a fixed periods-per-year constant, since trades
// don't occur on a fixed calendar cadence.
func riskAdjustedReturns(returns []float64, run domain.BacktestRun) (sharpe, sortino float64) {
	n := len(returns)
	if n < 2 {
		return 0, 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(n)

	var variance, downsideVariance float64
	var downsideN int
	for _, r := range returns {
		d := r - mean
		variance += d * d
		if r < 0 {
			downsideVariance += r * r
			downsideN++
		}
	}
	variance /= float64(n)
	stdev := math.Sqrt(variance)

	years := run.EndTime.Sub(run.StartTime).Hours() / 24 / 365.25
	tradesPerYear := float64(n)
	if years > 0 {
		tradesPerYear = float64(n) / years
	}
	annualize := math.Sqrt(tradesPerYear)

	if stdev > 0 {
		sharpe = (mean / stdev) * annualize
	}
	if downsideN > 0 {
		downsideStdev := math.Sqrt(downsideVariance / float64(downsideN))
		if downsideStdev > 0 {
			sortino = (mean / downsideStdev) * annualize
		}
	}
	return sharpe, sortino
}
