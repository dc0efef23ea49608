// Package backtest replays historical candles through the signal engine
// and aggregates the resulting simulated trades into a performance
// report for a BacktestRun.
package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/marketpulse/scanner/internal/domain"
	"github.com/marketpulse/scanner/internal/signal"
)

const (
	minCandlesPerSymbol = 50
	replayWindow        = 200
)

// SimulatedTrade is one signal's outcome under forward-scan exit
// simulation.
type SimulatedTrade struct {
	Symbol     string
	Direction  domain.Direction
	EntryPrice float64
	ExitPrice  float64
	StopLoss   float64
	TakeProfit float64
	Leverage   float64
	Outcome    domain.SignalStatus // HIT_TP, HIT_SL, or EXPIRED
	OpenedAt   time.Time
	ClosedAt   time.Time

	// Quantity and PnL are left zero by replaySymbol/forwardScan; the
	// executor fills them in once trades from every symbol are merged
	// and sorted into a single chronological open order, since sizing
	// depends on the run's running balance at the moment each trade
	// opens.
	Quantity float64
	PnL      float64
	PnLPct   float64
}

// ErrMalformedCandles classifies a run-failing data problem so callers
// can distinguish it from a transient infrastructure error.
type ErrMalformedCandles struct {
	Symbol string
	Reason string
}

func (e *ErrMalformedCandles) Error() string {
	return fmt.Sprintf("backtest: malformed candles for %s: %s", e.Symbol, e.Reason)
}

func validateCandles(symbol string, candles []domain.Candle) error {
	if len(candles) < minCandlesPerSymbol {
		return &ErrMalformedCandles{Symbol: symbol, Reason: fmt.Sprintf("need at least %d candles, got %d", minCandlesPerSymbol, len(candles))}
	}
	for i, c := range candles {
		if c.High < c.Low || c.Close <= 0 || c.Open <= 0 {
			return &ErrMalformedCandles{Symbol: symbol, Reason: fmt.Sprintf("candle %d has invalid OHLC", i)}
		}
		if i > 0 && !c.CloseTime.After(candles[i-1].CloseTime) {
			return &ErrMalformedCandles{Symbol: symbol, Reason: fmt.Sprintf("candle %d is out of time order", i)}
		}
	}
	return nil
}

// replaySymbol walks one symbol's candle series bar by bar, feeding a
// trailing window to a replay-mode signal engine and forward-scanning
// every emitted signal to its SL/TP/expiry outcome.
func replaySymbol(ctx context.Context, cfg domain.SignalEngineConfig, market domain.MarketKind, timeframe domain.Timeframe, symbol string, candles []domain.Candle) ([]SimulatedTrade, error) {
	if err := validateCandles(symbol, candles); err != nil {
		return nil, err
	}

	store := signal.NewMemoryStore()
	engine := signal.NewReplayEngine(cfg, store)

	var trades []SimulatedTrade
	for i := minCandlesPerSymbol - 1; i < len(candles); i++ {
		start := i - replayWindow + 1
		if start < 0 {
			start = 0
		}
		window := candles[start : i+1]
		asOf := candles[i].CloseTime

		action, sig, _, err := engine.ProcessSymbolDetail(ctx, symbol, market, timeframe, window, asOf)
		if err != nil {
			return nil, fmt.Errorf("backtest: replay step failed for %s at candle %d: %w", symbol, i, err)
		}
		if action != signal.ActionCreated {
			continue
		}

		trade := forwardScan(ctx, engine, *sig, candles, i)
		trades = append(trades, trade)
	}

	log.Debug().Str("symbol", symbol).Int("trades", len(trades)).Msg("backtest: symbol replay complete")
	return trades, nil
}

// forwardScan resolves sig to its exit outcome by scanning candles
// after startIdx, applying the same conservative same-bar tie rule as
// live lifecycle evaluation. If the series ends before a bound is hit,
// the trade exits at the last candle's close as EXPIRED.
func forwardScan(ctx context.Context, engine *signal.Engine, sig domain.Signal, candles []domain.Candle, startIdx int) SimulatedTrade {
	trade := SimulatedTrade{
		Symbol:     sig.Symbol,
		Direction:  sig.Direction,
		EntryPrice: sig.Entry,
		StopLoss:   sig.StopLoss,
		TakeProfit: sig.TakeProfit,
		Leverage:   sig.Leverage,
		OpenedAt:   sig.CreatedAt,
	}

	for j := startIdx + 1; j < len(candles); j++ {
		c := candles[j]
		status, err := engine.EvaluateLifecycle(ctx, sig, c, c.CloseTime)
		if err != nil {
			log.Warn().Err(err).Str("symbol", sig.Symbol).Msg("backtest: forward-scan lifecycle evaluation failed")
			continue
		}
		if status == domain.SignalStatusActive {
			continue
		}

		trade.Outcome = status
		trade.ClosedAt = c.CloseTime
		switch status {
		case domain.SignalStatusHitTP:
			trade.ExitPrice = sig.TakeProfit
		case domain.SignalStatusHitSL:
			trade.ExitPrice = sig.StopLoss
		default:
			trade.ExitPrice = c.Close
		}
		return trade
	}

	last := candles[len(candles)-1]
	trade.Outcome = domain.SignalStatusExpired
	trade.ExitPrice = last.Close
	trade.ClosedAt = last.CloseTime
	return trade
}

