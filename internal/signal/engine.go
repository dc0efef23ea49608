package signal

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/marketpulse/scanner/internal/domain"
	"github.com/marketpulse/scanner/internal/indicators"
)

// Action is the outcome of processing one (symbol, timeframe) scan.
type Action string

const (
	ActionCreated      Action = "created"
	ActionUpdatedPrice Action = "updated_price"
	ActionExpired      Action = "expired"
	ActionNone         Action = "none"
)

// Engine is the weighted multi-indicator scoring state machine. One
// Engine instance is shared across all tracks; it carries no
// per-symbol state of its own beyond the configuration, and learns the
// active-signal universe entirely through its Store.
type Engine struct {
	cfg        domain.SignalEngineConfig
	indicators *indicators.Service
	store      Store

	// replayMode bypasses the active-signal dedup check so a backtest
	// can emit one trade per qualifying bar instead of refreshing a
	// single long-lived signal; cross-timeframe priority still applies.
	replayMode bool
}

// NewEngine constructs a signal engine bound to cfg and store.
func NewEngine(cfg domain.SignalEngineConfig, store Store) *Engine {
	return &Engine{cfg: cfg, indicators: indicators.NewService(), store: store}
}

// NewReplayEngine constructs a signal engine for historical replay: it
// shares all the scoring and cross-timeframe priority logic of a live
// Engine but skips the active-signal dedup suppression, since the
// backtest executor resolves every emitted signal to a trade outcome
// via forward scan rather than refreshing it in place.
func NewReplayEngine(cfg domain.SignalEngineConfig, store Store) *Engine {
	e := NewEngine(cfg, store)
	e.replayMode = true
	return e
}

// Config returns the engine's active configuration.
func (e *Engine) Config() domain.SignalEngineConfig { return e.cfg }

// ActiveSignals returns every ACTIVE signal for (market, timeframe), for
// the scanner's per-tick lifecycle sweep over untouched symbols.
func (e *Engine) ActiveSignals(ctx context.Context, market domain.MarketKind, timeframe domain.Timeframe) ([]domain.Signal, error) {
	return e.store.ActiveByMarketTimeframe(ctx, market, timeframe)
}

// ProcessSymbol scores candles for (symbol, market, timeframe) and
// decides whether to create a new signal, refresh an existing one's
// price, or do nothing. Indicator computation failures on too-short a
// series yield ActionNone rather than an error, per the specified
// failure semantics; store errors propagate since they make
// de-duplication unsafe to skip.
func (e *Engine) ProcessSymbol(ctx context.Context, symbol string, market domain.MarketKind, timeframe domain.Timeframe, candles []domain.Candle) (Action, *domain.Signal, error) {
	action, sig, _, err := e.ProcessSymbolDetail(ctx, symbol, market, timeframe, candles, time.Now())
	return action, sig, err
}

// ProcessSymbolDetail is ProcessSymbol plus the count of lower-priority
// sibling signals cancelled as a side effect, which the scanner's
// per-tick summary reports separately from the primary action. asOf is
// the instant a created signal's age and expiry are measured from: wall
// time for live scanning, the bar's own timestamp for replay.
func (e *Engine) ProcessSymbolDetail(ctx context.Context, symbol string, market domain.MarketKind, timeframe domain.Timeframe, candles []domain.Candle, asOf time.Time) (Action, *domain.Signal, int, error) {
	snap, err := computeSnapshot(e.indicators, candles)
	if err != nil {
		log.Debug().Str("symbol", symbol).Err(err).Msg("signal: insufficient data, skipping")
		return ActionNone, nil, 0, nil
	}

	long := scoreDirection(snap, e.cfg, domain.DirectionLong)
	short := scoreDirection(snap, e.cfg, domain.DirectionShort)

	var best *scoreResult
	if long.confidence >= e.cfg.MinConfidence && long.confidence >= short.confidence {
		best = &long
	} else if short.confidence >= e.cfg.MinConfidence {
		best = &short
	}

	if best == nil {
		return ActionNone, nil, 0, nil
	}

	candidate := e.buildSignal(symbol, market, timeframe, snap, *best, asOf)

	if !e.replayMode {
		// De-duplication: an unreachable store must suppress emission
		// rather than risk a duplicate, so any lookup error here is
		// fatal to this scan rather than swallowed.
		existing, err := e.store.ActiveByKey(ctx, symbol, market, candidate.Direction, timeframe)
		if err != nil {
			return ActionNone, nil, 0, fmt.Errorf("signal: dedup lookup failed, suppressing emission: %w", err)
		}
		if existing != nil {
			window := dedupWindow(timeframe)
			if asOf.Sub(existing.CreatedAt) < window && withinPct(existing.Entry, candidate.Entry, 0.01) {
				if err := e.store.Touch(ctx, existing.ID, candidate.Entry); err != nil {
					return ActionNone, nil, 0, fmt.Errorf("signal: failed to refresh active signal: %w", err)
				}
				return ActionUpdatedPrice, existing, 0, nil
			}
		}
	}

	// Cross-timeframe priority.
	siblings, err := e.store.ActiveAcrossTimeframes(ctx, symbol, market, candidate.Direction)
	if err != nil {
		return ActionNone, nil, 0, fmt.Errorf("signal: priority lookup failed, suppressing emission: %w", err)
	}
	myPriority := domain.TimeframePriority(timeframe)
	for _, sib := range siblings {
		sibPriority := domain.TimeframePriority(sib.Timeframe)
		if sibPriority > myPriority {
			// Higher-priority timeframe already active: suppress.
			return ActionNone, nil, 0, nil
		}
	}
	cancelled := 0
	for _, sib := range siblings {
		if domain.TimeframePriority(sib.Timeframe) < myPriority {
			if err := e.store.UpdateStatus(ctx, sib.ID, domain.SignalStatusCancelled); err != nil {
				return ActionNone, nil, cancelled, fmt.Errorf("signal: failed to cancel lower-priority signal: %w", err)
			}
			cancelled++
		}
	}

	if err := e.store.Create(ctx, candidate); err != nil {
		return ActionNone, nil, cancelled, fmt.Errorf("signal: failed to persist signal: %w", err)
	}

	return ActionCreated, &candidate, cancelled, nil
}

func (e *Engine) buildSignal(symbol string, market domain.MarketKind, timeframe domain.Timeframe, snap *snapshot, best scoreResult, now time.Time) domain.Signal {
	entry := snap.close
	sign := 1.0
	if best.direction == domain.DirectionShort {
		sign = -1.0
	}

	sl := entry - sign*snap.atr.Value*e.cfg.SLATRMultiplier
	tp := entry + sign*snap.atr.Value*e.cfg.TPATRMultiplier

	rr := 0.0
	if denom := math.Abs(entry - sl); denom > 0 {
		rr = math.Abs(tp-entry) / denom
	}

	leverage := e.cfg.SpotLeverage
	if market == domain.MarketFutures {
		leverage = e.cfg.FuturesLeverage
	}

	tradingType, baseDuration := domain.ClassifyTradingType(timeframe)
	estimatedHold := time.Duration(float64(baseDuration) * domain.DurationMultiplier(best.confidence))
	expiry := time.Duration(e.cfg.ExpiryMultiplier * float64(domain.TimeframeDuration(timeframe)))

	return domain.Signal{
		ID:           uuid.New().String(),
		Symbol:       symbol,
		Market:       market,
		Timeframe:    timeframe,
		Direction:    best.direction,
		TradingType:  tradingType,
		Confidence:   best.confidence,
		Score:        best.score,
		Entry:        entry,
		CurrentPrice: entry,
		StopLoss:     sl,
		TakeProfit:   tp,
		RiskReward:    rr,
		Leverage:      leverage,
		EstimatedHold: estimatedHold,
		Reasons:       best.reasons,
		Status:       domain.SignalStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
		ExpiresAt:    now.Add(expiry),
	}
}

// EvaluateLifecycle re-checks a single ACTIVE signal against the latest
// candle evidence, transitioning it to HIT_TP, HIT_SL, or EXPIRED where
// warranted. The scanner calls this once per tick for every ACTIVE
// signal whose (symbol, timeframe) produced no new signal this tick.
func (e *Engine) EvaluateLifecycle(ctx context.Context, sig domain.Signal, latest domain.Candle, asOf time.Time) (domain.SignalStatus, error) {
	if sig.Status != domain.SignalStatusActive {
		return sig.Status, nil
	}

	hitTP, hitSL := false, false
	if sig.Direction == domain.DirectionLong {
		hitTP = latest.High >= sig.TakeProfit
		hitSL = latest.Low <= sig.StopLoss
	} else {
		hitTP = latest.Low <= sig.TakeProfit
		hitSL = latest.High >= sig.StopLoss
	}

	switch {
	case hitSL && hitTP:
		// Conservative tie rule: assume the adverse fill when both are
		// reachable within the same candle.
		return e.transition(ctx, sig.ID, domain.SignalStatusHitSL)
	case hitTP:
		return e.transition(ctx, sig.ID, domain.SignalStatusHitTP)
	case hitSL:
		return e.transition(ctx, sig.ID, domain.SignalStatusHitSL)
	}

	// ExpiresAt was set to CreatedAt + ExpiryMultiplier x timeframe
	// duration at creation time.
	if asOf.After(sig.ExpiresAt) {
		return e.transition(ctx, sig.ID, domain.SignalStatusExpired)
	}

	return domain.SignalStatusActive, nil
}

func (e *Engine) transition(ctx context.Context, id string, status domain.SignalStatus) (domain.SignalStatus, error) {
	if err := e.store.UpdateStatus(ctx, id, status); err != nil {
		return domain.SignalStatusActive, fmt.Errorf("signal: failed to transition %s to %s: %w", id, status, err)
	}
	return status, nil
}

func dedupWindow(tf domain.Timeframe) time.Duration {
	return time.Duration(float64(domain.TimeframeDuration(tf)) * 0.9)
}

func withinPct(a, b, pct float64) bool {
	if a == 0 {
		return b == 0
	}
	return math.Abs(a-b)/math.Abs(a) <= pct
}
