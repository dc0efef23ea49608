// Package domain holds the entities shared across the scanner, signal
// engine, paper-trading manager, backtest executor, and fan-out
// components. None of these types carry persistence or transport
// concerns; they are plain data plus the invariants their owning
// components enforce.
package domain

import "time"

// MarketKind distinguishes Binance spot symbols from USDT-margined
// perpetual futures symbols. The two trade on different rate-limit
// budgets and order books even when the underlying asset is the same.
type MarketKind string

const (
	MarketSpot    MarketKind = "SPOT"
	MarketFutures MarketKind = "FUTURES"
)

// Timeframe is a candle interval understood by the exchange client and
// the indicator library.
type Timeframe string

const (
	Timeframe1m  Timeframe = "1m"
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe1h  Timeframe = "1h"
	Timeframe4h  Timeframe = "4h"
	Timeframe1d  Timeframe = "1d"
)

// Symbol is a tradable instrument tracked by the scanner.
type Symbol struct {
	Name        string // e.g. "BTCUSDT"
	Market      MarketKind
	BaseAsset   string
	QuoteAsset  string
	Volume24h   float64
	Active      bool
	LastSyncAt  time.Time
	LastPrice   float64
}

// Candle is a single OHLCV bar.
type Candle struct {
	Symbol    string
	Market    MarketKind
	Timeframe Timeframe
	OpenTime  time.Time
	CloseTime time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Direction is the trade side a Signal recommends.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// SignalStatus tracks a Signal through its lifecycle.
type SignalStatus string

const (
	SignalStatusActive    SignalStatus = "ACTIVE"
	SignalStatusHitTP     SignalStatus = "HIT_TP"
	SignalStatusHitSL     SignalStatus = "HIT_SL"
	SignalStatusExpired   SignalStatus = "EXPIRED"
	SignalStatusCancelled SignalStatus = "CANCELLED"
)

// IsTerminal reports whether status is a terminal lifecycle state.
func (s SignalStatus) IsTerminal() bool {
	return s != SignalStatusActive
}

// TradingType classifies a Signal deterministically from its
// timeframe, per the signal engine's trading-type table.
type TradingType string

const (
	TradingTypeScalping TradingType = "SCALPING"
	TradingTypeDay      TradingType = "DAY"
	TradingTypeSwing    TradingType = "SWING"
)

// ClassifyTradingType maps a timeframe to its base trading type and
// nominal duration, before the confidence multiplier is applied.
func ClassifyTradingType(tf Timeframe) (TradingType, time.Duration) {
	switch tf {
	case Timeframe1m, Timeframe5m:
		return TradingTypeScalping, 30 * time.Minute
	case Timeframe15m, Timeframe1h:
		return TradingTypeDay, 6 * time.Hour
	case Timeframe4h:
		return TradingTypeSwing, 24 * time.Hour
	case Timeframe1d:
		return TradingTypeSwing, 120 * time.Hour
	default:
		return TradingTypeDay, 6 * time.Hour
	}
}

// DurationMultiplier scales a trading type's base duration by signal
// confidence: tighter holds for high-confidence signals.
func DurationMultiplier(confidence float64) float64 {
	switch {
	case confidence >= 0.85:
		return 0.7
	case confidence >= 0.75:
		return 1.0
	default:
		return 1.3
	}
}

// Signal is a detected trade opportunity.
type Signal struct {
	ID             string
	Symbol         string
	Market         MarketKind
	Timeframe      Timeframe
	Direction      Direction
	TradingType    TradingType
	Confidence     float64 // score / total weight, in [0,1]
	Score          float64
	Entry          float64
	CurrentPrice   float64
	StopLoss       float64
	TakeProfit     float64
	RiskReward     float64
	Leverage       float64
	EstimatedHold  time.Duration
	Reasons        []string
	Status         SignalStatus
	CandlesSinceCreated int
	CreatedAt      time.Time
	ExpiresAt      time.Time
	UpdatedAt      time.Time
}

// PaperAccount is an isolated simulated balance the paper-trading
// manager opens positions against.
type PaperAccount struct {
	ID                  string
	Name                string
	Balance             float64
	Equity              float64
	AutoTradeEnabled    bool
	MinSignalConfidence float64
	MaxOpenTrades       int
	SizingMode          SizingMode
	FixedSizeQuote      float64 // notional for SizingFixed
	PercentOfBalance    float64 // fraction of balance for SizingPercent
	KellyFraction       float64 // fraction of full Kelly applied for SizingKelly
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// SizingMode selects how the paper-trading manager converts account
// balance into a position notional.
type SizingMode string

const (
	SizingFixed   SizingMode = "FIXED"
	SizingPercent SizingMode = "PERCENT"
	SizingKelly   SizingMode = "KELLY"
)

// PaperTradeStatus tracks a PaperTrade through its lifecycle.
type PaperTradeStatus string

const (
	PaperTradeOpen      PaperTradeStatus = "OPEN"
	PaperTradeClosed    PaperTradeStatus = "CLOSED"
	PaperTradeCancelled PaperTradeStatus = "CANCELLED"
)

// PaperTradeCloseReason records why a PaperTrade closed.
type PaperTradeCloseReason string

const (
	CloseReasonTakeProfit PaperTradeCloseReason = "TAKE_PROFIT"
	CloseReasonStopLoss   PaperTradeCloseReason = "STOP_LOSS"
	CloseReasonExpired    PaperTradeCloseReason = "EXPIRED"
	CloseReasonCancelled  PaperTradeCloseReason = "CANCELLED"
	CloseReasonManual     PaperTradeCloseReason = "MANUAL"
)

// PaperTrade is a simulated position opened from an approved Signal.
type PaperTrade struct {
	ID           string
	AccountID    string
	SignalID     string
	Symbol       string
	Market       MarketKind
	Direction    Direction
	EntryPrice   float64
	StopLoss     float64
	TakeProfit   float64
	Leverage     float64
	Quantity     float64
	Notional     float64
	Status       PaperTradeStatus
	ExitPrice    float64
	CloseReason  PaperTradeCloseReason
	PnL          float64
	PnLPct       float64
	OpenedAt     time.Time
	ClosedAt     time.Time
}

// RunStatus tracks a BacktestRun through its lifecycle.
type RunStatus string

const (
	RunStatusPending   RunStatus = "PENDING"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

// BacktestMetrics aggregates the performance of a completed BacktestRun.
type BacktestMetrics struct {
	TotalReturnPct  float64
	WinRate         float64
	ProfitFactor    float64 // +Inf if no losses, 0 if no profits and losses exist
	MaxDrawdownPct  float64
	SharpeRatio     float64
	SortinoRatio    float64
	TotalTrades     int
	WinningTrades   int
	LosingTrades    int
	AverageWin      float64
	AverageLoss     float64
}

// BacktestRun is a single historical replay of the signal engine.
type BacktestRun struct {
	ID             string
	Name           string
	Symbols        []string
	Market         MarketKind
	Timeframe      Timeframe
	StartTime      time.Time
	EndTime        time.Time
	InitialBalance float64
	ConfigID       string

	// Position-size rule, mirroring PaperAccount's sizing fields: the
	// executor applies this against the run's own running balance as
	// trades are opened in chronological order.
	SizingMode       SizingMode
	FixedSizeQuote   float64
	PercentOfBalance float64
	KellyFraction    float64

	Status      RunStatus
	Error       string
	Metrics     *BacktestMetrics
	CreatedAt   time.Time
	CompletedAt time.Time
}

// IndicatorWeights holds the canonical scoring weight for each
// predicate recognised by the signal engine. Weights sum to 13.5 in the
// default configuration; confidence is score/13.5.
type IndicatorWeights struct {
	MACDCross      float64 // histogram crossed zero in the last 1-2 candles
	RSIBand        float64 // RSI within the configured long/short band
	PriceVsEMA50   float64 // close vs EMA50
	ADXMin         float64 // ADX at or above the configured floor
	HeikinAshi     float64 // last Heikin-Ashi candle confirms direction
	VolumeSurge    float64 // volume/avg(20) at or above the configured multiplier
	EMAAlignment   float64 // EMA9/EMA21/EMA50 ordering confirms direction
	DirectionalDI  float64 // +DI vs -DI ordering confirms direction
	BollingerMid   float64 // percent-B inside the mid-band, not at extremes
	ATRBand        float64 // ATR/price inside the configured volatility band
}

// TotalWeight returns the sum of all predicate weights, the denominator
// used to turn a raw score into a confidence in [0,1].
func (w IndicatorWeights) TotalWeight() float64 {
	return w.MACDCross + w.RSIBand + w.PriceVsEMA50 + w.ADXMin + w.HeikinAshi +
		w.VolumeSurge + w.EMAAlignment + w.DirectionalDI + w.BollingerMid + w.ATRBand
}

// DefaultIndicatorWeights returns the canonical weights, summing to 13.5.
func DefaultIndicatorWeights() IndicatorWeights {
	return IndicatorWeights{
		MACDCross:     2.0,
		RSIBand:       1.5,
		PriceVsEMA50:  1.8,
		ADXMin:        1.7,
		HeikinAshi:    1.6,
		VolumeSurge:   1.4,
		EMAAlignment:  1.2,
		DirectionalDI: 1.0,
		BollingerMid:  0.8,
		ATRBand:       0.5,
	}
}

// SignalEngineConfig is an immutable, versionable configuration record
// consumed by the signal detection engine.
type SignalEngineConfig struct {
	ID            string
	Name          string
	SchemaVersion string
	Weights       IndicatorWeights

	MinConfidence float64 // default 0.70

	LongRSIMin  float64
	LongRSIMax  float64
	ShortRSIMin float64
	ShortRSIMax float64

	LongADXMin  float64
	ShortADXMin float64

	LongVolumeMultiplier  float64
	ShortVolumeMultiplier float64

	SLATRMultiplier float64
	TPATRMultiplier float64

	FuturesLeverage float64 // default 10
	SpotLeverage    float64 // default 1

	ExpiryMultiplier float64 // candle-count expiry = ExpiryMultiplier x timeframe duration, default 10

	SizingMode         SizingMode
	RiskPctPerTrade    float64
	UseVolatilityAware bool // must stay false; backtest and live both require it

	CreatedAt time.Time
}

// DefaultSignalEngineConfig returns the canonical configuration values
// from the scoring table and dedup/expiry rules.
func DefaultSignalEngineConfig() SignalEngineConfig {
	return SignalEngineConfig{
		SchemaVersion:         "1.0",
		Name:                  "default",
		Weights:               DefaultIndicatorWeights(),
		MinConfidence:         0.70,
		LongRSIMin:            40,
		LongRSIMax:            70,
		ShortRSIMin:           30,
		ShortRSIMax:           60,
		LongADXMin:            20,
		ShortADXMin:           20,
		LongVolumeMultiplier:  1.2,
		ShortVolumeMultiplier: 1.2,
		SLATRMultiplier:       1.5,
		TPATRMultiplier:       3.0,
		FuturesLeverage:       10,
		SpotLeverage:          1,
		ExpiryMultiplier:      10,
		SizingMode:            SizingPercent,
		RiskPctPerTrade:       0.01,
		UseVolatilityAware:    false,
	}
}

// TimeframeDuration returns the nominal duration of one candle for tf.
func TimeframeDuration(tf Timeframe) time.Duration {
	switch tf {
	case Timeframe1m:
		return time.Minute
	case Timeframe5m:
		return 5 * time.Minute
	case Timeframe15m:
		return 15 * time.Minute
	case Timeframe1h:
		return time.Hour
	case Timeframe4h:
		return 4 * time.Hour
	case Timeframe1d:
		return 24 * time.Hour
	default:
		return time.Hour
	}
}

// TimeframePriority ranks timeframes for the cross-timeframe priority
// rule: higher value wins. 1d > 4h > 1h > 15m > 5m > 1m.
func TimeframePriority(tf Timeframe) int {
	switch tf {
	case Timeframe1d:
		return 5
	case Timeframe4h:
		return 4
	case Timeframe1h:
		return 3
	case Timeframe15m:
		return 2
	case Timeframe5m:
		return 1
	case Timeframe1m:
		return 0
	default:
		return 0
	}
}
