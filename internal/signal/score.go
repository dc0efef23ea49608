package signal

import (
	"fmt"

	"github.com/marketpulse/scanner/internal/domain"
	"github.com/marketpulse/scanner/internal/indicators"
)

// snapshot holds every indicator value process_symbol needs, computed
// once per (symbol, timeframe) and scored against both directions.
type snapshot struct {
	close   float64
	macd    *indicators.MACDResult
	rsi     *indicators.RSIResult
	ema9    *indicators.EMAResult
	ema21   *indicators.EMAResult
	ema50   *indicators.EMAResult
	adx     *indicators.ADXResult
	atr     *indicators.ATRResult
	ha      *indicators.HeikinAshiResult
	volSMA  *indicators.VolumeSMAResult
	boll    *indicators.BollingerBandsResult
}

// minCandles is the shortest series every indicator in the scoring
// table can be computed from (EMA50 and MACD(26,9) are the long poles).
const minCandles = 60

func computeSnapshot(svc *indicators.Service, candles []domain.Candle) (*snapshot, error) {
	if err := requireLen(candles, minCandles); err != nil {
		return nil, err
	}

	macd, err := svc.CalculateMACD(candles, 12, 26, 9)
	if err != nil {
		return nil, err
	}
	rsi, err := svc.CalculateRSI(candles, 14)
	if err != nil {
		return nil, err
	}
	ema9, err := svc.CalculateEMA(candles, 9)
	if err != nil {
		return nil, err
	}
	ema21, err := svc.CalculateEMA(candles, 21)
	if err != nil {
		return nil, err
	}
	ema50, err := svc.CalculateEMA(candles, 50)
	if err != nil {
		return nil, err
	}
	adx, err := svc.CalculateADX(candles, 14)
	if err != nil {
		return nil, err
	}
	atr, err := svc.CalculateATR(candles, 14)
	if err != nil {
		return nil, err
	}
	ha, err := svc.CalculateHeikinAshi(candles)
	if err != nil {
		return nil, err
	}
	volSMA, err := svc.CalculateVolumeSMA(candles, 20)
	if err != nil {
		return nil, err
	}
	boll, err := svc.CalculateBollingerBands(candles, 20)
	if err != nil {
		return nil, err
	}

	return &snapshot{
		close:  candles[len(candles)-1].Close,
		macd:   macd,
		rsi:    rsi,
		ema9:   ema9,
		ema21:  ema21,
		ema50:  ema50,
		adx:    adx,
		atr:    atr,
		ha:     ha,
		volSMA: volSMA,
		boll:   boll,
	}, nil
}

func requireLen(candles []domain.Candle, min int) error {
	if len(candles) < min {
		return fmt.Errorf("signal: insufficient data: need at least %d candles, got %d", min, len(candles))
	}
	return nil
}

// scoreResult is the outcome of scoring one direction.
type scoreResult struct {
	direction  domain.Direction
	score      float64
	confidence float64
	reasons    []string
}

// scoreDirection evaluates the weighted predicate table for dir against
// snap, per the canonical scoring algorithm (LONG predicates as given;
// SHORT is the symmetric inversion).
func scoreDirection(snap *snapshot, cfg domain.SignalEngineConfig, dir domain.Direction) scoreResult {
	w := cfg.Weights
	total := w.TotalWeight()
	var score float64
	var reasons []string

	add := func(ok bool, weight float64, reason string) {
		if ok {
			score += weight
			reasons = append(reasons, reason)
		}
	}

	isLong := dir == domain.DirectionLong

	if isLong {
		add(snap.macd.CrossedBullishRecently, w.MACDCross, "macd histogram crossed above zero")
		add(snap.rsi.Value >= cfg.LongRSIMin && snap.rsi.Value <= cfg.LongRSIMax, w.RSIBand, "rsi within long band")
		add(snap.close > snap.ema50.Value, w.PriceVsEMA50, "price above ema50")
		add(snap.adx.Value >= cfg.LongADXMin, w.ADXMin, "adx confirms trend strength")
		add(snap.ha.Trend == "bullish", w.HeikinAshi, "heikin-ashi bullish")
		add(snap.volSMA.Ratio >= cfg.LongVolumeMultiplier, w.VolumeSurge, "volume surge above average")
		add(snap.ema9.Value > snap.ema21.Value && snap.ema21.Value > snap.ema50.Value, w.EMAAlignment, "ema9 > ema21 > ema50")
		add(snap.adx.PlusDI > snap.adx.MinusDI, w.DirectionalDI, "+di above -di")
	} else {
		add(snap.macd.CrossedBearishRecently, w.MACDCross, "macd histogram crossed below zero")
		add(snap.rsi.Value >= cfg.ShortRSIMin && snap.rsi.Value <= cfg.ShortRSIMax, w.RSIBand, "rsi within short band")
		add(snap.close < snap.ema50.Value, w.PriceVsEMA50, "price below ema50")
		add(snap.adx.Value >= cfg.ShortADXMin, w.ADXMin, "adx confirms trend strength")
		add(snap.ha.Trend == "bearish", w.HeikinAshi, "heikin-ashi bearish")
		add(snap.volSMA.Ratio >= cfg.ShortVolumeMultiplier, w.VolumeSurge, "volume surge above average")
		add(snap.ema9.Value < snap.ema21.Value && snap.ema21.Value < snap.ema50.Value, w.EMAAlignment, "ema9 < ema21 < ema50")
		add(snap.adx.MinusDI > snap.adx.PlusDI, w.DirectionalDI, "-di above +di")
	}

	// Direction-agnostic predicates: not at Bollinger extremes, ATR in a
	// tradeable volatility band. Both apply identically to LONG and
	// SHORT since they describe the market regime, not its direction.
	add(snap.boll.PercentB >= 0.30 && snap.boll.PercentB <= 0.70, w.BollingerMid, "percent-b inside mid-band")
	atrRatio := snap.atr.Value / snap.close
	add(atrRatio >= 0.005 && atrRatio <= 0.04, w.ATRBand, "atr/price in tradeable band")

	confidence := 0.0
	if total > 0 {
		confidence = score / total
	}

	return scoreResult{direction: dir, score: score, confidence: confidence, reasons: reasons}
}
