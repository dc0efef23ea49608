package backtest

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/marketpulse/scanner/internal/domain"
)

var errLoadFailed = errors.New("candle load failed")

// bullishCandles generates a long trending, high-volume series (same
// construction as the signal package's own fixture) long enough to
// both clear the engine's minimum window and produce several
// qualifying bars over its length, which the replay loop needs to
// actually emit more than one trade.
func bullishCandles(n int, start time.Time) []domain.Candle {
	candles := make([]domain.Candle, n)
	price := 100.0
	for i := 0; i < n; i++ {
		open := price
		price += 0.6 + 0.05*math.Sin(float64(i)/3)
		closePrice := price
		high := math.Max(open, closePrice) + 0.8
		low := math.Min(open, closePrice) - 0.8
		vol := 1000.0
		if i%10 >= 7 {
			vol = 3000.0
		}
		candles[i] = domain.Candle{
			Symbol:    "TESTUSDT",
			Market:    domain.MarketSpot,
			Timeframe: domain.Timeframe1h,
			OpenTime:  start.Add(time.Duration(i) * time.Hour),
			CloseTime: start.Add(time.Duration(i+1) * time.Hour),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    vol,
		}
	}
	return candles
}

func flatCandles(n int, start time.Time) []domain.Candle {
	candles := make([]domain.Candle, n)
	for i := 0; i < n; i++ {
		candles[i] = domain.Candle{
			Symbol:    "TESTUSDT",
			Market:    domain.MarketSpot,
			Timeframe: domain.Timeframe1h,
			OpenTime:  start.Add(time.Duration(i) * time.Hour),
			CloseTime: start.Add(time.Duration(i+1) * time.Hour),
			Open:      100,
			High:      100.2,
			Low:       99.8,
			Close:     100,
			Volume:    1000,
		}
	}
	return candles
}

// fakeCandleLoader serves a fixed in-memory candle set per symbol, for
// Executor tests that don't need a real persistence layer.
type fakeCandleLoader struct {
	bySymbol map[string][]domain.Candle
}

func (f *fakeCandleLoader) LoadCandles(_ context.Context, symbol string, _ domain.MarketKind, _ domain.Timeframe, _, _ time.Time) ([]domain.Candle, error) {
	return f.bySymbol[symbol], nil
}

// erroringCandleLoader always fails, for exercising the executor's
// FAILED-on-load-error path.
type erroringCandleLoader struct{}

func (erroringCandleLoader) LoadCandles(_ context.Context, _ string, _ domain.MarketKind, _ domain.Timeframe, _, _ time.Time) ([]domain.Candle, error) {
	return nil, errLoadFailed
}
