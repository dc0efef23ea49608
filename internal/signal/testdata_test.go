package signal

import (
	"math"
	"time"

	"github.com/marketpulse/scanner/internal/domain"
)

// bullishCandles generates a steadily rising series that favours LONG
// over SHORT: rising price (EMA alignment, price > EMA50), a volume
// ramp on the last three candles (volume surge), and a fixed 0.8 wick
// around each body. Closes never fall, so RSI sits at 100, above the
// default long RSI band; the series is not guaranteed to clear the
// approval threshold.
func bullishCandles(n int) []domain.Candle {
	candles := make([]domain.Candle, n)
	price := 100.0
	now := time.Unix(1700000000, 0)
	for i := 0; i < n; i++ {
		open := price
		price += 0.6 + 0.05*math.Sin(float64(i)/3)
		closePrice := price
		high := math.Max(open, closePrice) + 0.8
		low := math.Min(open, closePrice) - 0.8
		vol := 1000.0
		if i >= n-3 {
			vol = 3000.0 // volume surge on the most recent candles
		}
		candles[i] = domain.Candle{
			Symbol:    "TESTUSDT",
			Market:    domain.MarketSpot,
			Timeframe: domain.Timeframe1h,
			OpenTime:  now.Add(time.Duration(i) * time.Hour),
			CloseTime: now.Add(time.Duration(i+1) * time.Hour),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    vol,
		}
	}
	return candles
}

func timeInPast() time.Time   { return time.Now().Add(-time.Hour) }
func timeInFuture() time.Time { return time.Now().Add(time.Hour) }

func flatNoiseCandles(n int) []domain.Candle {
	candles := make([]domain.Candle, n)
	now := time.Unix(1700000000, 0)
	for i := 0; i < n; i++ {
		candles[i] = domain.Candle{
			Symbol:    "TESTUSDT",
			Market:    domain.MarketSpot,
			Timeframe: domain.Timeframe1h,
			OpenTime:  now.Add(time.Duration(i) * time.Hour),
			CloseTime: now.Add(time.Duration(i+1) * time.Hour),
			Open:      100,
			High:      100.2,
			Low:       99.8,
			Close:     100,
			Volume:    1000,
		}
	}
	return candles
}
