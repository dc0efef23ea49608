package indicators

import (
	"math"
	"testing"

	"github.com/marketpulse/scanner/internal/domain"
)

// uptrendCandles generates a steadily rising synthetic OHLCV series of
// length n, useful for sanity-checking indicator direction without
// depending on real market data.
func uptrendCandles(n int) []domain.Candle {
	candles := make([]domain.Candle, n)
	price := 100.0
	for i := 0; i < n; i++ {
		open := price
		price += 1.0
		close := price
		candles[i] = domain.Candle{
			Symbol: "TESTUSDT",
			Open:   open,
			High:   math.Max(open, close) + 0.5,
			Low:    math.Min(open, close) - 0.5,
			Close:  close,
			Volume: 1000 + float64(i),
		}
	}
	return candles
}

func flatCandles(n int) []domain.Candle {
	candles := make([]domain.Candle, n)
	for i := 0; i < n; i++ {
		candles[i] = domain.Candle{Open: 100, High: 100.5, Low: 99.5, Close: 100, Volume: 500}
	}
	return candles
}
