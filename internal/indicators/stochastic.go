package indicators

import (
	"github.com/marketpulse/scanner/internal/domain"
)

// StochasticResult represents the Stochastic Oscillator calculation
// result.
type StochasticResult struct {
	K      float64
	D      float64
	Signal string // "oversold", "overbought", "neutral"
}

// CalculateStochastic computes the slow Stochastic Oscillator
// (%K period, %K smoothing, and %D period) over candles. Stochastic
// has no counterpart in cinar/indicator v2 and is implemented by hand.
func (s *Service) CalculateStochastic(candles []domain.Candle, kPeriod, kSmooth, dPeriod int) (*StochasticResult, error) {
	if kPeriod <= 0 {
		kPeriod = 14
	}
	if kSmooth <= 0 {
		kSmooth = 3
	}
	if dPeriod <= 0 {
		dPeriod = 3
	}
	if err := requireMinLen(candles, kPeriod+kSmooth+dPeriod, "Stochastic"); err != nil {
		return nil, err
	}

	high := highs(candles)
	low := lows(candles)
	closePrices := closes(candles)
	n := len(closePrices)

	rawK := make([]float64, n)
	for i := kPeriod - 1; i < n; i++ {
		highestHigh := high[i-kPeriod+1]
		lowestLow := low[i-kPeriod+1]
		for j := i - kPeriod + 2; j <= i; j++ {
			if high[j] > highestHigh {
				highestHigh = high[j]
			}
			if low[j] < lowestLow {
				lowestLow = low[j]
			}
		}
		denom := highestHigh - lowestLow
		if denom == 0 {
			rawK[i] = 50
			continue
		}
		rawK[i] = 100 * (closePrices[i] - lowestLow) / denom
	}

	smoothK := sma(rawK, kPeriod-1, kSmooth)
	smoothD := sma(smoothK, 0, dPeriod)

	k := smoothK[len(smoothK)-1]
	d := smoothD[len(smoothD)-1]

	signal := "neutral"
	if k < 20 && d < 20 {
		signal = "oversold"
	} else if k > 80 && d > 80 {
		signal = "overbought"
	}

	return &StochasticResult{K: k, D: d, Signal: signal}, nil
}

// sma returns a trailing simple moving average of data[from:], one value
// per input index once period samples are available; indices before
// that remain zero.
func sma(data []float64, from, period int) []float64 {
	n := len(data)
	result := make([]float64, n)
	sum := 0.0
	for i := from; i < n; i++ {
		sum += data[i]
		if i-from >= period {
			sum -= data[i-period]
		}
		if i-from >= period-1 {
			result[i] = sum / float64(period)
		}
	}
	return result
}
