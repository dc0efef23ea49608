package indicators

import (
	"github.com/cinar/indicator/v2/trend"

	"github.com/marketpulse/scanner/internal/domain"
)

// EMAResult represents the EMA calculation result.
type EMAResult struct {
	Value float64
	Trend string // "bullish", "bearish", "neutral"
}

// CalculateEMA computes the Exponential Moving Average over period
// candles via cinar/indicator.
func (s *Service) CalculateEMA(candles []domain.Candle, period int) (*EMAResult, error) {
	if err := requireMinLen(candles, period, "EMA"); err != nil {
		return nil, err
	}

	prices := closes(candles)
	pricesChan := make(chan float64, len(prices))
	for _, p := range prices {
		pricesChan <- p
	}
	close(pricesChan)

	emaIndicator := trend.NewEmaWithPeriod[float64](period)
	emaChan := emaIndicator.Compute(pricesChan)

	var emaValues []float64
	for val := range emaChan {
		emaValues = append(emaValues, val)
	}

	currentEMA := emaValues[len(emaValues)-1]
	currentPrice := prices[len(prices)-1]

	trendSignal := "neutral"
	if currentPrice > currentEMA {
		trendSignal = "bullish"
	} else if currentPrice < currentEMA {
		trendSignal = "bearish"
	}

	return &EMAResult{Value: currentEMA, Trend: trendSignal}, nil
}
