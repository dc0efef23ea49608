package indicators

import (
	"github.com/cinar/indicator/v2/momentum"

	"github.com/marketpulse/scanner/internal/domain"
)

// RSIResult represents the RSI calculation result.
type RSIResult struct {
	Value  float64
	Signal string // "oversold", "overbought", "neutral"
}

// CalculateRSI computes the Relative Strength Index over period candles
// (default 14) via cinar/indicator's Wilder-smoothed RSI.
func (s *Service) CalculateRSI(candles []domain.Candle, period int) (*RSIResult, error) {
	if period <= 0 {
		period = 14
	}
	if err := requireMinLen(candles, period+1, "RSI"); err != nil {
		return nil, err
	}

	prices := closes(candles)
	pricesChan := make(chan float64, len(prices))
	for _, p := range prices {
		pricesChan <- p
	}
	close(pricesChan)

	rsiIndicator := momentum.NewRsiWithPeriod[float64](period)
	rsiChan := rsiIndicator.Compute(pricesChan)

	var rsiValues []float64
	for val := range rsiChan {
		rsiValues = append(rsiValues, val)
	}

	currentRSI := rsiValues[len(rsiValues)-1]

	signal := "neutral"
	if currentRSI < 30 {
		signal = "oversold"
	} else if currentRSI > 70 {
		signal = "overbought"
	}

	return &RSIResult{Value: currentRSI, Signal: signal}, nil
}
