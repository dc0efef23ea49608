package indicators

import (
	"github.com/cinar/indicator/v2/trend"

	"github.com/marketpulse/scanner/internal/domain"
)

// MACDResult represents the MACD calculation result.
type MACDResult struct {
	MACD      float64
	Signal    float64
	Histogram float64
	Crossover string // "bullish", "bearish", "none" - zero-cross on the latest candle
	// CrossedBullishRecently is true if the histogram crossed above zero
	// on the latest candle or the one before it.
	CrossedBullishRecently bool
	CrossedBearishRecently bool
}

// CalculateMACD computes Moving Average Convergence Divergence with the
// canonical 12/26/9 periods via cinar/indicator.
func (s *Service) CalculateMACD(candles []domain.Candle, fastPeriod, slowPeriod, signalPeriod int) (*MACDResult, error) {
	if fastPeriod >= slowPeriod {
		fastPeriod, slowPeriod = 12, 26
	}
	if err := requireMinLen(candles, slowPeriod+signalPeriod, "MACD"); err != nil {
		return nil, err
	}

	prices := closes(candles)
	pricesChan := make(chan float64, len(prices))
	for _, p := range prices {
		pricesChan <- p
	}
	close(pricesChan)

	macdIndicator := trend.NewMacdWithPeriod[float64](fastPeriod, slowPeriod, signalPeriod)
	macdChan, signalChan := macdIndicator.Compute(pricesChan)

	var macdValues, signalValues []float64
	for {
		m, mok := <-macdChan
		sg, sok := <-signalChan
		if !mok || !sok {
			break
		}
		macdValues = append(macdValues, m)
		signalValues = append(signalValues, sg)
	}

	currentMACD := macdValues[len(macdValues)-1]
	currentSignal := signalValues[len(signalValues)-1]
	currentHistogram := currentMACD - currentSignal

	n := len(macdValues)
	histogram := make([]float64, n)
	for i := 0; i < n; i++ {
		histogram[i] = macdValues[i] - signalValues[i]
	}

	crossover := "none"
	crossedBullish, crossedBearish := false, false
	for offset := 0; offset < 2 && n-2-offset >= 0; offset++ {
		i := n - 1 - offset
		prev, cur := histogram[i-1], histogram[i]
		if prev <= 0 && cur > 0 {
			crossedBullish = true
			if offset == 0 {
				crossover = "bullish"
			}
		}
		if prev >= 0 && cur < 0 {
			crossedBearish = true
			if offset == 0 {
				crossover = "bearish"
			}
		}
	}

	return &MACDResult{
		MACD:                   currentMACD,
		Signal:                 currentSignal,
		Histogram:              currentHistogram,
		Crossover:              crossover,
		CrossedBullishRecently: crossedBullish,
		CrossedBearishRecently: crossedBearish,
	}, nil
}
