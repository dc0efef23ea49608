package indicators

import (
	"github.com/cinar/indicator/v2/volatility"

	"github.com/marketpulse/scanner/internal/domain"
)

// BollingerBandsResult represents the Bollinger Bands calculation result.
type BollingerBandsResult struct {
	Upper     float64
	Middle    float64
	Lower     float64
	Width     float64 // band width as a percentage of the middle band
	PercentB  float64 // position of price within the bands, 0 = lower, 1 = upper
	Signal    string  // "buy", "sell", "neutral"
}

// CalculateBollingerBands computes Bollinger Bands over period candles
// (default 20, 2 standard deviations) via cinar/indicator.
func (s *Service) CalculateBollingerBands(candles []domain.Candle, period int) (*BollingerBandsResult, error) {
	if period <= 1 {
		period = 20
	}
	if err := requireMinLen(candles, period, "Bollinger"); err != nil {
		return nil, err
	}

	prices := closes(candles)
	pricesChan := make(chan float64, len(prices))
	for _, p := range prices {
		pricesChan <- p
	}
	close(pricesChan)

	bbIndicator := volatility.NewBollingerBandsWithPeriod[float64](period)
	lowerChan, middleChan, upperChan := bbIndicator.Compute(pricesChan)

	var lowerValues, middleValues, upperValues []float64
	for {
		l, lok := <-lowerChan
		m, mok := <-middleChan
		u, uok := <-upperChan
		if !lok || !mok || !uok {
			break
		}
		lowerValues = append(lowerValues, l)
		middleValues = append(middleValues, m)
		upperValues = append(upperValues, u)
	}

	currentUpper := upperValues[len(upperValues)-1]
	currentMiddle := middleValues[len(middleValues)-1]
	currentLower := lowerValues[len(lowerValues)-1]
	currentPrice := prices[len(prices)-1]

	bandWidth := ((currentUpper - currentLower) / currentMiddle) * 100

	percentB := 0.5
	if denom := currentUpper - currentLower; denom != 0 {
		percentB = (currentPrice - currentLower) / denom
	}

	signal := "neutral"
	if currentPrice <= currentLower {
		signal = "buy"
	} else if currentPrice >= currentUpper {
		signal = "sell"
	}

	return &BollingerBandsResult{
		Upper:    currentUpper,
		Middle:   currentMiddle,
		Lower:    currentLower,
		Width:    bandWidth,
		PercentB: percentB,
		Signal:   signal,
	}, nil
}
