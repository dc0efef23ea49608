package indicators

import (
	"math"

	"github.com/marketpulse/scanner/internal/domain"
)

// ATRResult represents the Average True Range calculation result.
type ATRResult struct {
	Value float64
}

// CalculateATR computes the Average True Range over period candles
// (default 14) using Wilder's smoothing. Like ADX, ATR has no
// counterpart in cinar/indicator v2 and is implemented by hand.
func (s *Service) CalculateATR(candles []domain.Candle, period int) (*ATRResult, error) {
	if period <= 0 {
		period = 14
	}
	if err := requireMinLen(candles, period+1, "ATR"); err != nil {
		return nil, err
	}

	high := highs(candles)
	low := lows(candles)
	closePrices := closes(candles)
	n := len(closePrices)

	tr := make([]float64, n)
	for i := 1; i < n; i++ {
		tr[i] = math.Max(high[i]-low[i],
			math.Max(math.Abs(high[i]-closePrices[i-1]),
				math.Abs(low[i]-closePrices[i-1])))
	}

	smoothed := smoothWilder(tr, period)
	return &ATRResult{Value: smoothed[n-1]}, nil
}
