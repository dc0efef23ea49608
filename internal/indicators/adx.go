package indicators

import (
	"math"

	"github.com/marketpulse/scanner/internal/domain"
)

// ADXResult represents the Average Directional Index calculation result,
// alongside the +DI/-DI lines it is derived from.
type ADXResult struct {
	Value    float64
	PlusDI   float64
	MinusDI  float64
	Strength string // "weak", "strong", "very_strong"
}

// CalculateADX computes ADX/+DI/-DI manually. ADX is not available in
// cinar/indicator v2, so it is implemented directly here using Wilder's
// smoothing, the same method the library uses for RSI.
func (s *Service) CalculateADX(candles []domain.Candle, period int) (*ADXResult, error) {
	if period <= 0 {
		period = 14
	}
	if err := requireMinLen(candles, period*2, "ADX"); err != nil {
		return nil, err
	}

	high := highs(candles)
	low := lows(candles)
	closePrices := closes(candles)

	adx, plusDI, minusDI := calculateADXManual(high, low, closePrices, period)

	strength := "weak"
	if adx >= 25 && adx < 50 {
		strength = "strong"
	} else if adx >= 50 {
		strength = "very_strong"
	}

	return &ADXResult{Value: adx, PlusDI: plusDI, MinusDI: minusDI, Strength: strength}, nil
}

func calculateADXManual(high, low, closePrices []float64, period int) (adx, plusDI, minusDI float64) {
	n := len(closePrices)

	tr := make([]float64, n)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)

	for i := 1; i < n; i++ {
		tr[i] = math.Max(high[i]-low[i],
			math.Max(math.Abs(high[i]-closePrices[i-1]),
				math.Abs(low[i]-closePrices[i-1])))

		upMove := high[i] - high[i-1]
		downMove := low[i-1] - low[i]

		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
	}

	smoothTR := smoothWilder(tr, period)
	smoothPlusDM := smoothWilder(plusDM, period)
	smoothMinusDM := smoothWilder(minusDM, period)

	plusDIValues := make([]float64, n)
	minusDIValues := make([]float64, n)
	dx := make([]float64, n)

	for i := period; i < n; i++ {
		if smoothTR[i] != 0 {
			plusDIValues[i] = 100 * smoothPlusDM[i] / smoothTR[i]
			minusDIValues[i] = 100 * smoothMinusDM[i] / smoothTR[i]

			diSum := plusDIValues[i] + minusDIValues[i]
			if diSum != 0 {
				dx[i] = 100 * math.Abs(plusDIValues[i]-minusDIValues[i]) / diSum
			}
		}
	}

	adxValues := smoothWilder(dx, period)

	return adxValues[n-1], plusDIValues[n-1], minusDIValues[n-1]
}

// smoothWilder applies Wilder's smoothing method, shared by ADX and ATR.
func smoothWilder(data []float64, period int) []float64 {
	n := len(data)
	result := make([]float64, n)

	if n < period {
		return result
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += data[i]
	}
	result[period-1] = sum / float64(period)

	for i := period; i < n; i++ {
		result[i] = (result[i-1]*float64(period-1) + data[i]) / float64(period)
	}

	return result
}
