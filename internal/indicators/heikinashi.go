package indicators

import "github.com/marketpulse/scanner/internal/domain"

// HeikinAshiResult represents the most recent Heikin-Ashi candle derived
// from the underlying OHLC series, plus the trend it implies.
type HeikinAshiResult struct {
	Open  float64
	High  float64
	Low   float64
	Close float64
	Trend string // "bullish", "bearish", "doji"
}

// CalculateHeikinAshi computes the Heikin-Ashi transform of candles and
// returns the last synthetic candle. Heikin-Ashi has no counterpart in
// cinar/indicator v2 and is implemented by hand.
func (s *Service) CalculateHeikinAshi(candles []domain.Candle) (*HeikinAshiResult, error) {
	if err := requireMinLen(candles, 2, "HeikinAshi"); err != nil {
		return nil, err
	}

	haOpen := (candles[0].Open + candles[0].Close) / 2
	haClose := (candles[0].Open + candles[0].High + candles[0].Low + candles[0].Close) / 4

	for i := 1; i < len(candles); i++ {
		c := candles[i]
		newClose := (c.Open + c.High + c.Low + c.Close) / 4
		newOpen := (haOpen + haClose) / 2
		haOpen, haClose = newOpen, newClose
	}

	last := candles[len(candles)-1]
	haHigh := math3Max(last.High, haOpen, haClose)
	haLow := math3Min(last.Low, haOpen, haClose)

	trend := "doji"
	if haClose > haOpen {
		trend = "bullish"
	} else if haClose < haOpen {
		trend = "bearish"
	}

	return &HeikinAshiResult{Open: haOpen, High: haHigh, Low: haLow, Close: haClose, Trend: trend}, nil
}

func math3Max(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func math3Min(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
