package indicators

import "github.com/marketpulse/scanner/internal/domain"

// VolumeSMAResult represents the Volume SMA calculation result.
type VolumeSMAResult struct {
	Value float64
	Ratio float64 // current volume / SMA, > 1 means above-average volume
}

// CalculateVolumeSMA computes the simple moving average of volume over
// period candles (default 20) and the current volume's ratio to it.
// Volume SMA has no counterpart in cinar/indicator v2 and is implemented
// by hand.
func (s *Service) CalculateVolumeSMA(candles []domain.Candle, period int) (*VolumeSMAResult, error) {
	if period <= 0 {
		period = 20
	}
	if err := requireMinLen(candles, period, "VolumeSMA"); err != nil {
		return nil, err
	}

	vol := volumes(candles)
	window := vol[len(vol)-period:]

	sum := 0.0
	for _, v := range window {
		sum += v
	}
	avg := sum / float64(period)

	ratio := 0.0
	if avg != 0 {
		ratio = vol[len(vol)-1] / avg
	}

	return &VolumeSMAResult{Value: avg, Ratio: ratio}, nil
}
