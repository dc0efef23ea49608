// Package indicators computes the technical-analysis values the signal
// detection engine scores against. Every CalculateX function takes a
// typed candle/price slice and returns the latest value; for crossover
// detection MACD also reports CrossedBullishRecently/CrossedBearishRecently.
package indicators

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/marketpulse/scanner/internal/domain"
)

// Service provides technical indicator calculations over candle series.
type Service struct{}

// NewService creates a new indicator service.
func NewService() *Service {
	log.Info().Msg("indicator service initialized")
	return &Service{}
}

// closes extracts the close price series from candles.
func closes(candles []domain.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

func highs(candles []domain.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High
	}
	return out
}

func lows(candles []domain.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Low
	}
	return out
}

func volumes(candles []domain.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}

func requireMinLen(candles []domain.Candle, min int, name string) error {
	if len(candles) < min {
		return fmt.Errorf("%s: insufficient data: need at least %d candles, got %d", name, min, len(candles))
	}
	return nil
}
