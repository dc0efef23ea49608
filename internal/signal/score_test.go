package signal

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marketpulse/scanner/internal/domain"
	"github.com/marketpulse/scanner/internal/indicators"
)

func TestComputeSnapshot_InsufficientData(t *testing.T) {
	_, err := computeSnapshot(indicators.NewService(), bullishCandles(20))
	require.Error(t, err)
}

func TestScoreDirection_BullishSeriesFavoursLong(t *testing.T) {
	snap, err := computeSnapshot(indicators.NewService(), bullishCandles(80))
	require.NoError(t, err)

	cfg := domain.DefaultSignalEngineConfig()
	long := scoreDirection(snap, cfg, domain.DirectionLong)
	short := scoreDirection(snap, cfg, domain.DirectionShort)

	require.Greater(t, long.confidence, short.confidence)
	require.GreaterOrEqual(t, long.confidence, 0.0)
	require.LessOrEqual(t, long.confidence, 1.0)
}

func TestIndicatorWeights_TotalIsCanonical(t *testing.T) {
	require.InDelta(t, 13.5, domain.DefaultIndicatorWeights().TotalWeight(), 0.001)
}
