package indicators

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculateVolumeSMA_RisingVolumeGivesRatioAboveOne(t *testing.T) {
	svc := NewService()
	result, err := svc.CalculateVolumeSMA(uptrendCandles(30), 20)
	require.NoError(t, err)
	require.Greater(t, result.Ratio, 1.0)
}

func TestCalculateVolumeSMA_FlatVolumeGivesRatioOfOne(t *testing.T) {
	svc := NewService()
	result, err := svc.CalculateVolumeSMA(flatCandles(30), 20)
	require.NoError(t, err)
	require.InDelta(t, 1.0, result.Ratio, 0.001)
}

func TestCalculateVolumeSMA_InsufficientData(t *testing.T) {
	svc := NewService()
	_, err := svc.CalculateVolumeSMA(uptrendCandles(5), 20)
	require.Error(t, err)
}
