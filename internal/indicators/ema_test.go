package indicators

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculateEMA_UptrendIsBullish(t *testing.T) {
	svc := NewService()
	result, err := svc.CalculateEMA(uptrendCandles(30), 9)
	require.NoError(t, err)
	require.Equal(t, "bullish", result.Trend)
}

func TestCalculateEMA_FlatIsNeutral(t *testing.T) {
	svc := NewService()
	result, err := svc.CalculateEMA(flatCandles(30), 9)
	require.NoError(t, err)
	require.Equal(t, "neutral", result.Trend)
}

func TestCalculateEMA_InsufficientData(t *testing.T) {
	svc := NewService()
	_, err := svc.CalculateEMA(uptrendCandles(3), 9)
	require.Error(t, err)
}
