package indicators

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculateBollingerBands_UptrendPushesUpperBand(t *testing.T) {
	svc := NewService()
	result, err := svc.CalculateBollingerBands(uptrendCandles(40), 20)
	require.NoError(t, err)
	require.Greater(t, result.Upper, result.Middle)
	require.Greater(t, result.Middle, result.Lower)
}

func TestCalculateBollingerBands_DefaultsPeriod(t *testing.T) {
	svc := NewService()
	result, err := svc.CalculateBollingerBands(uptrendCandles(40), 0)
	require.NoError(t, err)
	require.NotZero(t, result.Middle)
}

func TestCalculateBollingerBands_InsufficientData(t *testing.T) {
	svc := NewService()
	_, err := svc.CalculateBollingerBands(uptrendCandles(5), 20)
	require.Error(t, err)
}
