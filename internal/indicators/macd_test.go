package indicators

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculateMACD_Uptrend(t *testing.T) {
	svc := NewService()
	result, err := svc.CalculateMACD(uptrendCandles(60), 12, 26, 9)
	require.NoError(t, err)
	require.Greater(t, result.MACD, 0.0)
}

func TestCalculateMACD_InvalidPeriodsFallBackToDefaults(t *testing.T) {
	svc := NewService()
	result, err := svc.CalculateMACD(uptrendCandles(60), 26, 12, 9)
	require.NoError(t, err)
	require.NotNil(t, result)
}

func TestCalculateMACD_InsufficientData(t *testing.T) {
	svc := NewService()
	_, err := svc.CalculateMACD(uptrendCandles(10), 12, 26, 9)
	require.Error(t, err)
}
