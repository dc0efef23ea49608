package indicators

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculateRSI_UptrendIsOverbought(t *testing.T) {
	svc := NewService()
	result, err := svc.CalculateRSI(uptrendCandles(30), 14)
	require.NoError(t, err)
	require.Greater(t, result.Value, 70.0)
	require.Equal(t, "overbought", result.Signal)
}

func TestCalculateRSI_InsufficientData(t *testing.T) {
	svc := NewService()
	_, err := svc.CalculateRSI(uptrendCandles(5), 14)
	require.Error(t, err)
}

func TestCalculateRSI_DefaultsPeriod(t *testing.T) {
	svc := NewService()
	result, err := svc.CalculateRSI(uptrendCandles(30), 0)
	require.NoError(t, err)
	require.NotZero(t, result.Value)
}
