package indicators

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculateATR_PositiveOnVolatileSeries(t *testing.T) {
	svc := NewService()
	result, err := svc.CalculateATR(uptrendCandles(30), 14)
	require.NoError(t, err)
	require.Greater(t, result.Value, 0.0)
}

func TestCalculateATR_DefaultsPeriod(t *testing.T) {
	svc := NewService()
	result, err := svc.CalculateATR(uptrendCandles(30), 0)
	require.NoError(t, err)
	require.NotZero(t, result.Value)
}

func TestCalculateATR_InsufficientData(t *testing.T) {
	svc := NewService()
	_, err := svc.CalculateATR(uptrendCandles(5), 14)
	require.Error(t, err)
}
