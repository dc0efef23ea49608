package indicators

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculateStochastic_UptrendIsHigh(t *testing.T) {
	svc := NewService()
	result, err := svc.CalculateStochastic(uptrendCandles(40), 14, 3, 3)
	require.NoError(t, err)
	require.Greater(t, result.K, 50.0)
}

func TestCalculateStochastic_DefaultsPeriods(t *testing.T) {
	svc := NewService()
	result, err := svc.CalculateStochastic(uptrendCandles(40), 0, 0, 0)
	require.NoError(t, err)
	require.NotNil(t, result)
}

func TestCalculateStochastic_InsufficientData(t *testing.T) {
	svc := NewService()
	_, err := svc.CalculateStochastic(uptrendCandles(5), 14, 3, 3)
	require.Error(t, err)
}
