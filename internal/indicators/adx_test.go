package indicators

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculateADX_UptrendHasPositiveDI(t *testing.T) {
	svc := NewService()
	result, err := svc.CalculateADX(uptrendCandles(60), 14)
	require.NoError(t, err)
	require.Greater(t, result.PlusDI, result.MinusDI)
	require.Contains(t, []string{"weak", "strong", "very_strong"}, result.Strength)
}

func TestCalculateADX_FlatIsWeak(t *testing.T) {
	svc := NewService()
	result, err := svc.CalculateADX(flatCandles(60), 14)
	require.NoError(t, err)
	require.Equal(t, "weak", result.Strength)
}

func TestCalculateADX_InsufficientData(t *testing.T) {
	svc := NewService()
	_, err := svc.CalculateADX(uptrendCandles(10), 14)
	require.Error(t, err)
}
