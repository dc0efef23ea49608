package paper

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marketpulse/scanner/internal/domain"
)

func closedTrade(pnl float64) domain.PaperTrade {
	return domain.PaperTrade{Status: domain.PaperTradeClosed, PnL: pnl}
}

func TestKellyFraction_FallsBackUnderMinimumSampleSize(t *testing.T) {
	trades := []domain.PaperTrade{closedTrade(10), closedTrade(-5)}
	frac := kellyFraction(computeTradeStats(trades), 0.5)
	require.Equal(t, 0.02, frac)
}

func TestKellyFraction_NoEdgeReturnsFloor(t *testing.T) {
	trades := make([]domain.PaperTrade, 0, 40)
	for i := 0; i < 10; i++ {
		trades = append(trades, closedTrade(5))
	}
	for i := 0; i < 30; i++ {
		trades = append(trades, closedTrade(-10))
	}
	frac := kellyFraction(computeTradeStats(trades), 0.5)
	require.Equal(t, 0.0, frac)
}

func TestKellyFraction_CapsAtFivePercent(t *testing.T) {
	trades := make([]domain.PaperTrade, 0, 40)
	for i := 0; i < 35; i++ {
		trades = append(trades, closedTrade(20))
	}
	for i := 0; i < 5; i++ {
		trades = append(trades, closedTrade(-5))
	}
	frac := kellyFraction(computeTradeStats(trades), 1.0)
	require.LessOrEqual(t, frac, 0.05)
	require.Greater(t, frac, 0.0)
}
