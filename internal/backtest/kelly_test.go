package backtest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func closedTrade(pnl float64) SimulatedTrade {
	return SimulatedTrade{PnL: pnl}
}

func TestKellyFraction_FallsBackUnderMinimumSampleSize(t *testing.T) {
	trades := []SimulatedTrade{closedTrade(10), closedTrade(-5)}
	frac := kellyFraction(computeTradeStats(trades), 0.5)
	require.Equal(t, kellyFallback, frac)
}

func TestKellyFraction_NoEdgeReturnsFloor(t *testing.T) {
	trades := make([]SimulatedTrade, 0, 40)
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
	trades := make([]SimulatedTrade, 0, 40)
	for i := 0; i < 35; i++ {
		trades = append(trades, closedTrade(20))
	}
	for i := 0; i < 5; i++ {
		trades = append(trades, closedTrade(-5))
	}
	frac := kellyFraction(computeTradeStats(trades), 1.0)
	require.LessOrEqual(t, frac, kellyHardCap)
	require.Greater(t, frac, 0.0)
}

func TestComputeTradeStats_IgnoresBreakevenTrades(t *testing.T) {
	trades := []SimulatedTrade{closedTrade(0), closedTrade(10), closedTrade(-10)}
	st := computeTradeStats(trades)
	require.Equal(t, 3, st.total)
	require.Equal(t, 1, st.wins)
	require.InDelta(t, 10.0, st.avgWin, 0.0001)
	require.InDelta(t, 10.0, st.avgLoss, 0.0001)
}
