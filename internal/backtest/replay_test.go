package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marketpulse/scanner/internal/domain"
)

func TestValidateCandles_RejectsShortSeries(t *testing.T) {
	candles := flatCandles(10, time.Unix(1700000000, 0))
	err := validateCandles("TESTUSDT", candles)
	require.Error(t, err)
	var malformed *ErrMalformedCandles
	require.ErrorAs(t, err, &malformed)
}

func TestValidateCandles_RejectsBadOHLC(t *testing.T) {
	candles := flatCandles(60, time.Unix(1700000000, 0))
	candles[30].High = candles[30].Low - 1
	err := validateCandles("TESTUSDT", candles)
	require.Error(t, err)
}

func TestValidateCandles_RejectsOutOfOrderCandles(t *testing.T) {
	candles := flatCandles(60, time.Unix(1700000000, 0))
	candles[30].CloseTime = candles[10].CloseTime
	err := validateCandles("TESTUSDT", candles)
	require.Error(t, err)
}

func TestValidateCandles_AcceptsWellFormedSeries(t *testing.T) {
	candles := flatCandles(60, time.Unix(1700000000, 0))
	require.NoError(t, validateCandles("TESTUSDT", candles))
}

func TestReplaySymbol_ProducesResolvedTrades(t *testing.T) {
	candles := bullishCandles(300, time.Unix(1700000000, 0))
	cfg := domain.DefaultSignalEngineConfig()

	trades, err := replaySymbol(context.Background(), cfg, domain.MarketSpot, domain.Timeframe1h, "TESTUSDT", candles)
	require.NoError(t, err)
	require.NotEmpty(t, trades)

	for _, trade := range trades {
		require.Equal(t, "TESTUSDT", trade.Symbol)
		require.NotEmpty(t, trade.Outcome)
		require.True(t, trade.ClosedAt.After(trade.OpenedAt) || trade.ClosedAt.Equal(trade.OpenedAt))
		require.Contains(t, []domain.SignalStatus{domain.SignalStatusHitTP, domain.SignalStatusHitSL, domain.SignalStatusExpired}, trade.Outcome)
	}
}

func TestReplaySymbol_RejectsMalformedCandles(t *testing.T) {
	cfg := domain.DefaultSignalEngineConfig()
	_, err := replaySymbol(context.Background(), cfg, domain.MarketSpot, domain.Timeframe1h, "TESTUSDT", flatCandles(5, time.Unix(1700000000, 0)))
	require.Error(t, err)
}
