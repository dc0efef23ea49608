package paper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marketpulse/scanner/internal/domain"
	"github.com/marketpulse/scanner/internal/exchange"
)

func testSignal() domain.Signal {
	return domain.Signal{
		ID:         "sig-1",
		Symbol:     "BTCUSDT",
		Market:     domain.MarketSpot,
		Direction:  domain.DirectionLong,
		Confidence: 0.8,
		Entry:      100,
		StopLoss:   90,
		TakeProfit: 120,
		Leverage:   1,
	}
}

func TestOnSignalCreated_RespectsAutoTradeFlag(t *testing.T) {
	store := NewMemoryStore([]domain.PaperAccount{{ID: "acct-1", Balance: 1000, AutoTradeEnabled: false, MinSignalConfidence: 0.7, MaxOpenTrades: 5, SizingMode: domain.SizingFixed, FixedSizeQuote: 100}})
	mgr := NewManager(store, exchange.NewFakeClient(), time.Second)

	acct, err := store.GetAccount(context.Background(), "acct-1")
	require.NoError(t, err)

	trade, err := mgr.OnSignalCreated(context.Background(), *acct, testSignal())
	require.NoError(t, err)
	require.Nil(t, trade)
}

func TestOnSignalCreated_RejectsBelowConfidenceFloor(t *testing.T) {
	store := NewMemoryStore([]domain.PaperAccount{{ID: "acct-1", Balance: 1000, AutoTradeEnabled: true, MinSignalConfidence: 0.9, MaxOpenTrades: 5, SizingMode: domain.SizingFixed, FixedSizeQuote: 100}})
	mgr := NewManager(store, exchange.NewFakeClient(), time.Second)

	acct, err := store.GetAccount(context.Background(), "acct-1")
	require.NoError(t, err)

	trade, err := mgr.OnSignalCreated(context.Background(), *acct, testSignal())
	require.NoError(t, err)
	require.Nil(t, trade)
}

func TestOnSignalCreated_OpensFixedSizeTrade(t *testing.T) {
	store := NewMemoryStore([]domain.PaperAccount{{ID: "acct-1", Balance: 1000, AutoTradeEnabled: true, MinSignalConfidence: 0.5, MaxOpenTrades: 5, SizingMode: domain.SizingFixed, FixedSizeQuote: 200}})
	mgr := NewManager(store, exchange.NewFakeClient(), time.Second)
	ctx := context.Background()

	acct, err := store.GetAccount(ctx, "acct-1")
	require.NoError(t, err)

	trade, err := mgr.OnSignalCreated(ctx, *acct, testSignal())
	require.NoError(t, err)
	require.NotNil(t, trade)
	require.Equal(t, domain.PaperTradeOpen, trade.Status)
	require.InDelta(t, 200.0, trade.Notional, 0.0001)
	require.InDelta(t, 2.0, trade.Quantity, 0.0001)

	open, err := store.OpenTradesForAccount(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, open, 1)
}

func TestOnSignalCreated_RespectsMaxOpenTrades(t *testing.T) {
	store := NewMemoryStore([]domain.PaperAccount{{ID: "acct-1", Balance: 1000, AutoTradeEnabled: true, MinSignalConfidence: 0.5, MaxOpenTrades: 1, SizingMode: domain.SizingFixed, FixedSizeQuote: 100}})
	mgr := NewManager(store, exchange.NewFakeClient(), time.Second)
	ctx := context.Background()

	acct, err := store.GetAccount(ctx, "acct-1")
	require.NoError(t, err)

	first, err := mgr.OnSignalCreated(ctx, *acct, testSignal())
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := mgr.OnSignalCreated(ctx, *acct, testSignal())
	require.NoError(t, err)
	require.Nil(t, second)
}

func TestOnCandle_ClosesOnTakeProfitAndCreditsBalance(t *testing.T) {
	store := NewMemoryStore([]domain.PaperAccount{{ID: "acct-1", Balance: 1000, AutoTradeEnabled: true, MinSignalConfidence: 0.5, MaxOpenTrades: 5, SizingMode: domain.SizingFixed, FixedSizeQuote: 100}})
	mgr := NewManager(store, exchange.NewFakeClient(), time.Second)
	ctx := context.Background()

	acct, err := store.GetAccount(ctx, "acct-1")
	require.NoError(t, err)
	trade, err := mgr.OnSignalCreated(ctx, *acct, testSignal())
	require.NoError(t, err)
	require.NotNil(t, trade)

	require.NoError(t, mgr.OnCandle(ctx, trade.ID, 120))

	closed, err := store.GetTrade(ctx, trade.ID)
	require.NoError(t, err)
	require.Equal(t, domain.PaperTradeClosed, closed.Status)
	require.Equal(t, domain.CloseReasonTakeProfit, closed.CloseReason)
	require.Greater(t, closed.PnL, 0.0)

	updatedAcct, err := store.GetAccount(ctx, "acct-1")
	require.NoError(t, err)
	require.Greater(t, updatedAcct.Balance, 1000.0)
}

func TestOnCandle_ClosesOnStopLoss(t *testing.T) {
	store := NewMemoryStore([]domain.PaperAccount{{ID: "acct-1", Balance: 1000, AutoTradeEnabled: true, MinSignalConfidence: 0.5, MaxOpenTrades: 5, SizingMode: domain.SizingFixed, FixedSizeQuote: 100}})
	mgr := NewManager(store, exchange.NewFakeClient(), time.Second)
	ctx := context.Background()

	acct, err := store.GetAccount(ctx, "acct-1")
	require.NoError(t, err)
	trade, err := mgr.OnSignalCreated(ctx, *acct, testSignal())
	require.NoError(t, err)

	require.NoError(t, mgr.OnCandle(ctx, trade.ID, 90))

	closed, err := store.GetTrade(ctx, trade.ID)
	require.NoError(t, err)
	require.Equal(t, domain.PaperTradeClosed, closed.Status)
	require.Equal(t, domain.CloseReasonStopLoss, closed.CloseReason)
	require.Less(t, closed.PnL, 0.0)
}

func TestOnCandle_IgnoresAlreadyClosedTrade(t *testing.T) {
	store := NewMemoryStore([]domain.PaperAccount{{ID: "acct-1", Balance: 1000, AutoTradeEnabled: true, MinSignalConfidence: 0.5, MaxOpenTrades: 5, SizingMode: domain.SizingFixed, FixedSizeQuote: 100}})
	mgr := NewManager(store, exchange.NewFakeClient(), time.Second)
	ctx := context.Background()

	acct, err := store.GetAccount(ctx, "acct-1")
	require.NoError(t, err)
	trade, err := mgr.OnSignalCreated(ctx, *acct, testSignal())
	require.NoError(t, err)

	require.NoError(t, mgr.OnCandle(ctx, trade.ID, 120))
	require.NoError(t, mgr.OnCandle(ctx, trade.ID, 90)) // no-op, already closed

	closed, err := store.GetTrade(ctx, trade.ID)
	require.NoError(t, err)
	require.Equal(t, domain.CloseReasonTakeProfit, closed.CloseReason)
}

func TestClose_ForceClosesAtMarketPrice(t *testing.T) {
	store := NewMemoryStore([]domain.PaperAccount{{ID: "acct-1", Balance: 1000, AutoTradeEnabled: true, MinSignalConfidence: 0.5, MaxOpenTrades: 5, SizingMode: domain.SizingFixed, FixedSizeQuote: 100}})
	mgr := NewManager(store, exchange.NewFakeClient(), time.Second)
	ctx := context.Background()

	acct, err := store.GetAccount(ctx, "acct-1")
	require.NoError(t, err)
	trade, err := mgr.OnSignalCreated(ctx, *acct, testSignal())
	require.NoError(t, err)

	require.NoError(t, mgr.Close(ctx, trade.ID, 105))

	closed, err := store.GetTrade(ctx, trade.ID)
	require.NoError(t, err)
	require.Equal(t, domain.PaperTradeClosed, closed.Status)
	require.Equal(t, domain.CloseReasonManual, closed.CloseReason)
	require.InDelta(t, 105.0, closed.ExitPrice, 0.0001)
}

func TestCancel_VoidsOpenTradeWithoutPnL(t *testing.T) {
	store := NewMemoryStore([]domain.PaperAccount{{ID: "acct-1", Balance: 1000, AutoTradeEnabled: true, MinSignalConfidence: 0.5, MaxOpenTrades: 5, SizingMode: domain.SizingFixed, FixedSizeQuote: 100}})
	mgr := NewManager(store, exchange.NewFakeClient(), time.Second)
	ctx := context.Background()

	acct, err := store.GetAccount(ctx, "acct-1")
	require.NoError(t, err)
	trade, err := mgr.OnSignalCreated(ctx, *acct, testSignal())
	require.NoError(t, err)

	require.NoError(t, mgr.Cancel(ctx, trade.ID))

	cancelled, err := store.GetTrade(ctx, trade.ID)
	require.NoError(t, err)
	require.Equal(t, domain.PaperTradeCancelled, cancelled.Status)
	require.Equal(t, 0.0, cancelled.PnL)
}

func TestMarkAll_BatchesOpenTradesBySymbol(t *testing.T) {
	store := NewMemoryStore([]domain.PaperAccount{{ID: "acct-1", Balance: 1000, AutoTradeEnabled: true, MinSignalConfidence: 0.5, MaxOpenTrades: 5, SizingMode: domain.SizingFixed, FixedSizeQuote: 100}})
	client := exchange.NewFakeClient()
	mgr := NewManager(store, client, time.Second)
	ctx := context.Background()

	acct, err := store.GetAccount(ctx, "acct-1")
	require.NoError(t, err)
	trade, err := mgr.OnSignalCreated(ctx, *acct, testSignal())
	require.NoError(t, err)

	client.SeedTicker(domain.MarketSpot, "BTCUSDT", 120)
	mgr.markAll(ctx)

	closed, err := store.GetTrade(ctx, trade.ID)
	require.NoError(t, err)
	require.Equal(t, domain.PaperTradeClosed, closed.Status)
}
