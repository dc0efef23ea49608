package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CreateRejectsDuplicateID(t *testing.T) {
	store := NewMemoryStore()
	run := newTestRun([]string{"AAAUSDT"}, time.Unix(1700000000, 0))
	require.NoError(t, store.Create(context.Background(), run))
	require.Error(t, store.Create(context.Background(), run))
}

func TestMemoryStore_GetReturnsNotFound(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Get(context.Background(), "missing")
	require.Error(t, err)
}

func TestMemoryStore_ListOrdersByCreatedAtDescending(t *testing.T) {
	store := NewMemoryStore()
	base := time.Unix(1700000000, 0)

	older := newTestRun([]string{"AAAUSDT"}, base)
	older.CreatedAt = base
	newer := newTestRun([]string{"BBBUSDT"}, base)
	newer.CreatedAt = base.Add(time.Hour)

	require.NoError(t, store.Create(context.Background(), older))
	require.NoError(t, store.Create(context.Background(), newer))

	runs, total, err := store.List(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Equal(t, newer.ID, runs[0].ID)
	require.Equal(t, older.ID, runs[1].ID)
}

func TestMemoryStore_SaveAndListTrades(t *testing.T) {
	store := NewMemoryStore()
	trades := []SimulatedTrade{{Symbol: "AAAUSDT", PnL: 5}}
	require.NoError(t, store.SaveTrades(context.Background(), "run-1", trades))

	got, err := store.ListTrades(context.Background(), "run-1")
	require.NoError(t, err)
	require.Equal(t, trades, got)
}
