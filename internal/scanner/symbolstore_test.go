package scanner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marketpulse/scanner/internal/domain"
)

func TestMemorySymbolStore_UpsertThenActive(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySymbolStore()

	require.NoError(t, store.Upsert(ctx, domain.Symbol{Name: "BTCUSDT", Market: domain.MarketSpot, Active: true, Volume24h: 100}))
	require.NoError(t, store.Upsert(ctx, domain.Symbol{Name: "ETHUSDT", Market: domain.MarketSpot, Active: false}))

	active, err := store.Active(ctx, domain.MarketSpot)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "BTCUSDT", active[0].Name)
}

func TestMemorySymbolStore_UpsertPreservesVolumeWhenNotOverwritten(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySymbolStore()

	require.NoError(t, store.Upsert(ctx, domain.Symbol{Name: "BTCUSDT", Market: domain.MarketSpot, Active: true, Volume24h: 500}))
	require.NoError(t, store.Upsert(ctx, domain.Symbol{Name: "BTCUSDT", Market: domain.MarketSpot, Active: true}))

	active, err := store.Active(ctx, domain.MarketSpot)
	require.NoError(t, err)
	require.Equal(t, 500.0, active[0].Volume24h)
}

func TestMemorySymbolStore_SetVolumesOnlyUpdatesExisting(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySymbolStore()
	require.NoError(t, store.Upsert(ctx, domain.Symbol{Name: "BTCUSDT", Market: domain.MarketSpot, Active: true}))

	require.NoError(t, store.SetVolumes(ctx, domain.MarketSpot, map[string]float64{
		"BTCUSDT": 1234,
		"DOESNOTEXIST": 1,
	}))

	active, err := store.Active(ctx, domain.MarketSpot)
	require.NoError(t, err)
	require.Equal(t, 1234.0, active[0].Volume24h)
}
