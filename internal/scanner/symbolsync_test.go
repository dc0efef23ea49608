package scanner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marketpulse/scanner/internal/domain"
	"github.com/marketpulse/scanner/internal/exchange"
)

func TestSymbolSync_UpsertsAndAppliesVolumes(t *testing.T) {
	ctx := context.Background()
	client := exchange.NewFakeClient()
	client.SeedSymbols(domain.MarketSpot, []domain.Symbol{
		{Name: "BTCUSDT", Market: domain.MarketSpot, Active: true},
		{Name: "ETHUSDT", Market: domain.MarketSpot, Active: true},
	})
	client.SeedVolume(domain.MarketSpot, "BTCUSDT", 9999)

	store := NewMemorySymbolStore()
	sync := NewSymbolSync(client, store, []domain.MarketKind{domain.MarketSpot}, 0)

	require.NoError(t, sync.syncAll(ctx))

	active, err := store.Active(ctx, domain.MarketSpot)
	require.NoError(t, err)
	require.Len(t, active, 2)

	found := map[string]float64{}
	for _, s := range active {
		found[s.Name] = s.Volume24h
	}
	require.Equal(t, 9999.0, found["BTCUSDT"])
}

func TestSymbolSync_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	client := exchange.NewFakeClient()
	client.SeedSymbols(domain.MarketSpot, []domain.Symbol{{Name: "BTCUSDT", Market: domain.MarketSpot, Active: true}})

	store := NewMemorySymbolStore()
	sync := NewSymbolSync(client, store, []domain.MarketKind{domain.MarketSpot}, 0)

	require.NoError(t, sync.syncAll(ctx))
	require.NoError(t, sync.syncAll(ctx))

	active, err := store.Active(ctx, domain.MarketSpot)
	require.NoError(t, err)
	require.Len(t, active, 1)
}
