package exchange

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marketpulse/scanner/internal/domain"
)

func TestRateLimiter_AllowsBurstUpToBudget(t *testing.T) {
	rl := NewRateLimiter(60, 120)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	for i := 0; i < 60; i++ {
		require.NoError(t, rl.Wait(ctx, domain.MarketSpot, 1))
	}
}

func TestRateLimiter_BlocksBeyondBudget(t *testing.T) {
	rl := NewRateLimiter(60, 120)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	for i := 0; i < 60; i++ {
		require.NoError(t, rl.Wait(ctx, domain.MarketSpot, 1))
	}
	err := rl.Wait(ctx, domain.MarketSpot, 1)
	require.Error(t, err)
}

func TestRateLimiter_MarketsAreIndependent(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, rl.Wait(ctx, domain.MarketSpot, 1))
	require.NoError(t, rl.Wait(ctx, domain.MarketFutures, 1))
}
