package scanner

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/marketpulse/scanner/internal/domain"
	"github.com/marketpulse/scanner/internal/exchange"
)

// SymbolSync periodically refreshes the symbol table from the exchange's
// metadata endpoint (active USDT spot pairs and USDT-perpetuals) and
// their cached 24h volumes. It runs independently of the scan ticks,
// following the same init-tick-then-ticker shape the scheduler's tracks
// use.
type SymbolSync struct {
	client  exchange.Client
	store   SymbolStore
	markets []domain.MarketKind
	period  time.Duration
	stopCh  chan struct{}
}

// NewSymbolSync constructs a sync task for markets, refreshing every period.
func NewSymbolSync(client exchange.Client, store SymbolStore, markets []domain.MarketKind, period time.Duration) *SymbolSync {
	return &SymbolSync{
		client:  client,
		store:   store,
		markets: markets,
		period:  period,
		stopCh:  make(chan struct{}),
	}
}

// Start runs the sync loop until ctx is cancelled or Stop is called.
func (s *SymbolSync) Start(ctx context.Context) {
	log.Info().Dur("period", s.period).Msg("scanner: starting symbol sync")

	if err := s.syncAll(ctx); err != nil {
		log.Error().Err(err).Msg("scanner: initial symbol sync failed")
	}

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if err := s.syncAll(ctx); err != nil {
				log.Error().Err(err).Msg("scanner: periodic symbol sync failed")
			}
		}
	}
}

// Stop stops the sync loop.
func (s *SymbolSync) Stop() { close(s.stopCh) }

// syncAll is idempotent: each symbol is upserted by (market, name), and
// a failure syncing one market does not abort the others.
func (s *SymbolSync) syncAll(ctx context.Context) error {
	for _, market := range s.markets {
		if err := s.syncMarket(ctx, market); err != nil {
			log.Error().Err(err).Str("market", string(market)).Msg("scanner: symbol sync failed for market")
			continue
		}
	}
	return nil
}

func (s *SymbolSync) syncMarket(ctx context.Context, market domain.MarketKind) error {
	symbols, err := s.client.ListUSDTPairs(ctx, market)
	if err != nil {
		return err
	}

	names := make([]string, len(symbols))
	for i, sym := range symbols {
		names[i] = sym.Name
	}
	volumes, err := s.client.Get24hVolumes(ctx, market, names)
	if err != nil {
		log.Warn().Err(err).Str("market", string(market)).Msg("scanner: 24h volume fetch failed, continuing without fresh volumes")
		volumes = nil
	}

	now := time.Now()
	for _, sym := range symbols {
		sym.LastSyncAt = now
		if v, ok := volumes[sym.Name]; ok {
			sym.Volume24h = v
		}
		if err := s.store.Upsert(ctx, sym); err != nil {
			return err
		}
	}

	if volumes != nil {
		return s.store.SetVolumes(ctx, market, volumes)
	}
	return nil
}
