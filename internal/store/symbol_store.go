package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketpulse/scanner/internal/domain"
	"github.com/marketpulse/scanner/internal/scanner"
)

// SymbolStore is the Postgres-backed scanner.SymbolStore.
type SymbolStore struct {
	pool *pgxpool.Pool
}

// NewSymbolStore wraps pool as a scanner.SymbolStore.
func NewSymbolStore(pool *pgxpool.Pool) *SymbolStore {
	return &SymbolStore{pool: pool}
}

var _ scanner.SymbolStore = (*SymbolStore)(nil)

// Upsert inserts or updates sym by (market, name). LastPrice/Volume24h
// of zero leave the existing stored value untouched, matching
// scanner.MemorySymbolStore's carry-forward behaviour.
func (s *SymbolStore) Upsert(ctx context.Context, sym domain.Symbol) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO symbols (name, market, base_asset, quote_asset, volume_24h, active, last_sync_at, last_price)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (market, name) DO UPDATE SET
			base_asset   = EXCLUDED.base_asset,
			quote_asset  = EXCLUDED.quote_asset,
			volume_24h   = CASE WHEN EXCLUDED.volume_24h = 0 THEN symbols.volume_24h ELSE EXCLUDED.volume_24h END,
			active       = EXCLUDED.active,
			last_sync_at = EXCLUDED.last_sync_at,
			last_price   = CASE WHEN EXCLUDED.last_price = 0 THEN symbols.last_price ELSE EXCLUDED.last_price END
	`, sym.Name, string(sym.Market), sym.BaseAsset, sym.QuoteAsset, sym.Volume24h, sym.Active, sym.LastSyncAt, sym.LastPrice)
	if err != nil {
		return fmt.Errorf("store: failed to upsert symbol %s/%s: %w", sym.Market, sym.Name, err)
	}
	return nil
}

func (s *SymbolStore) Active(ctx context.Context, market domain.MarketKind) ([]domain.Symbol, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT name, market, base_asset, quote_asset, volume_24h, active, last_sync_at, last_price
		FROM symbols WHERE market = $1 AND active = true
	`, string(market))
	if err != nil {
		return nil, fmt.Errorf("store: failed to list active %s symbols: %w", market, err)
	}
	defer rows.Close()

	var out []domain.Symbol
	for rows.Next() {
		var sym domain.Symbol
		var m string
		if err := rows.Scan(&sym.Name, &m, &sym.BaseAsset, &sym.QuoteAsset, &sym.Volume24h, &sym.Active, &sym.LastSyncAt, &sym.LastPrice); err != nil {
			return nil, fmt.Errorf("store: failed to scan symbol row: %w", err)
		}
		sym.Market = domain.MarketKind(m)
		out = append(out, sym)
	}
	return out, rows.Err()
}

func (s *SymbolStore) SetVolumes(ctx context.Context, market domain.MarketKind, volumes map[string]float64) error {
	for name, vol := range volumes {
		_, err := s.pool.Exec(ctx, `UPDATE symbols SET volume_24h = $1 WHERE market = $2 AND name = $3`, vol, string(market), name)
		if err != nil {
			return fmt.Errorf("store: failed to set volume for %s/%s: %w", market, name, err)
		}
	}
	return nil
}
