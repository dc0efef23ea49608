package exchange

import (
	"context"

	"github.com/marketpulse/scanner/internal/domain"
)

// Client defines the read-only market-data surface the scanner, signal
// engine, and paper-trading manager depend on. The live Binance client
// and the in-memory test double both satisfy this interface. No
// order-placement method is exposed here: this system never places real
// orders against the exchange.
type Client interface {
	// ListUSDTPairs returns active USDT-quoted symbols for market.
	ListUSDTPairs(ctx context.Context, market domain.MarketKind) ([]domain.Symbol, error)

	// Get24hVolumes returns 24h quote volume for each symbol.
	Get24hVolumes(ctx context.Context, market domain.MarketKind, symbols []string) (map[string]float64, error)

	// GetKlines returns up to limit candles for symbol/timeframe, most
	// recent last.
	GetKlines(ctx context.Context, market domain.MarketKind, symbol string, tf domain.Timeframe, limit int) ([]domain.Candle, error)

	// BatchGetKlines fetches candles for many symbols. A per-symbol
	// failure is omitted from the result rather than failing the batch.
	BatchGetKlines(ctx context.Context, market domain.MarketKind, symbols []string, tf domain.Timeframe, limit int) (map[string][]domain.Candle, error)

	// GetTicker returns the latest traded price for symbol.
	GetTicker(ctx context.Context, market domain.MarketKind, symbol string) (float64, error)

	// GetBatchTickers returns the latest traded price for many symbols.
	GetBatchTickers(ctx context.Context, market domain.MarketKind, symbols []string) (map[string]float64, error)
}
