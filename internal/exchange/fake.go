package exchange

import (
	"context"
	"sync"

	"github.com/marketpulse/scanner/internal/domain"
)

// FakeClient is an in-memory Client implementation for tests. Candles,
// tickers, and symbols are seeded directly; no network calls are made.
type FakeClient struct {
	mu      sync.RWMutex
	symbols map[domain.MarketKind][]domain.Symbol
	volumes map[domain.MarketKind]map[string]float64
	candles map[string][]domain.Candle // key: market|symbol|timeframe
	tickers map[domain.MarketKind]map[string]float64
}

// NewFakeClient returns an empty FakeClient ready for seeding.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		symbols: make(map[domain.MarketKind][]domain.Symbol),
		volumes: make(map[domain.MarketKind]map[string]float64),
		candles: make(map[string][]domain.Candle),
		tickers: make(map[domain.MarketKind]map[string]float64),
	}
}

func candleKey(market domain.MarketKind, symbol string, tf domain.Timeframe) string {
	return string(market) + "|" + symbol + "|" + string(tf)
}

// SeedSymbols registers the symbol list returned by ListUSDTPairs.
func (f *FakeClient) SeedSymbols(market domain.MarketKind, symbols []domain.Symbol) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.symbols[market] = symbols
}

// SeedVolume sets the 24h volume for a symbol.
func (f *FakeClient) SeedVolume(market domain.MarketKind, symbol string, volume float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.volumes[market] == nil {
		f.volumes[market] = make(map[string]float64)
	}
	f.volumes[market][symbol] = volume
}

// SeedCandles registers the candle series returned by GetKlines.
func (f *FakeClient) SeedCandles(market domain.MarketKind, symbol string, tf domain.Timeframe, candles []domain.Candle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.candles[candleKey(market, symbol, tf)] = candles
}

// SeedTicker sets the last price for a symbol.
func (f *FakeClient) SeedTicker(market domain.MarketKind, symbol string, price float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tickers[market] == nil {
		f.tickers[market] = make(map[string]float64)
	}
	f.tickers[market][symbol] = price
}

func (f *FakeClient) ListUSDTPairs(_ context.Context, market domain.MarketKind) ([]domain.Symbol, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]domain.Symbol(nil), f.symbols[market]...), nil
}

func (f *FakeClient) Get24hVolumes(_ context.Context, market domain.MarketKind, symbols []string) (map[string]float64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]float64, len(symbols))
	for _, s := range symbols {
		if v, ok := f.volumes[market][s]; ok {
			out[s] = v
		}
	}
	return out, nil
}

func (f *FakeClient) GetKlines(_ context.Context, market domain.MarketKind, symbol string, tf domain.Timeframe, limit int) ([]domain.Candle, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	candles := f.candles[candleKey(market, symbol, tf)]
	if len(candles) == 0 {
		return nil, &InsufficientDataError{Symbol: symbol, Need: limit, Got: 0}
	}
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return append([]domain.Candle(nil), candles...), nil
}

func (f *FakeClient) BatchGetKlines(ctx context.Context, market domain.MarketKind, symbols []string, tf domain.Timeframe, limit int) (map[string][]domain.Candle, error) {
	out := make(map[string][]domain.Candle, len(symbols))
	for _, s := range symbols {
		candles, err := f.GetKlines(ctx, market, s, tf, limit)
		if err != nil {
			continue
		}
		out[s] = candles
	}
	return out, nil
}

func (f *FakeClient) GetTicker(_ context.Context, market domain.MarketKind, symbol string) (float64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	price, ok := f.tickers[market][symbol]
	if !ok {
		return 0, &PermanentExchangeError{Op: "GetTicker", Err: context.DeadlineExceeded}
	}
	return price, nil
}

func (f *FakeClient) GetBatchTickers(_ context.Context, market domain.MarketKind, symbols []string) (map[string]float64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]float64, len(symbols))
	for _, s := range symbols {
		if p, ok := f.tickers[market][s]; ok {
			out[s] = p
		}
	}
	return out, nil
}

var _ Client = (*FakeClient)(nil)
