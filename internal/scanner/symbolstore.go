package scanner

import (
	"context"
	"sync"

	"github.com/marketpulse/scanner/internal/domain"
)

// SymbolStore is the persistence port the symbol-sync task and the
// per-track scan loop read and write. The live implementation upserts
// into the symbol table through pgx; MemorySymbolStore backs tests.
type SymbolStore interface {
	// Upsert creates or updates a symbol by (market, name). Existing
	// rows keep their LastPrice/Volume24h where sym carries zero for them.
	Upsert(ctx context.Context, sym domain.Symbol) error

	// Active returns all active symbols for market, most recent volume
	// first is not guaranteed — callers sort themselves.
	Active(ctx context.Context, market domain.MarketKind) ([]domain.Symbol, error)

	// SetVolumes updates cached 24h volume for existing symbols; it does
	// not create new rows.
	SetVolumes(ctx context.Context, market domain.MarketKind, volumes map[string]float64) error
}

// MemorySymbolStore is an in-memory SymbolStore for tests and the
// single-process default deployment.
type MemorySymbolStore struct {
	mu      sync.RWMutex
	symbols map[domain.MarketKind]map[string]domain.Symbol
}

// NewMemorySymbolStore returns an empty MemorySymbolStore.
func NewMemorySymbolStore() *MemorySymbolStore {
	return &MemorySymbolStore{symbols: make(map[domain.MarketKind]map[string]domain.Symbol)}
}

var _ SymbolStore = (*MemorySymbolStore)(nil)

func (m *MemorySymbolStore) Upsert(_ context.Context, sym domain.Symbol) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.symbols[sym.Market] == nil {
		m.symbols[sym.Market] = make(map[string]domain.Symbol)
	}
	existing, ok := m.symbols[sym.Market][sym.Name]
	if ok {
		if sym.LastPrice == 0 {
			sym.LastPrice = existing.LastPrice
		}
		if sym.Volume24h == 0 {
			sym.Volume24h = existing.Volume24h
		}
	}
	m.symbols[sym.Market][sym.Name] = sym
	return nil
}

func (m *MemorySymbolStore) Active(_ context.Context, market domain.MarketKind) ([]domain.Symbol, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Symbol, 0, len(m.symbols[market]))
	for _, s := range m.symbols[market] {
		if s.Active {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemorySymbolStore) SetVolumes(_ context.Context, market domain.MarketKind, volumes map[string]float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byMarket := m.symbols[market]
	for name, vol := range volumes {
		if sym, ok := byMarket[name]; ok {
			sym.Volume24h = vol
			byMarket[name] = sym
		}
	}
	return nil
}
