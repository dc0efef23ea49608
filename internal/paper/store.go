// Package paper converts approved signals into simulated positions,
// marks them to market, and closes them on SL/TP or command.
package paper

import (
	"context"
	"sort"
	"sync"

	"github.com/marketpulse/scanner/internal/domain"
)

// Store is the persistence port the paper-trading manager needs. The
// live implementation commits balance updates and trade closes inside a
// single pgx.Tx; MemoryStore serialises the same invariant with a mutex.
type Store interface {
	Accounts(ctx context.Context) ([]domain.PaperAccount, error)
	GetAccount(ctx context.Context, id string) (*domain.PaperAccount, error)

	// OpenTradesForAccount supports the on_signal_created max_trades check.
	OpenTradesForAccount(ctx context.Context, accountID string) ([]domain.PaperTrade, error)
	// OpenTradesBySymbol supports mark-to-market batching: every OPEN
	// trade on a symbol shares one ticker read per tick.
	OpenTradesBySymbol(ctx context.Context, symbol string) ([]domain.PaperTrade, error)
	// RecentClosedTrades supports Kelly sizing's win-rate/R:R statistics.
	RecentClosedTrades(ctx context.Context, accountID string, limit int) ([]domain.PaperTrade, error)

	CreateTrade(ctx context.Context, trade domain.PaperTrade) error
	GetTrade(ctx context.Context, id string) (*domain.PaperTrade, error)

	// CloseTrade atomically updates trade to its closed state and debits/
	// credits newBalance onto the owning account, in the same critical
	// section (single pgx.Tx against Postgres; a mutex-guarded update
	// against MemoryStore).
	CloseTrade(ctx context.Context, trade domain.PaperTrade, newBalance float64) error
}

// MemoryStore is an in-memory Store for tests and single-process runs.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]domain.PaperAccount
	trades   map[string]domain.PaperTrade
}

// NewMemoryStore seeds a store with accounts.
func NewMemoryStore(accounts []domain.PaperAccount) *MemoryStore {
	m := &MemoryStore{
		accounts: make(map[string]domain.PaperAccount, len(accounts)),
		trades:   make(map[string]domain.PaperTrade),
	}
	for _, a := range accounts {
		m.accounts[a.ID] = a
	}
	return m
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) Accounts(context.Context) ([]domain.PaperAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.PaperAccount, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (m *MemoryStore) GetAccount(_ context.Context, id string) (*domain.PaperAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := a
	return &cp, nil
}

func (m *MemoryStore) OpenTradesForAccount(_ context.Context, accountID string) ([]domain.PaperTrade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.PaperTrade
	for _, t := range m.trades {
		if t.AccountID == accountID && t.Status == domain.PaperTradeOpen {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MemoryStore) OpenTradesBySymbol(_ context.Context, symbol string) ([]domain.PaperTrade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.PaperTrade
	for _, t := range m.trades {
		if t.Symbol == symbol && t.Status == domain.PaperTradeOpen {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MemoryStore) RecentClosedTrades(_ context.Context, accountID string, limit int) ([]domain.PaperTrade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.PaperTrade
	for _, t := range m.trades {
		if t.AccountID == accountID && t.Status == domain.PaperTradeClosed {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClosedAt.After(out[j].ClosedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) CreateTrade(_ context.Context, trade domain.PaperTrade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades[trade.ID] = trade
	return nil
}

func (m *MemoryStore) GetTrade(_ context.Context, id string) (*domain.PaperTrade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.trades[id]
	if !ok {
		return nil, nil
	}
	cp := t
	return &cp, nil
}

func (m *MemoryStore) CloseTrade(_ context.Context, trade domain.PaperTrade, newBalance float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades[trade.ID] = trade
	if a, ok := m.accounts[trade.AccountID]; ok {
		a.Balance = newBalance
		a.Equity = newBalance
		m.accounts[trade.AccountID] = a
	}
	return nil
}
