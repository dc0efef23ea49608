package backtest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/marketpulse/scanner/internal/domain"
)

// Store persists BacktestRun entities and their simulated trade logs.
// COMPLETED implies both Metrics and the trade log are present; Update
// is the only write path so that invariant holds across every status
// transition instead of being re-derived at each call site.
type Store interface {
	Create(ctx context.Context, run domain.BacktestRun) error
	Get(ctx context.Context, id string) (*domain.BacktestRun, error)
	Update(ctx context.Context, run domain.BacktestRun) error
	List(ctx context.Context, limit, offset int) ([]domain.BacktestRun, int, error)
	SaveTrades(ctx context.Context, runID string, trades []SimulatedTrade) error
	ListTrades(ctx context.Context, runID string) ([]SimulatedTrade, error)
}

// MemoryStore is an in-process Store for tests and single-process
// deployments without Postgres configured.
type MemoryStore struct {
	mu     sync.RWMutex
	runs   map[string]domain.BacktestRun
	trades map[string][]SimulatedTrade
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:   make(map[string]domain.BacktestRun),
		trades: make(map[string][]SimulatedTrade),
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Create(_ context.Context, run domain.BacktestRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[run.ID]; exists {
		return fmt.Errorf("backtest: run %s already exists", run.ID)
	}
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*domain.BacktestRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("backtest: run %s not found", id)
	}
	return &run, nil
}

func (s *MemoryStore) Update(_ context.Context, run domain.BacktestRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) List(_ context.Context, limit, offset int) ([]domain.BacktestRun, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.BacktestRun, 0, len(s.runs))
	for _, run := range s.runs {
		all = append(all, run)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := len(all)
	if offset >= total {
		return []domain.BacktestRun{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (s *MemoryStore) SaveTrades(_ context.Context, runID string, trades []SimulatedTrade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]SimulatedTrade, len(trades))
	copy(cp, trades)
	s.trades[runID] = cp
	return nil
}

func (s *MemoryStore) ListTrades(_ context.Context, runID string) ([]SimulatedTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trades[runID], nil
}
