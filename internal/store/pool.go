// Package store is the Postgres persistence layer backing the
// scanner's symbol table, the signal engine's signal log, and the
// paper-trading manager's accounts and trades. Each port
// (signal.Store, scanner.SymbolStore, paper.Store) gets its own file
// here; all three share the pgxpool.Pool built by New.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/marketpulse/scanner/internal/config"
)

// Pool wraps the shared PostgreSQL connection pool. It carries no
// circuit breaker of its own: callers that need failure isolation
// around persistence wrap calls through risk.CircuitBreakerManager's
// persistence breaker, the same way the exchange client does for
// Binance calls.
type Pool struct {
	pool *pgxpool.Pool
}

// New opens a connection pool against cfg's DSN and verifies
// connectivity with a ping before returning. Schema migration is out
// of scope here, matching backtest.PostgresStore's assumption that the
// symbols/signals/paper_accounts/paper_trades tables already exist.
func New(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("store: failed to parse database DSN: %w", err)
	}

	poolCfg.MaxConns = int32(cfg.PoolSize)
	if poolCfg.MaxConns <= 0 {
		poolCfg.MaxConns = 10
	}
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("store: failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: failed to ping database: %w", err)
	}

	log.Info().Int32("max_conns", poolCfg.MaxConns).Msg("store: connection pool ready")
	return &Pool{pool: pool}, nil
}

// Close releases all pooled connections.
func (p *Pool) Close() {
	p.pool.Close()
}

// Health reports database connectivity for the metrics/health surface.
func (p *Pool) Health(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Raw exposes the underlying pool for stores that need it (SignalStore,
// SymbolStore, PaperStore and CandleStore all take the *pgxpool.Pool
// directly rather than *Pool).
func (p *Pool) Raw() *pgxpool.Pool {
	return p.pool
}
