// Package deps wires the application's components into a single
// explicit dependency container. Nothing here reaches for a global;
// every component that needs a collaborator gets it through this
// struct, so a command builds only the subset of the graph it
// actually runs.
package deps

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/marketpulse/scanner/internal/config"
	"github.com/marketpulse/scanner/internal/domain"
	"github.com/marketpulse/scanner/internal/exchange"
	"github.com/marketpulse/scanner/internal/metrics"
	"github.com/marketpulse/scanner/internal/paper"
	"github.com/marketpulse/scanner/internal/risk"
	"github.com/marketpulse/scanner/internal/scanner"
	"github.com/marketpulse/scanner/internal/signal"
	"github.com/marketpulse/scanner/internal/store"
)

// Container holds the wired components a long-running scanner process
// needs. Persistence is optional: when cfg.Database.Host is empty the
// container falls back to in-memory stores so the rest of the graph
// still wires up for local runs and tests.
type Container struct {
	Config   *config.Config
	Breakers *risk.CircuitBreakerManager
	Exchange exchange.Client
	Cache    *exchange.CandleCache
	Pool     *store.Pool
	Signals  signal.Store
	Symbols  scanner.SymbolStore
	Accounts paper.Store
	Engine   *signal.Engine
	Manager  *paper.Manager
	Metrics  *metrics.Server

	closeFns []func()
}

// Build constructs a Container from cfg. Callers must call Close when
// done to release the database pool, Redis client, and any other held
// resources.
func Build(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, error) {
	c := &Container{Config: cfg}

	c.Breakers = risk.NewCircuitBreakerManager()

	var cache *exchange.CandleCache
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetRedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cache = exchange.NewCandleCache(redisClient, time.Duration(cfg.Redis.TTL)*time.Second)
		c.closeFns = append(c.closeFns, func() { _ = redisClient.Close() })
	}
	c.Cache = cache

	binanceClient := exchange.NewBinanceClient(exchange.BinanceConfig{
		BaseURLSpot:      cfg.Exchange.BaseURLSpot,
		BaseURLFutures:   cfg.Exchange.BaseURLFutures,
		Testnet:          cfg.Exchange.Testnet,
		SpotRateLimit:    cfg.Exchange.SpotRateLimit,
		FuturesRateLimit: cfg.Exchange.FuturesRateLimit,
		MaxRetries:       cfg.Exchange.MaxRetries,
	}, cache).WithCircuitBreakers(c.Breakers)
	c.Exchange = binanceClient

	if cfg.Database.Host != "" {
		pool, err := store.New(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("deps: failed to connect to database: %w", err)
		}
		c.Pool = pool
		c.closeFns = append(c.closeFns, pool.Close)
		c.Signals = store.NewSignalStore(pool.Raw())
		c.Symbols = store.NewSymbolStore(pool.Raw())
		c.Accounts = store.NewPaperStore(pool.Raw())
	} else {
		log.Warn().Msg("no database configured, falling back to in-memory stores")
		c.Signals = signal.NewMemoryStore()
		c.Symbols = scanner.NewMemorySymbolStore()
		c.Accounts = paper.NewMemoryStore(seedAccounts(cfg.Accounts))
	}

	c.Engine = signal.NewEngine(cfg.SignalEngine.ToDomain(), c.Signals)
	c.Manager = paper.NewManager(c.Accounts, c.Exchange, time.Minute)

	if cfg.Monitoring.EnableMetrics {
		c.Metrics = metrics.NewServer(cfg.Monitoring.PrometheusPort, log)
	}

	return c, nil
}

// Close releases every resource Build acquired, in reverse order.
func (c *Container) Close() {
	for i := len(c.closeFns) - 1; i >= 0; i-- {
		c.closeFns[i]()
	}
}

// seedAccounts turns the configured starting-balance list into domain
// paper accounts, used only when no database is configured.
func seedAccounts(configured []config.AccountConfig) []domain.PaperAccount {
	accounts := make([]domain.PaperAccount, 0, len(configured))
	now := time.Now().UTC()
	for _, a := range configured {
		accounts = append(accounts, domain.PaperAccount{
			ID:               uuid.New().String(),
			Name:             a.Name,
			Balance:          a.InitialBalance,
			Equity:           a.InitialBalance,
			AutoTradeEnabled: true,
			SizingMode:       domain.SizingPercent,
			PercentOfBalance: 0.02,
			MaxOpenTrades:    5,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
	}
	return accounts
}
