package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketpulse/scanner/internal/backtest"
	"github.com/marketpulse/scanner/internal/domain"
)

// CandleStore is the Postgres-backed backtest.CandleLoader, reading
// from the candles table that exists solely as a historical cache for
// backtest replay (live scanning never persists candles, it only reads
// them through the exchange client's Redis cache).
type CandleStore struct {
	pool *pgxpool.Pool
}

// NewCandleStore wraps pool as a backtest.CandleLoader.
func NewCandleStore(pool *pgxpool.Pool) *CandleStore {
	return &CandleStore{pool: pool}
}

var _ backtest.CandleLoader = (*CandleStore)(nil)

func (s *CandleStore) LoadCandles(ctx context.Context, symbol string, market domain.MarketKind, timeframe domain.Timeframe, start, end time.Time) ([]domain.Candle, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT symbol, market, timeframe, open_time, close_time, open, high, low, close, volume
		FROM candles
		WHERE symbol = $1 AND market = $2 AND timeframe = $3 AND open_time >= $4 AND open_time <= $5
		ORDER BY open_time ASC
	`, symbol, string(market), string(timeframe), start, end)
	if err != nil {
		return nil, fmt.Errorf("store: failed to load candles for %s: %w", symbol, err)
	}
	defer rows.Close()

	var out []domain.Candle
	for rows.Next() {
		var c domain.Candle
		var m, tf string
		if err := rows.Scan(&c.Symbol, &m, &tf, &c.OpenTime, &c.CloseTime, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("store: failed to scan candle row: %w", err)
		}
		c.Market = domain.MarketKind(m)
		c.Timeframe = domain.Timeframe(tf)
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveCandles inserts candles into the cache for LoadCandles to read
// back, skipping any (symbol, market, timeframe, open_time) already
// stored. Nothing in cmd/backtest calls it.
func (s *CandleStore) SaveCandles(ctx context.Context, candles []domain.Candle) error {
	for _, c := range candles {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO candles (symbol, market, timeframe, open_time, close_time, open, high, low, close, volume)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			ON CONFLICT (symbol, market, timeframe, open_time) DO NOTHING
		`, c.Symbol, string(c.Market), string(c.Timeframe), c.OpenTime, c.CloseTime, c.Open, c.High, c.Low, c.Close, c.Volume)
		if err != nil {
			return fmt.Errorf("store: failed to cache candle for %s at %s: %w", c.Symbol, c.OpenTime, err)
		}
	}
	return nil
}
