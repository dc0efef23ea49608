package backtest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/marketpulse/scanner/internal/domain"
)

// PostgresStore is the durable Store backing, one row per BacktestRun
// in backtest_runs plus a JSON trade-log column in backtest_trades.
// Metrics are stored denormalized alongside status so that List can
// page through run summaries without touching the trade log.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing pool. Schema migration is out of
// scope here; the backtest_runs/backtest_trades tables are expected to
// already exist, mirroring how the rest of this codebase's stores
// assume a migrated schema rather than creating one at runtime.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var _ Store = (*PostgresStore)(nil)

func (s *PostgresStore) Create(ctx context.Context, run domain.BacktestRun) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO backtest_runs (
			id, name, symbols, market, timeframe, start_time, end_time,
			initial_balance, config_id, sizing_mode, fixed_size_quote,
			percent_of_balance, kelly_fraction, status, error,
			created_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`,
		run.ID, run.Name, run.Symbols, string(run.Market), string(run.Timeframe),
		run.StartTime, run.EndTime, run.InitialBalance, run.ConfigID,
		string(run.SizingMode), run.FixedSizeQuote, run.PercentOfBalance, run.KellyFraction,
		string(run.Status), run.Error, run.CreatedAt, run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("backtest: failed to insert run %s: %w", run.ID, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.BacktestRun, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, symbols, market, timeframe, start_time, end_time,
		       initial_balance, config_id, sizing_mode, fixed_size_quote,
		       percent_of_balance, kelly_fraction, status, error,
		       metrics, created_at, completed_at
		FROM backtest_runs WHERE id = $1
	`, id)
	run, metricsJSON, err := scanRun(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("backtest: run %s not found", id)
		}
		return nil, fmt.Errorf("backtest: failed to load run %s: %w", id, err)
	}
	if err := attachMetrics(run, metricsJSON); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *PostgresStore) Update(ctx context.Context, run domain.BacktestRun) error {
	var metricsJSON []byte
	if run.Metrics != nil {
		var err error
		metricsJSON, err = json.Marshal(run.Metrics)
		if err != nil {
			return fmt.Errorf("backtest: failed to marshal metrics for run %s: %w", run.ID, err)
		}
	}

	_, err := s.pool.Exec(ctx, `
		UPDATE backtest_runs
		SET status = $1, error = $2, metrics = $3, completed_at = $4
		WHERE id = $5
	`, string(run.Status), run.Error, metricsJSON, run.CompletedAt, run.ID)
	if err != nil {
		return fmt.Errorf("backtest: failed to update run %s: %w", run.ID, err)
	}

	log.Info().Str("run_id", run.ID).Str("status", string(run.Status)).Msg("backtest: run status persisted")
	return nil
}

func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]domain.BacktestRun, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM backtest_runs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("backtest: failed to count runs: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, name, symbols, market, timeframe, start_time, end_time,
		       initial_balance, config_id, sizing_mode, fixed_size_quote,
		       percent_of_balance, kelly_fraction, status, error,
		       metrics, created_at, completed_at
		FROM backtest_runs ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("backtest: failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.BacktestRun
	for rows.Next() {
		run, metricsJSON, err := scanRun(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("backtest: failed to scan run row: %w", err)
		}
		if err := attachMetrics(run, metricsJSON); err != nil {
			return nil, 0, err
		}
		runs = append(runs, *run)
	}
	return runs, total, nil
}

func (s *PostgresStore) SaveTrades(ctx context.Context, runID string, trades []SimulatedTrade) error {
	tradesJSON, err := json.Marshal(trades)
	if err != nil {
		return fmt.Errorf("backtest: failed to marshal trade log for run %s: %w", runID, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO backtest_trades (run_id, trades) VALUES ($1, $2)
		ON CONFLICT (run_id) DO UPDATE SET trades = EXCLUDED.trades
	`, runID, tradesJSON)
	if err != nil {
		return fmt.Errorf("backtest: failed to persist trade log for run %s: %w", runID, err)
	}
	return nil
}

func (s *PostgresStore) ListTrades(ctx context.Context, runID string) ([]SimulatedTrade, error) {
	var tradesJSON []byte
	err := s.pool.QueryRow(ctx, `SELECT trades FROM backtest_trades WHERE run_id = $1`, runID).Scan(&tradesJSON)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("backtest: failed to load trade log for run %s: %w", runID, err)
	}
	var trades []SimulatedTrade
	if err := json.Unmarshal(tradesJSON, &trades); err != nil {
		return nil, fmt.Errorf("backtest: failed to unmarshal trade log for run %s: %w", runID, err)
	}
	return trades, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*domain.BacktestRun, []byte, error) {
	var run domain.BacktestRun
	var market, timeframe, sizingMode, status string
	var metricsJSON []byte

	err := row.Scan(
		&run.ID, &run.Name, &run.Symbols, &market, &timeframe, &run.StartTime, &run.EndTime,
		&run.InitialBalance, &run.ConfigID, &sizingMode, &run.FixedSizeQuote,
		&run.PercentOfBalance, &run.KellyFraction, &status, &run.Error,
		&metricsJSON, &run.CreatedAt, &run.CompletedAt,
	)
	if err != nil {
		return nil, nil, err
	}
	run.Market = domain.MarketKind(market)
	run.Timeframe = domain.Timeframe(timeframe)
	run.SizingMode = domain.SizingMode(sizingMode)
	run.Status = domain.RunStatus(status)
	return &run, metricsJSON, nil
}

func attachMetrics(run *domain.BacktestRun, metricsJSON []byte) error {
	if len(metricsJSON) == 0 {
		return nil
	}
	var metrics domain.BacktestMetrics
	if err := json.Unmarshal(metricsJSON, &metrics); err != nil {
		return fmt.Errorf("backtest: failed to unmarshal metrics for run %s: %w", run.ID, err)
	}
	run.Metrics = &metrics
	return nil
}
