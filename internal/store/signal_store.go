package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketpulse/scanner/internal/domain"
	"github.com/marketpulse/scanner/internal/signal"
)

// SignalStore is the Postgres-backed signal.Store.
type SignalStore struct {
	pool *pgxpool.Pool
}

// NewSignalStore wraps pool as a signal.Store.
func NewSignalStore(pool *pgxpool.Pool) *SignalStore {
	return &SignalStore{pool: pool}
}

var _ signal.Store = (*SignalStore)(nil)

const signalColumns = `
	id, symbol, market, timeframe, direction, trading_type, confidence, score,
	entry, current_price, stop_loss, take_profit, risk_reward, leverage,
	estimated_hold, reasons, status, candles_since_created,
	created_at, expires_at, updated_at`

func (s *SignalStore) ActiveByKey(ctx context.Context, symbol string, market domain.MarketKind, direction domain.Direction, timeframe domain.Timeframe) (*domain.Signal, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+signalColumns+`
		FROM signals
		WHERE symbol = $1 AND market = $2 AND direction = $3 AND timeframe = $4 AND status = $5
		LIMIT 1`,
		symbol, string(market), string(direction), string(timeframe), string(domain.SignalStatusActive))
	sig, err := scanSignal(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: failed to load active signal for %s: %w", symbol, err)
	}
	return sig, nil
}

func (s *SignalStore) ActiveAcrossTimeframes(ctx context.Context, symbol string, market domain.MarketKind, direction domain.Direction) ([]domain.Signal, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+signalColumns+`
		FROM signals
		WHERE symbol = $1 AND market = $2 AND direction = $3 AND status = $4`,
		symbol, string(market), string(direction), string(domain.SignalStatusActive))
	if err != nil {
		return nil, fmt.Errorf("store: failed to load active signals for %s: %w", symbol, err)
	}
	defer rows.Close()
	return scanSignals(rows)
}

func (s *SignalStore) ActiveByMarketTimeframe(ctx context.Context, market domain.MarketKind, timeframe domain.Timeframe) ([]domain.Signal, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+signalColumns+`
		FROM signals
		WHERE market = $1 AND timeframe = $2 AND status = $3`,
		string(market), string(timeframe), string(domain.SignalStatusActive))
	if err != nil {
		return nil, fmt.Errorf("store: failed to load active %s/%s signals: %w", market, timeframe, err)
	}
	defer rows.Close()
	return scanSignals(rows)
}

func (s *SignalStore) Create(ctx context.Context, sig domain.Signal) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO signals (`+signalColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`,
		sig.ID, sig.Symbol, string(sig.Market), string(sig.Timeframe), string(sig.Direction),
		string(sig.TradingType), sig.Confidence, sig.Score, sig.Entry, sig.CurrentPrice,
		sig.StopLoss, sig.TakeProfit, sig.RiskReward, sig.Leverage, sig.EstimatedHold,
		sig.Reasons, string(sig.Status), sig.CandlesSinceCreated,
		sig.CreatedAt, sig.ExpiresAt, sig.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: failed to insert signal %s: %w", sig.ID, err)
	}
	return nil
}

func (s *SignalStore) UpdateStatus(ctx context.Context, id string, status domain.SignalStatus) error {
	_, err := s.pool.Exec(ctx, `UPDATE signals SET status = $1, updated_at = now() WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("store: failed to update signal %s status: %w", id, err)
	}
	return nil
}

func (s *SignalStore) Touch(ctx context.Context, id string, currentPrice float64) error {
	_, err := s.pool.Exec(ctx, `UPDATE signals SET current_price = $1, updated_at = now() WHERE id = $2`, currentPrice, id)
	if err != nil {
		return fmt.Errorf("store: failed to touch signal %s: %w", id, err)
	}
	return nil
}

func scanSignal(row pgx.Row) (*domain.Signal, error) {
	var sig domain.Signal
	var market, timeframe, direction, tradingType, status string
	err := row.Scan(
		&sig.ID, &sig.Symbol, &market, &timeframe, &direction, &tradingType,
		&sig.Confidence, &sig.Score, &sig.Entry, &sig.CurrentPrice,
		&sig.StopLoss, &sig.TakeProfit, &sig.RiskReward, &sig.Leverage,
		&sig.EstimatedHold, &sig.Reasons, &status, &sig.CandlesSinceCreated,
		&sig.CreatedAt, &sig.ExpiresAt, &sig.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sig.Market = domain.MarketKind(market)
	sig.Timeframe = domain.Timeframe(timeframe)
	sig.Direction = domain.Direction(direction)
	sig.TradingType = domain.TradingType(tradingType)
	sig.Status = domain.SignalStatus(status)
	return &sig, nil
}

func scanSignals(rows pgx.Rows) ([]domain.Signal, error) {
	var out []domain.Signal
	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("store: failed to scan signal row: %w", err)
		}
		out = append(out, *sig)
	}
	return out, rows.Err()
}
