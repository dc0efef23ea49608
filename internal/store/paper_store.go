package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketpulse/scanner/internal/domain"
	"github.com/marketpulse/scanner/internal/paper"
)

// PaperStore is the Postgres-backed paper.Store. CloseTrade commits the
// trade-close and the account balance update inside one pgx.Tx, the
// same invariant paper.MemoryStore enforces with a single mutex
// critical section.
type PaperStore struct {
	pool *pgxpool.Pool
}

// NewPaperStore wraps pool as a paper.Store.
func NewPaperStore(pool *pgxpool.Pool) *PaperStore {
	return &PaperStore{pool: pool}
}

var _ paper.Store = (*PaperStore)(nil)

const paperTradeColumns = `
	id, account_id, signal_id, symbol, market, direction, entry_price, stop_loss,
	take_profit, leverage, quantity, notional, status, exit_price, close_reason,
	pnl, pnl_pct, opened_at, closed_at`

func (s *PaperStore) Accounts(ctx context.Context) ([]domain.PaperAccount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, balance, equity, auto_trade_enabled, min_signal_confidence,
		       max_open_trades, sizing_mode, fixed_size_quote, percent_of_balance,
		       kelly_fraction, created_at, updated_at
		FROM paper_accounts
	`)
	if err != nil {
		return nil, fmt.Errorf("store: failed to list paper accounts: %w", err)
	}
	defer rows.Close()

	var out []domain.PaperAccount
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("store: failed to scan paper account row: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *PaperStore) GetAccount(ctx context.Context, id string) (*domain.PaperAccount, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, balance, equity, auto_trade_enabled, min_signal_confidence,
		       max_open_trades, sizing_mode, fixed_size_quote, percent_of_balance,
		       kelly_fraction, created_at, updated_at
		FROM paper_accounts WHERE id = $1
	`, id)
	a, err := scanAccount(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: failed to load paper account %s: %w", id, err)
	}
	return a, nil
}

func (s *PaperStore) OpenTradesForAccount(ctx context.Context, accountID string) ([]domain.PaperTrade, error) {
	return s.queryTrades(ctx, `WHERE account_id = $1 AND status = $2`, accountID, string(domain.PaperTradeOpen))
}

func (s *PaperStore) OpenTradesBySymbol(ctx context.Context, symbol string) ([]domain.PaperTrade, error) {
	return s.queryTrades(ctx, `WHERE symbol = $1 AND status = $2`, symbol, string(domain.PaperTradeOpen))
}

func (s *PaperStore) RecentClosedTrades(ctx context.Context, accountID string, limit int) ([]domain.PaperTrade, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+paperTradeColumns+`
		FROM paper_trades WHERE account_id = $1 AND status = $2
		ORDER BY closed_at DESC LIMIT $3
	`, accountID, string(domain.PaperTradeClosed), limit)
	if err != nil {
		return nil, fmt.Errorf("store: failed to load recent closed trades for account %s: %w", accountID, err)
	}
	defer rows.Close()
	return scanTrades(rows)
}

func (s *PaperStore) queryTrades(ctx context.Context, where string, args ...interface{}) ([]domain.PaperTrade, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+paperTradeColumns+` FROM paper_trades `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("store: failed to query paper trades: %w", err)
	}
	defer rows.Close()
	return scanTrades(rows)
}

func (s *PaperStore) CreateTrade(ctx context.Context, trade domain.PaperTrade) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO paper_trades (`+paperTradeColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
	`,
		trade.ID, trade.AccountID, trade.SignalID, trade.Symbol, string(trade.Market),
		string(trade.Direction), trade.EntryPrice, trade.StopLoss, trade.TakeProfit,
		trade.Leverage, trade.Quantity, trade.Notional, string(trade.Status),
		trade.ExitPrice, string(trade.CloseReason), trade.PnL, trade.PnLPct,
		trade.OpenedAt, trade.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("store: failed to insert paper trade %s: %w", trade.ID, err)
	}
	return nil
}

func (s *PaperStore) GetTrade(ctx context.Context, id string) (*domain.PaperTrade, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+paperTradeColumns+` FROM paper_trades WHERE id = $1`, id)
	t, err := scanTrade(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: failed to load paper trade %s: %w", id, err)
	}
	return t, nil
}

// CloseTrade commits the trade's closed state and the account's new
// balance/equity in one transaction, so a crash between the two writes
// can never leave the account balance out of sync with trade history.
func (s *PaperStore) CloseTrade(ctx context.Context, trade domain.PaperTrade, newBalance float64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: failed to begin close-trade transaction for %s: %w", trade.ID, err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE paper_trades
		SET status = $1, exit_price = $2, close_reason = $3, pnl = $4, pnl_pct = $5, closed_at = $6
		WHERE id = $7
	`, string(trade.Status), trade.ExitPrice, string(trade.CloseReason), trade.PnL, trade.PnLPct, trade.ClosedAt, trade.ID)
	if err != nil {
		return fmt.Errorf("store: failed to update paper trade %s: %w", trade.ID, err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE paper_accounts SET balance = $1, equity = $1, updated_at = now() WHERE id = $2
	`, newBalance, trade.AccountID)
	if err != nil {
		return fmt.Errorf("store: failed to update account %s balance: %w", trade.AccountID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("store: failed to commit close-trade transaction for %s: %w", trade.ID, err)
	}
	return nil
}

func scanAccount(row pgx.Row) (*domain.PaperAccount, error) {
	var a domain.PaperAccount
	var sizingMode string
	err := row.Scan(
		&a.ID, &a.Name, &a.Balance, &a.Equity, &a.AutoTradeEnabled, &a.MinSignalConfidence,
		&a.MaxOpenTrades, &sizingMode, &a.FixedSizeQuote, &a.PercentOfBalance,
		&a.KellyFraction, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.SizingMode = domain.SizingMode(sizingMode)
	return &a, nil
}

func scanTrade(row pgx.Row) (*domain.PaperTrade, error) {
	var t domain.PaperTrade
	var market, direction, status, closeReason string
	err := row.Scan(
		&t.ID, &t.AccountID, &t.SignalID, &t.Symbol, &market, &direction,
		&t.EntryPrice, &t.StopLoss, &t.TakeProfit, &t.Leverage, &t.Quantity, &t.Notional,
		&status, &t.ExitPrice, &closeReason, &t.PnL, &t.PnLPct, &t.OpenedAt, &t.ClosedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Market = domain.MarketKind(market)
	t.Direction = domain.Direction(direction)
	t.Status = domain.PaperTradeStatus(status)
	t.CloseReason = domain.PaperTradeCloseReason(closeReason)
	return &t, nil
}

func scanTrades(rows pgx.Rows) ([]domain.PaperTrade, error) {
	var out []domain.PaperTrade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("store: failed to scan paper trade row: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}
