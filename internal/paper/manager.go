package paper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/marketpulse/scanner/internal/domain"
	"github.com/marketpulse/scanner/internal/exchange"
)

// Manager converts approved signals into simulated positions, marks
// them to market on a fixed cadence, and resolves them to a closed
// state on SL/TP or explicit command. Every state transition for a
// given trade id is serialized through a per-id mutex so a concurrent
// mark-to-market tick and a manual close can never race on the same
// trade.
type Manager struct {
	store  Store
	client exchange.Client

	tradeLocks sync.Map // trade id -> *sync.Mutex

	markPeriod time.Duration
	stopCh     chan struct{}
	wg         sync.WaitGroup
}

// NewManager constructs a Manager. markPeriod is the mark-to-market
// cadence; spec default is 30 seconds.
func NewManager(store Store, client exchange.Client, markPeriod time.Duration) *Manager {
	if markPeriod <= 0 {
		markPeriod = 30 * time.Second
	}
	return &Manager{store: store, client: client, markPeriod: markPeriod, stopCh: make(chan struct{})}
}

func (m *Manager) lockFor(tradeID string) *sync.Mutex {
	muAny, _ := m.tradeLocks.LoadOrStore(tradeID, &sync.Mutex{})
	return muAny.(*sync.Mutex)
}

// OnSignalCreated opens a paper trade against account if auto-trading
// is enabled, the signal clears the account's confidence floor, and
// the account is under its open-trade cap. It is a no-op, not an
// error, when any condition fails to hold.
func (m *Manager) OnSignalCreated(ctx context.Context, account domain.PaperAccount, sig domain.Signal) (*domain.PaperTrade, error) {
	if !account.AutoTradeEnabled {
		return nil, nil
	}
	if sig.Confidence < account.MinSignalConfidence {
		return nil, nil
	}

	open, err := m.store.OpenTradesForAccount(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("paper: failed to load open trades: %w", err)
	}
	if len(open) >= account.MaxOpenTrades {
		return nil, nil
	}

	notional, err := m.sizePosition(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("paper: failed to size position: %w", err)
	}
	if notional <= 0 {
		return nil, nil
	}

	quantity := notional / sig.Entry
	now := time.Now()
	trade := domain.PaperTrade{
		ID:         uuid.New().String(),
		AccountID:  account.ID,
		SignalID:   sig.ID,
		Symbol:     sig.Symbol,
		Market:     sig.Market,
		Direction:  sig.Direction,
		EntryPrice: sig.Entry,
		StopLoss:   sig.StopLoss,
		TakeProfit: sig.TakeProfit,
		Leverage:   sig.Leverage,
		Quantity:   quantity,
		Notional:   notional,
		Status:     domain.PaperTradeOpen,
		OpenedAt:   now,
	}

	if err := m.store.CreateTrade(ctx, trade); err != nil {
		return nil, fmt.Errorf("paper: failed to create trade: %w", err)
	}
	log.Info().Str("account", account.ID).Str("symbol", trade.Symbol).Str("direction", string(trade.Direction)).
		Float64("notional", notional).Msg("paper: opened trade")
	return &trade, nil
}

// sizePosition converts account.SizingMode into a quote-currency
// notional for the next trade.
func (m *Manager) sizePosition(ctx context.Context, account domain.PaperAccount) (float64, error) {
	switch account.SizingMode {
	case domain.SizingFixed:
		return account.FixedSizeQuote, nil
	case domain.SizingPercent:
		return account.Balance * account.PercentOfBalance, nil
	case domain.SizingKelly:
		closed, err := m.store.RecentClosedTrades(ctx, account.ID, 200)
		if err != nil {
			return 0, err
		}
		frac := kellyFraction(computeTradeStats(closed), account.KellyFraction)
		return account.Balance * frac, nil
	default:
		return 0, nil
	}
}

// OnCandle marks an OPEN trade to the latest price and closes it if
// the move has reached its stop-loss or take-profit. latestPrice is
// shared across every OPEN trade on the same symbol for a given tick.
func (m *Manager) OnCandle(ctx context.Context, tradeID string, latestPrice float64) error {
	lock := m.lockFor(tradeID)
	lock.Lock()
	defer lock.Unlock()

	trade, err := m.store.GetTrade(ctx, tradeID)
	if err != nil {
		return fmt.Errorf("paper: failed to load trade %s: %w", tradeID, err)
	}
	if trade == nil || trade.Status != domain.PaperTradeOpen {
		return nil
	}

	hitTP, hitSL := false, false
	if trade.Direction == domain.DirectionLong {
		hitTP = latestPrice >= trade.TakeProfit
		hitSL = latestPrice <= trade.StopLoss
	} else {
		hitTP = latestPrice <= trade.TakeProfit
		hitSL = latestPrice >= trade.StopLoss
	}

	if !hitSL && !hitTP {
		return nil
	}

	acct, err := m.store.GetAccount(ctx, trade.AccountID)
	if err != nil {
		return fmt.Errorf("paper: failed to load account %s: %w", trade.AccountID, err)
	}

	// Conservative tie rule mirrors the signal engine: an adverse fill
	// takes priority when both bounds are reachable at once.
	if hitSL {
		return m.settle(ctx, trade, acct, latestPrice, domain.CloseReasonStopLoss)
	}
	return m.settle(ctx, trade, acct, latestPrice, domain.CloseReasonTakeProfit)
}

// Close force-closes an OPEN trade at the given market price,
// independent of its SL/TP bounds.
func (m *Manager) Close(ctx context.Context, tradeID string, marketPrice float64) error {
	lock := m.lockFor(tradeID)
	lock.Lock()
	defer lock.Unlock()

	trade, err := m.store.GetTrade(ctx, tradeID)
	if err != nil {
		return fmt.Errorf("paper: failed to load trade %s: %w", tradeID, err)
	}
	if trade == nil || trade.Status != domain.PaperTradeOpen {
		return nil
	}

	acct, err := m.store.GetAccount(ctx, trade.AccountID)
	if err != nil {
		return fmt.Errorf("paper: failed to load account %s: %w", trade.AccountID, err)
	}
	if acct == nil {
		return fmt.Errorf("paper: account %s not found", trade.AccountID)
	}
	return m.settle(ctx, trade, acct, marketPrice, domain.CloseReasonManual)
}

// Cancel voids an OPEN trade without realizing any P&L: the trade is
// marked CANCELLED and the account balance is left as it was. This
// paper-trading model opens trades directly into OPEN at signal entry
// price rather than staging a PENDING order, so OPEN is the only state
// Cancel acts on; a trade in any other state is left unchanged.
func (m *Manager) Cancel(ctx context.Context, tradeID string) error {
	lock := m.lockFor(tradeID)
	lock.Lock()
	defer lock.Unlock()

	trade, err := m.store.GetTrade(ctx, tradeID)
	if err != nil {
		return fmt.Errorf("paper: failed to load trade %s: %w", tradeID, err)
	}
	if trade == nil {
		return nil
	}
	if trade.Status != domain.PaperTradeOpen {
		return nil
	}
	acct, err := m.store.GetAccount(ctx, trade.AccountID)
	if err != nil {
		return fmt.Errorf("paper: failed to load account %s: %w", trade.AccountID, err)
	}
	if acct == nil {
		return fmt.Errorf("paper: account %s not found", trade.AccountID)
	}
	trade.Status = domain.PaperTradeCancelled
	trade.CloseReason = domain.CloseReasonCancelled
	trade.ClosedAt = time.Now()
	return m.store.CloseTrade(ctx, *trade, acct.Balance)
}

// settle computes realized P&L for trade at exitPrice and commits the
// closed trade plus the account's new balance in one call, satisfying
// the exactly-once OPEN to CLOSED transition and atomic balance update.
func (m *Manager) settle(ctx context.Context, trade *domain.PaperTrade, acct *domain.PaperAccount, exitPrice float64, reason domain.PaperTradeCloseReason) error {
	if acct == nil {
		return fmt.Errorf("paper: account %s not found while settling trade %s", trade.AccountID, trade.ID)
	}

	sign := 1.0
	if trade.Direction == domain.DirectionShort {
		sign = -1.0
	}
	pnl := sign * (exitPrice - trade.EntryPrice) * trade.Quantity * trade.Leverage
	pnlPct := 0.0
	if trade.Notional > 0 {
		pnlPct = pnl / trade.Notional
	}

	trade.Status = domain.PaperTradeClosed
	trade.ExitPrice = exitPrice
	trade.CloseReason = reason
	trade.PnL = pnl
	trade.PnLPct = pnlPct
	trade.ClosedAt = time.Now()

	newBalance := acct.Balance + pnl
	if err := m.store.CloseTrade(ctx, *trade, newBalance); err != nil {
		return fmt.Errorf("paper: failed to settle trade %s: %w", trade.ID, err)
	}
	log.Info().Str("trade", trade.ID).Str("reason", string(reason)).Float64("pnl", pnl).Msg("paper: trade closed")
	return nil
}

// Start runs the mark-to-market loop until ctx is cancelled or Stop is
// called, following the same init-tick-then-periodic shape used by the
// scanner's track scheduler.
func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	defer m.wg.Done()

	m.markAll(ctx)

	ticker := time.NewTicker(m.markPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.markAll(ctx)
		}
	}
}

// Stop signals the mark-to-market loop to exit and waits for it.
func (m *Manager) Stop() {
	close(m.stopCh)
	m.wg.Wait()
}

// markAll batches OPEN trades by symbol so every trade on a symbol
// shares a single ticker read per tick.
func (m *Manager) markAll(ctx context.Context) {
	accounts, err := m.store.Accounts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("paper: failed to list accounts for mark-to-market")
		return
	}

	bySymbolMarket := make(map[domain.MarketKind]map[string][]domain.PaperTrade)
	for _, acct := range accounts {
		trades, err := m.store.OpenTradesForAccount(ctx, acct.ID)
		if err != nil {
			log.Error().Err(err).Str("account", acct.ID).Msg("paper: failed to list open trades")
			continue
		}
		for _, t := range trades {
			if bySymbolMarket[t.Market] == nil {
				bySymbolMarket[t.Market] = make(map[string][]domain.PaperTrade)
			}
			bySymbolMarket[t.Market][t.Symbol] = append(bySymbolMarket[t.Market][t.Symbol], t)
		}
	}

	for market, bySymbol := range bySymbolMarket {
		symbols := make([]string, 0, len(bySymbol))
		for sym := range bySymbol {
			symbols = append(symbols, sym)
		}
		prices, err := m.client.GetBatchTickers(ctx, market, symbols)
		if err != nil {
			log.Error().Err(err).Str("market", string(market)).Msg("paper: batch ticker fetch failed")
			continue
		}
		for sym, trades := range bySymbol {
			price, ok := prices[sym]
			if !ok {
				continue
			}
			for _, t := range trades {
				if err := m.OnCandle(ctx, t.ID, price); err != nil {
					log.Warn().Err(err).Str("trade", t.ID).Msg("paper: mark-to-market failed")
				}
			}
		}
	}
}
