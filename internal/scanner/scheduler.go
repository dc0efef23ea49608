// Package scanner runs the signal engine across the symbol universe on
// a fixed per-track cadence, fetching candles in bounded-concurrency
// batches and handing approved signals to a publisher.
package scanner

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/marketpulse/scanner/internal/domain"
	"github.com/marketpulse/scanner/internal/exchange"
	"github.com/marketpulse/scanner/internal/signal"
)

// SignalPublisher hands a newly created or transitioned signal to the
// real-time fan-out hub. The scheduler depends on this narrow interface
// rather than the hub package directly.
type SignalPublisher interface {
	Publish(ctx context.Context, sig domain.Signal)
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, domain.Signal) {}

// Scheduler owns one goroutine per track, each driven by its own
// time.Ticker, following the same init-tick-then-periodic shape used
// elsewhere in this codebase for periodic background work.
type Scheduler struct {
	tracks    []Track
	client    exchange.Client
	symbols   SymbolStore
	engine    *signal.Engine
	publisher SignalPublisher

	runningMu sync.Map // track name -> *sync.Mutex, guards overlap prevention
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// NewScheduler constructs a Scheduler over tracks. publisher may be nil,
// in which case created/updated signals are not fanned out (useful for
// backtest-style isolated runs).
func NewScheduler(tracks []Track, client exchange.Client, symbols SymbolStore, engine *signal.Engine, publisher SignalPublisher) *Scheduler {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &Scheduler{
		tracks:    tracks,
		client:    client,
		symbols:   symbols,
		engine:    engine,
		publisher: publisher,
		stopCh:    make(chan struct{}),
	}
}

// Start runs every track's ticker loop until ctx is cancelled or Stop is
// called. It blocks until all track goroutines have returned.
func (s *Scheduler) Start(ctx context.Context) {
	for _, t := range s.tracks {
		s.runningMu.Store(t.Name, &sync.Mutex{})
		s.wg.Add(1)
		go s.runTrack(ctx, t)
	}
	s.wg.Wait()
}

// Stop signals every track goroutine to exit and waits for them to do so.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *Scheduler) runTrack(ctx context.Context, t Track) {
	defer s.wg.Done()

	log.Info().Str("track", t.Name).Dur("interval", t.Interval).Msg("scanner: starting track")

	s.tick(ctx, t)

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("track", t.Name).Msg("scanner: track stopped (context cancelled)")
			return
		case <-s.stopCh:
			log.Info().Str("track", t.Name).Msg("scanner: track stopped")
			return
		case <-ticker.C:
			s.tick(ctx, t)
		}
	}
}

// tick runs one scan for track t, skipping entirely (not queuing) if the
// previous tick for this track has not finished. Each tick is bounded to
// the track's own cadence.
func (s *Scheduler) tick(ctx context.Context, t Track) {
	muAny, _ := s.runningMu.Load(t.Name)
	mu := muAny.(*sync.Mutex)
	if !mu.TryLock() {
		tickSkippedOverlap.WithLabelValues(t.Name).Inc()
		log.Warn().Str("track", t.Name).Msg("scanner: previous tick still running, skipping")
		return
	}
	defer mu.Unlock()

	tickCtx, cancel := context.WithTimeout(ctx, t.Interval)
	defer cancel()

	summary := s.scanOnce(tickCtx, t)

	tickDuration.WithLabelValues(t.Name).Observe(summary.Duration.Seconds())
	symbolsProcessed.WithLabelValues(t.Name).Set(float64(summary.SymbolsProcessed))
	signalsCreated.WithLabelValues(t.Name).Add(float64(summary.Created))
	signalsUpdated.WithLabelValues(t.Name).Add(float64(summary.UpdatedPrice))
	signalsCancelled.WithLabelValues(t.Name).Add(float64(summary.Cancelled))
	symbolsSkippedDup.WithLabelValues(t.Name).Add(float64(summary.SkippedDup))
	if summary.HitTP > 0 {
		signalsExpired.WithLabelValues(t.Name, string(domain.SignalStatusHitTP)).Add(float64(summary.HitTP))
	}
	if summary.HitSL > 0 {
		signalsExpired.WithLabelValues(t.Name, string(domain.SignalStatusHitSL)).Add(float64(summary.HitSL))
	}
	if summary.Expired > 0 {
		signalsExpired.WithLabelValues(t.Name, string(domain.SignalStatusExpired)).Add(float64(summary.Expired))
	}

	log.Info().
		Str("track", t.Name).
		Int("symbols", summary.SymbolsProcessed).
		Int("created", summary.Created).
		Int("updated", summary.UpdatedPrice).
		Int("expired", summary.Expired).
		Int("hit_tp", summary.HitTP).
		Int("hit_sl", summary.HitSL).
		Int("cancelled", summary.Cancelled).
		Int("skipped_dup", summary.SkippedDup).
		Int("errors", summary.Errors).
		Dur("duration", summary.Duration).
		Msg("scanner: tick complete")
}

func (s *Scheduler) scanOnce(ctx context.Context, t Track) ScanTickSummary {
	summary := ScanTickSummary{Track: t.Name, StartedAt: time.Now()}
	defer func() { summary.Duration = time.Since(summary.StartedAt) }()

	symbols, err := s.symbols.Active(ctx, t.Market)
	if err != nil {
		log.Error().Err(err).Str("track", t.Name).Msg("scanner: failed to load active symbols")
		summary.Errors++
		return summary
	}
	if len(symbols) == 0 {
		return summary
	}

	sort.Slice(symbols, func(i, j int) bool { return symbols[i].Volume24h > symbols[j].Volume24h })

	names := make([]string, len(symbols))
	for i, sym := range symbols {
		names[i] = sym.Name
	}

	candlesBySymbol, err := s.fetchInBatches(ctx, t, names)
	if err != nil {
		log.Error().Err(err).Str("track", t.Name).Msg("scanner: batch klines fetch failed")
		summary.Errors++
		return summary
	}

	touched := make(map[string]bool, len(candlesBySymbol))
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(t.MaxConcurrent)

	for symbolName, candles := range candlesBySymbol {
		symbolName, candles := symbolName, candles
		g.Go(func() error {
			action, sig, cancelled, err := s.engine.ProcessSymbolDetail(ctx, symbolName, t.Market, t.Timeframe, candles, time.Now())

			mu.Lock()
			defer mu.Unlock()
			summary.SymbolsProcessed++
			summary.Cancelled += cancelled

			if err != nil {
				summary.Errors++
				log.Warn().Err(err).Str("track", t.Name).Str("symbol", symbolName).Msg("scanner: process_symbol failed")
				return nil
			}

			switch action {
			case signal.ActionCreated:
				summary.Created++
				touched[symbolName] = true
				s.publisher.Publish(ctx, *sig)
			case signal.ActionUpdatedPrice:
				summary.UpdatedPrice++
			case signal.ActionNone:
				summary.SkippedDup++
			}
			return nil
		})
	}
	_ = g.Wait()

	s.sweepLifecycle(ctx, t, candlesBySymbol, touched, &summary)

	return summary
}

// fetchInBatches splits names into chunks of t.BatchSize, fetching each
// chunk with bounded per-symbol concurrency and pausing t.BatchDelay
// between chunks to stay within the exchange's rate budget on tracks
// with large universes.
func (s *Scheduler) fetchInBatches(ctx context.Context, t Track, names []string) (map[string][]domain.Candle, error) {
	batchSize := t.BatchSize
	if batchSize <= 0 {
		batchSize = len(names)
	}

	out := make(map[string][]domain.Candle, len(names))
	for start := 0; start < len(names); start += batchSize {
		end := start + batchSize
		if end > len(names) {
			end = len(names)
		}

		chunk, err := s.client.BatchGetKlines(ctx, t.Market, names[start:end], t.Timeframe, t.CandleLimit)
		if err != nil {
			return nil, err
		}
		for symbol, candles := range chunk {
			out[symbol] = candles
		}

		if end < len(names) && t.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(t.BatchDelay):
			}
		}
	}
	return out, nil
}

// sweepLifecycle re-evaluates ACTIVE signals in (market, timeframe) whose
// symbol produced no new signal this tick, per the scanner's step 5.
func (s *Scheduler) sweepLifecycle(ctx context.Context, t Track, candlesBySymbol map[string][]domain.Candle, touched map[string]bool, summary *ScanTickSummary) {
	active, err := s.engine.ActiveSignals(ctx, t.Market, t.Timeframe)
	if err != nil {
		log.Error().Err(err).Str("track", t.Name).Msg("scanner: lifecycle sweep lookup failed")
		summary.Errors++
		return
	}

	for _, sig := range active {
		if touched[sig.Symbol] {
			continue
		}
		candles, ok := candlesBySymbol[sig.Symbol]
		if !ok || len(candles) == 0 {
			continue
		}
		latest := candles[len(candles)-1]

		status, err := s.engine.EvaluateLifecycle(ctx, sig, latest, time.Now())
		if err != nil {
			summary.Errors++
			log.Warn().Err(err).Str("track", t.Name).Str("symbol", sig.Symbol).Msg("scanner: lifecycle evaluation failed")
			continue
		}

		switch status {
		case domain.SignalStatusHitTP:
			summary.HitTP++
		case domain.SignalStatusHitSL:
			summary.HitSL++
		case domain.SignalStatusExpired:
			summary.Expired++
		}
	}
}
