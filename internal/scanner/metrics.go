package scanner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the track scheduler, one series per track name
// (bounded cardinality: the track table is fixed at startup).
var (
	tickDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scanner_scan_tick_duration_seconds",
		Help:    "Wall time of one scan tick for a track",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"track"})

	signalsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_scan_signals_created_total",
		Help: "Signals created by a track's scan ticks",
	}, []string{"track"})

	signalsUpdated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_scan_signals_updated_total",
		Help: "Active signals whose price was refreshed instead of duplicated",
	}, []string{"track"})

	signalsExpired = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_scan_signals_expired_total",
		Help: "Active signals transitioned to EXPIRED/HIT_TP/HIT_SL during a tick's lifecycle sweep",
	}, []string{"track", "status"})

	signalsCancelled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_scan_signals_cancelled_total",
		Help: "Active signals cancelled by a higher-priority timeframe",
	}, []string{"track"})

	symbolsSkippedDup = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_scan_skipped_dup_total",
		Help: "Symbol scans that produced no signal (below the confidence threshold, too few candles, or suppressed by cross-timeframe priority); de-duplicated scans are counted in scanner_scan_signals_updated_total instead",
	}, []string{"track"})

	tickSkippedOverlap = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_tick_skipped_overlap_total",
		Help: "Ticks skipped because the previous tick for the track was still running",
	}, []string{"track"})

	symbolsProcessed = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scanner_scan_symbols_processed",
		Help: "Symbols processed in the most recent tick for a track",
	}, []string{"track"})
)
