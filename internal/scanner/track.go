package scanner

import (
	"time"

	"github.com/marketpulse/scanner/internal/config"
	"github.com/marketpulse/scanner/internal/domain"
)

// Track is one (market, timeframe) scanning cadence, derived from its
// on-disk config.TrackConfig.
type Track struct {
	Name          string
	Market        domain.MarketKind
	Timeframe     domain.Timeframe
	Interval      time.Duration
	CandleLimit   int
	BatchSize     int
	BatchDelay    time.Duration
	MaxConcurrent int
}

// NewTrack converts a viper-shape TrackConfig into the domain-typed
// Track the scheduler runs.
func NewTrack(c config.TrackConfig) Track {
	maxConcurrent := c.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	return Track{
		Name:          c.Name,
		Market:        c.ToDomainMarket(),
		Timeframe:     c.ToDomainTimeframe(),
		Interval:      c.Interval,
		CandleLimit:   c.CandleLimit,
		BatchSize:     c.BatchSize,
		BatchDelay:    c.BatchDelay,
		MaxConcurrent: maxConcurrent,
	}
}

// ScanTickSummary reports the outcome of one scan tick for one track.
type ScanTickSummary struct {
	Track             string
	SymbolsProcessed  int
	Created           int
	UpdatedPrice      int
	Expired           int
	HitTP             int
	HitSL             int
	Cancelled         int
	SkippedDup        int
	Errors            int
	Duration          time.Duration
	StartedAt         time.Time
}
