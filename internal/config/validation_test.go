package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:      AppConfig{Name: "scanner", LogLevel: "info"},
		Database: DatabaseConfig{Host: "localhost", Port: 5432},
		Exchange: ExchangeConfig{
			BaseURLSpot:      "https://api.binance.com",
			BaseURLFutures:   "https://fapi.binance.com",
			SpotRateLimit:    1200,
			FuturesRateLimit: 2400,
		},
		Scanner: ScannerConfig{
			Tracks: []TrackConfig{
				{Name: "fast", Market: "spot", Timeframe: "5m", Interval: time.Minute, CandleLimit: 200, BatchSize: 10},
			},
		},
		SignalEngine: SignalEngineConfig{
			ConfidenceThreshold: 0.65,
			SizingMode:          "PERCENT",
		},
		Accounts: []AccountConfig{{Name: "primary", InitialBalance: 10000}},
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_MissingTracks(t *testing.T) {
	cfg := validConfig()
	cfg.Scanner.Tracks = nil
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "scanner.tracks")
}

func TestValidate_DuplicateTrackNames(t *testing.T) {
	cfg := validConfig()
	cfg.Scanner.Tracks = append(cfg.Scanner.Tracks, cfg.Scanner.Tracks[0])
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate track name")
}

func TestValidate_InvalidSizingMode(t *testing.T) {
	cfg := validConfig()
	cfg.SignalEngine.SizingMode = "MARTINGALE"
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "signal_engine.sizing_mode")
}

func TestValidate_VolatilityAwareRejected(t *testing.T) {
	cfg := validConfig()
	cfg.SignalEngine.UseVolatilityAware = true
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "use_volatility_aware")
}

func TestValidate_NoAccounts(t *testing.T) {
	cfg := validConfig()
	cfg.Accounts = nil
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "accounts")
}
