package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/marketpulse/scanner/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	NATS         NATSConfig         `mapstructure:"nats"`
	Exchange     ExchangeConfig     `mapstructure:"exchange"`
	Scanner      ScannerConfig      `mapstructure:"scanner"`
	SignalEngine SignalEngineConfig `mapstructure:"signal_engine"`
	Accounts     []AccountConfig    `mapstructure:"accounts"`
	Webhook      WebhookConfig      `mapstructure:"webhook"`
	Monitoring   MonitoringConfig   `mapstructure:"monitoring"`
}

// AppConfig contains application-level settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"` // development, staging, production
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"` // "json" or "console"
}

// DatabaseConfig contains PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
	PoolSize int    `mapstructure:"pool_size"`
}

// RedisConfig contains Redis settings used for the candle/ticker cache.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      int    `mapstructure:"ttl_seconds"`
}

// NATSConfig configures the optional out-of-process event bus republish.
type NATSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// ExchangeConfig contains exchange connectivity and rate-limit settings.
type ExchangeConfig struct {
	BaseURLSpot      string `mapstructure:"base_url_spot"`
	BaseURLFutures   string `mapstructure:"base_url_futures"`
	Testnet          bool   `mapstructure:"testnet"`
	SpotRateLimit    int    `mapstructure:"spot_rate_limit_per_min"`
	FuturesRateLimit int    `mapstructure:"futures_rate_limit_per_min"`
	MaxRetries       int    `mapstructure:"max_retries"`
}

// TrackConfig describes one scanner cadence track.
type TrackConfig struct {
	Name          string        `mapstructure:"name"`
	Market        string        `mapstructure:"market"` // "spot" or "futures"
	Timeframe     string        `mapstructure:"timeframe"`
	Interval      time.Duration `mapstructure:"interval"`
	CandleLimit   int           `mapstructure:"candle_limit"`
	BatchSize     int           `mapstructure:"batch_size"`
	BatchDelay    time.Duration `mapstructure:"batch_delay"`
	MaxConcurrent int           `mapstructure:"max_concurrent"`
}

// ToDomainMarket converts the track's on-disk market name to domain.MarketKind.
func (t TrackConfig) ToDomainMarket() domain.MarketKind {
	if t.Market == "futures" {
		return domain.MarketFutures
	}
	return domain.MarketSpot
}

// ToDomainTimeframe converts the track's on-disk timeframe string to
// domain.Timeframe. Callers that read tracks from Load have already
// passed validation, so unrecognized values fall back to Timeframe1h
// rather than panicking.
func (t TrackConfig) ToDomainTimeframe() domain.Timeframe {
	switch t.Timeframe {
	case string(domain.Timeframe1m):
		return domain.Timeframe1m
	case string(domain.Timeframe5m):
		return domain.Timeframe5m
	case string(domain.Timeframe15m):
		return domain.Timeframe15m
	case string(domain.Timeframe4h):
		return domain.Timeframe4h
	case string(domain.Timeframe1d):
		return domain.Timeframe1d
	default:
		return domain.Timeframe1h
	}
}

// ScannerConfig contains the scheduler's track table and symbol sync cadence.
type ScannerConfig struct {
	Tracks           []TrackConfig `mapstructure:"tracks"`
	SymbolSyncPeriod time.Duration `mapstructure:"symbol_sync_period"`
	MinVolume24h     float64       `mapstructure:"min_volume_24h"`
}

// SignalEngineConfig is the on-disk shape of the default signal-engine
// configuration record; it is converted to domain.SignalEngineConfig at
// startup via ToDomain.
type SignalEngineConfig struct {
	Name                  string  `mapstructure:"name"`
	ConfidenceThreshold   float64 `mapstructure:"confidence_threshold"`
	LongRSIMin            float64 `mapstructure:"long_rsi_min"`
	LongRSIMax            float64 `mapstructure:"long_rsi_max"`
	ShortRSIMin           float64 `mapstructure:"short_rsi_min"`
	ShortRSIMax           float64 `mapstructure:"short_rsi_max"`
	LongADXMin            float64 `mapstructure:"long_adx_min"`
	ShortADXMin           float64 `mapstructure:"short_adx_min"`
	LongVolumeMultiplier  float64 `mapstructure:"long_volume_multiplier"`
	ShortVolumeMultiplier float64 `mapstructure:"short_volume_multiplier"`
	SLATRMultiplier       float64 `mapstructure:"sl_atr_multiplier"`
	TPATRMultiplier       float64 `mapstructure:"tp_atr_multiplier"`
	FuturesLeverage       float64 `mapstructure:"futures_leverage"`
	SpotLeverage          float64 `mapstructure:"spot_leverage"`
	ExpiryMultiplier      float64 `mapstructure:"expiry_multiplier"`
	RiskPctPerTrade       float64 `mapstructure:"risk_pct_per_trade"`
	SizingMode            string  `mapstructure:"sizing_mode"`
	UseVolatilityAware    bool    `mapstructure:"use_volatility_aware"`
	Weights               struct {
		MACDCross     float64 `mapstructure:"macd_cross"`
		RSIBand       float64 `mapstructure:"rsi_band"`
		PriceVsEMA50  float64 `mapstructure:"price_vs_ema50"`
		ADXMin        float64 `mapstructure:"adx_min"`
		HeikinAshi    float64 `mapstructure:"heikin_ashi"`
		VolumeSurge   float64 `mapstructure:"volume_surge"`
		EMAAlignment  float64 `mapstructure:"ema_alignment"`
		DirectionalDI float64 `mapstructure:"directional_di"`
		BollingerMid  float64 `mapstructure:"bollinger_mid"`
		ATRBand       float64 `mapstructure:"atr_band"`
	} `mapstructure:"weights"`
}

// ToDomain converts the viper-shape signal engine config into the
// domain.SignalEngineConfig consumed by signal.NewEngine.
func (s SignalEngineConfig) ToDomain() domain.SignalEngineConfig {
	sizing := domain.SizingPercent
	switch s.SizingMode {
	case string(domain.SizingFixed):
		sizing = domain.SizingFixed
	case string(domain.SizingKelly):
		sizing = domain.SizingKelly
	}

	return domain.SignalEngineConfig{
		Name:          s.Name,
		SchemaVersion: "1.0",
		Weights: domain.IndicatorWeights{
			MACDCross:     s.Weights.MACDCross,
			RSIBand:       s.Weights.RSIBand,
			PriceVsEMA50:  s.Weights.PriceVsEMA50,
			ADXMin:        s.Weights.ADXMin,
			HeikinAshi:    s.Weights.HeikinAshi,
			VolumeSurge:   s.Weights.VolumeSurge,
			EMAAlignment:  s.Weights.EMAAlignment,
			DirectionalDI: s.Weights.DirectionalDI,
			BollingerMid:  s.Weights.BollingerMid,
			ATRBand:       s.Weights.ATRBand,
		},
		MinConfidence:         s.ConfidenceThreshold,
		LongRSIMin:            s.LongRSIMin,
		LongRSIMax:            s.LongRSIMax,
		ShortRSIMin:           s.ShortRSIMin,
		ShortRSIMax:           s.ShortRSIMax,
		LongADXMin:            s.LongADXMin,
		ShortADXMin:           s.ShortADXMin,
		LongVolumeMultiplier:  s.LongVolumeMultiplier,
		ShortVolumeMultiplier: s.ShortVolumeMultiplier,
		SLATRMultiplier:       s.SLATRMultiplier,
		TPATRMultiplier:       s.TPATRMultiplier,
		FuturesLeverage:       s.FuturesLeverage,
		SpotLeverage:          s.SpotLeverage,
		ExpiryMultiplier:      s.ExpiryMultiplier,
		SizingMode:            sizing,
		RiskPctPerTrade:       s.RiskPctPerTrade,
		UseVolatilityAware:    s.UseVolatilityAware,
		CreatedAt:             time.Now(),
	}
}

// AccountConfig seeds a paper-trading account at startup.
type AccountConfig struct {
	Name           string  `mapstructure:"name"`
	InitialBalance float64 `mapstructure:"initial_balance"`
}

// WebhookConfig configures the optional webhook sink in the fan-out hub.
type WebhookConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// MonitoringConfig contains Prometheus/health server settings.
type MonitoringConfig struct {
	PrometheusPort int  `mapstructure:"prometheus_port"`
	EnableMetrics  bool `mapstructure:"enable_metrics"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("SCANNER")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "scanner")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.database", "scanner")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.pool_size", 10)

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl_seconds", 30)

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")

	v.SetDefault("exchange.base_url_spot", "https://api.binance.com")
	v.SetDefault("exchange.base_url_futures", "https://fapi.binance.com")
	v.SetDefault("exchange.testnet", false)
	v.SetDefault("exchange.spot_rate_limit_per_min", 1200)
	v.SetDefault("exchange.futures_rate_limit_per_min", 2400)
	v.SetDefault("exchange.max_retries", 3)

	v.SetDefault("scanner.symbol_sync_period", 1*time.Hour)
	v.SetDefault("scanner.min_volume_24h", 1_000_000.0)
	v.SetDefault("scanner.tracks", []map[string]interface{}{
		{"name": "spot-5m", "market": "spot", "timeframe": "5m", "interval": "5m", "candle_limit": 200, "batch_size": 20, "batch_delay": "250ms", "max_concurrent": 8},
		{"name": "spot-1h", "market": "spot", "timeframe": "1h", "interval": "1h", "candle_limit": 200, "batch_size": 20, "batch_delay": "250ms", "max_concurrent": 8},
		{"name": "futures-5m", "market": "futures", "timeframe": "5m", "interval": "5m", "candle_limit": 300, "batch_size": 20, "batch_delay": "250ms", "max_concurrent": 8},
		{"name": "futures-15m", "market": "futures", "timeframe": "15m", "interval": "15m", "candle_limit": 200, "batch_size": 20, "batch_delay": "250ms", "max_concurrent": 8},
		{"name": "futures-1h", "market": "futures", "timeframe": "1h", "interval": "1h", "candle_limit": 200, "batch_size": 20, "batch_delay": "250ms", "max_concurrent": 8},
		{"name": "futures-4h", "market": "futures", "timeframe": "4h", "interval": "4h", "candle_limit": 150, "batch_size": 20, "batch_delay": "250ms", "max_concurrent": 4},
		{"name": "futures-1d", "market": "futures", "timeframe": "1d", "interval": "24h", "candle_limit": 100, "batch_size": 20, "batch_delay": "250ms", "max_concurrent": 4},
	})

	v.SetDefault("signal_engine.name", "default")
	v.SetDefault("signal_engine.confidence_threshold", 0.70)
	v.SetDefault("signal_engine.long_rsi_min", 40.0)
	v.SetDefault("signal_engine.long_rsi_max", 70.0)
	v.SetDefault("signal_engine.short_rsi_min", 30.0)
	v.SetDefault("signal_engine.short_rsi_max", 60.0)
	v.SetDefault("signal_engine.long_adx_min", 20.0)
	v.SetDefault("signal_engine.short_adx_min", 20.0)
	v.SetDefault("signal_engine.long_volume_multiplier", 1.2)
	v.SetDefault("signal_engine.short_volume_multiplier", 1.2)
	v.SetDefault("signal_engine.sl_atr_multiplier", 1.5)
	v.SetDefault("signal_engine.tp_atr_multiplier", 3.0)
	v.SetDefault("signal_engine.futures_leverage", 10.0)
	v.SetDefault("signal_engine.spot_leverage", 1.0)
	v.SetDefault("signal_engine.expiry_multiplier", 10.0)
	v.SetDefault("signal_engine.risk_pct_per_trade", 0.01)
	v.SetDefault("signal_engine.sizing_mode", "PERCENT")
	v.SetDefault("signal_engine.use_volatility_aware", false)
	v.SetDefault("signal_engine.weights.macd_cross", 2.0)
	v.SetDefault("signal_engine.weights.rsi_band", 1.5)
	v.SetDefault("signal_engine.weights.price_vs_ema50", 1.8)
	v.SetDefault("signal_engine.weights.adx_min", 1.7)
	v.SetDefault("signal_engine.weights.heikin_ashi", 1.6)
	v.SetDefault("signal_engine.weights.volume_surge", 1.4)
	v.SetDefault("signal_engine.weights.ema_alignment", 1.2)
	v.SetDefault("signal_engine.weights.directional_di", 1.0)
	v.SetDefault("signal_engine.weights.bollinger_mid", 0.8)
	v.SetDefault("signal_engine.weights.atr_band", 0.5)

	v.SetDefault("accounts", []map[string]interface{}{
		{"name": "primary", "initial_balance": 10000.0},
	})

	v.SetDefault("webhook.timeout", "5s")

	v.SetDefault("monitoring.prometheus_port", 9100)
	v.SetDefault("monitoring.enable_metrics", true)
}

// GetDSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// GetRedisAddr returns the Redis address.
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
