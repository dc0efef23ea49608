package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d error(s):\n\n", len(ve)))
	for i, err := range ve {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// Validate performs configuration validation.
func (c *Config) Validate() error {
	var errs ValidationErrors

	errs = append(errs, c.validateApp()...)
	errs = append(errs, c.validateDatabase()...)
	errs = append(errs, c.validateExchange()...)
	errs = append(errs, c.validateScanner()...)
	errs = append(errs, c.validateSignalEngine()...)
	errs = append(errs, c.validateAccounts()...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (c *Config) validateApp() ValidationErrors {
	var errs ValidationErrors
	if c.App.Name == "" {
		errs = append(errs, ValidationError{Field: "app.name", Message: "application name is required"})
	}
	switch c.App.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{Field: "app.log_level", Message: "must be one of debug, info, warn, error"})
	}
	return errs
}

func (c *Config) validateDatabase() ValidationErrors {
	var errs ValidationErrors
	if c.Database.Host == "" {
		errs = append(errs, ValidationError{Field: "database.host", Message: "host is required"})
	}
	if c.Database.Port <= 0 {
		errs = append(errs, ValidationError{Field: "database.port", Message: "must be positive"})
	}
	return errs
}

func (c *Config) validateExchange() ValidationErrors {
	var errs ValidationErrors
	if c.Exchange.BaseURLSpot == "" {
		errs = append(errs, ValidationError{Field: "exchange.base_url_spot", Message: "required"})
	}
	if c.Exchange.BaseURLFutures == "" {
		errs = append(errs, ValidationError{Field: "exchange.base_url_futures", Message: "required"})
	}
	if c.Exchange.SpotRateLimit <= 0 {
		errs = append(errs, ValidationError{Field: "exchange.spot_rate_limit_per_min", Message: "must be positive"})
	}
	if c.Exchange.FuturesRateLimit <= 0 {
		errs = append(errs, ValidationError{Field: "exchange.futures_rate_limit_per_min", Message: "must be positive"})
	}
	return errs
}

func (c *Config) validateScanner() ValidationErrors {
	var errs ValidationErrors
	if len(c.Scanner.Tracks) == 0 {
		errs = append(errs, ValidationError{Field: "scanner.tracks", Message: "at least one track is required"})
	}
	seen := map[string]bool{}
	for i, t := range c.Scanner.Tracks {
		if t.Name == "" {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("scanner.tracks[%d].name", i), Message: "required"})
		}
		if seen[t.Name] {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("scanner.tracks[%d].name", i), Message: "duplicate track name"})
		}
		seen[t.Name] = true
		if t.Interval <= 0 {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("scanner.tracks[%d].interval", i), Message: "must be positive"})
		}
		if t.BatchSize <= 0 {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("scanner.tracks[%d].batch_size", i), Message: "must be positive"})
		}
		if t.CandleLimit <= 0 {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("scanner.tracks[%d].candle_limit", i), Message: "must be positive"})
		}
		switch t.Market {
		case "spot", "futures":
		default:
			errs = append(errs, ValidationError{Field: fmt.Sprintf("scanner.tracks[%d].market", i), Message: "must be spot or futures"})
		}
		switch t.Timeframe {
		case "1m", "5m", "15m", "1h", "4h", "1d":
		default:
			errs = append(errs, ValidationError{Field: fmt.Sprintf("scanner.tracks[%d].timeframe", i), Message: "must be one of 1m, 5m, 15m, 1h, 4h, 1d"})
		}
	}
	return errs
}

func (c *Config) validateSignalEngine() ValidationErrors {
	var errs ValidationErrors
	se := c.SignalEngine
	if se.ConfidenceThreshold <= 0 || se.ConfidenceThreshold > 1 {
		errs = append(errs, ValidationError{Field: "signal_engine.confidence_threshold", Message: "must be in (0,1]"})
	}
	switch se.SizingMode {
	case "FIXED", "PERCENT", "KELLY":
	default:
		errs = append(errs, ValidationError{Field: "signal_engine.sizing_mode", Message: "must be FIXED, PERCENT, or KELLY"})
	}
	if se.UseVolatilityAware {
		errs = append(errs, ValidationError{Field: "signal_engine.use_volatility_aware", Message: "volatility-aware sizing is not implemented; must be false"})
	}
	return errs
}

func (c *Config) validateAccounts() ValidationErrors {
	var errs ValidationErrors
	if len(c.Accounts) == 0 {
		errs = append(errs, ValidationError{Field: "accounts", Message: "at least one seed account is required"})
	}
	for i, a := range c.Accounts {
		if a.Name == "" {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("accounts[%d].name", i), Message: "required"})
		}
		if a.InitialBalance <= 0 {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("accounts[%d].initial_balance", i), Message: "must be positive"})
		}
	}
	return errs
}
