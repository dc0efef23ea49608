package strategy

import (
	"fmt"
	"strings"

	"github.com/marketpulse/scanner/internal/domain"
)

// ValidationError names one invalid field and why.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every violation found by Validate, rather
// than failing on the first one, so a caller editing a YAML file sees
// the whole list of fixes needed in one pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks v's config against the invariants the signal engine
// assumes: confidence/RSI/ADX bounds in range, sizing parameters
// coherent with the selected mode, and volatility-aware sizing
// disabled (backtest and live both require it to stay false).
func (v *ConfigVersion) Validate() error {
	var errs ValidationErrors
	c := v.Config

	if v.Metadata.Name == "" {
		errs = append(errs, ValidationError{"name", "must not be empty"})
	}
	if !IsVersionSupported(c.SchemaVersion) {
		errs = append(errs, ValidationError{"schema_version", fmt.Sprintf("unsupported version %q", c.SchemaVersion)})
	}
	if c.MinConfidence <= 0 || c.MinConfidence > 1 {
		errs = append(errs, ValidationError{"min_confidence", "must be in (0, 1]"})
	}
	if c.LongRSIMin < 0 || c.LongRSIMax > 100 || c.LongRSIMin >= c.LongRSIMax {
		errs = append(errs, ValidationError{"long_rsi", "min must be < max, both within [0, 100]"})
	}
	if c.ShortRSIMin < 0 || c.ShortRSIMax > 100 || c.ShortRSIMin >= c.ShortRSIMax {
		errs = append(errs, ValidationError{"short_rsi", "min must be < max, both within [0, 100]"})
	}
	if c.LongADXMin < 0 || c.LongADXMin > 100 {
		errs = append(errs, ValidationError{"long_adx_min", "must be within [0, 100]"})
	}
	if c.ShortADXMin < 0 || c.ShortADXMin > 100 {
		errs = append(errs, ValidationError{"short_adx_min", "must be within [0, 100]"})
	}
	if c.SLATRMultiplier <= 0 {
		errs = append(errs, ValidationError{"sl_atr_multiplier", "must be positive"})
	}
	if c.TPATRMultiplier <= 0 {
		errs = append(errs, ValidationError{"tp_atr_multiplier", "must be positive"})
	}
	if c.FuturesLeverage <= 0 {
		errs = append(errs, ValidationError{"futures_leverage", "must be positive"})
	}
	if c.SpotLeverage != 1 {
		errs = append(errs, ValidationError{"spot_leverage", "spot positions are unleveraged"})
	}
	if c.ExpiryMultiplier <= 0 {
		errs = append(errs, ValidationError{"expiry_multiplier", "must be positive"})
	}
	if c.UseVolatilityAware {
		errs = append(errs, ValidationError{"use_volatility_aware", "must be false"})
	}

	switch c.SizingMode {
	case domain.SizingFixed:
		// FixedSizeQuote lives on the PaperAccount, not the engine config; nothing to check here.
	case domain.SizingPercent:
		if c.RiskPctPerTrade <= 0 || c.RiskPctPerTrade > 1 {
			errs = append(errs, ValidationError{"risk_pct_per_trade", "must be in (0, 1] for PERCENT sizing"})
		}
	case domain.SizingKelly:
		// Kelly sizing derives its fraction from trade history at request time.
	default:
		errs = append(errs, ValidationError{"sizing_mode", fmt.Sprintf("unknown sizing mode %q", c.SizingMode)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
