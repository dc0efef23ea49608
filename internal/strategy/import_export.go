package strategy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/marketpulse/scanner/internal/domain"
)

// document is the on-disk YAML/JSON shape of a ConfigVersion: flat
// metadata alongside the embedded signal-engine parameters, so a
// hand-edited file reads as one coherent record rather than a nested
// envelope.
type document struct {
	Name          string  `yaml:"name"`
	Description   string  `yaml:"description,omitempty"`
	SchemaVersion string  `yaml:"schema_version"`
	Source        string  `yaml:"source,omitempty"`
	Config        cfgBody `yaml:"config"`
}

type cfgBody struct {
	MinConfidence         float64 `yaml:"min_confidence"`
	LongRSIMin            float64 `yaml:"long_rsi_min"`
	LongRSIMax            float64 `yaml:"long_rsi_max"`
	ShortRSIMin           float64 `yaml:"short_rsi_min"`
	ShortRSIMax           float64 `yaml:"short_rsi_max"`
	LongADXMin            float64 `yaml:"long_adx_min"`
	ShortADXMin           float64 `yaml:"short_adx_min"`
	LongVolumeMultiplier  float64 `yaml:"long_volume_multiplier"`
	ShortVolumeMultiplier float64 `yaml:"short_volume_multiplier"`
	SLATRMultiplier       float64 `yaml:"sl_atr_multiplier"`
	TPATRMultiplier       float64 `yaml:"tp_atr_multiplier"`
	FuturesLeverage       float64 `yaml:"futures_leverage"`
	SpotLeverage          float64 `yaml:"spot_leverage"`
	ExpiryMultiplier      float64 `yaml:"expiry_multiplier"`
	SizingMode            string  `yaml:"sizing_mode"`
	RiskPctPerTrade       float64 `yaml:"risk_pct_per_trade"`
	UseVolatilityAware    bool    `yaml:"use_volatility_aware"`
	Weights               struct {
		MACDCross     float64 `yaml:"macd_cross"`
		RSIBand       float64 `yaml:"rsi_band"`
		PriceVsEMA50  float64 `yaml:"price_vs_ema50"`
		ADXMin        float64 `yaml:"adx_min"`
		HeikinAshi    float64 `yaml:"heikin_ashi"`
		VolumeSurge   float64 `yaml:"volume_surge"`
		EMAAlignment  float64 `yaml:"ema_alignment"`
		DirectionalDI float64 `yaml:"directional_di"`
		BollingerMid  float64 `yaml:"bollinger_mid"`
		ATRBand       float64 `yaml:"atr_band"`
	} `yaml:"weights"`
}

func toDocument(v *ConfigVersion) document {
	c := v.Config
	var doc document
	doc.Name = v.Metadata.Name
	doc.Description = v.Metadata.Description
	doc.SchemaVersion = c.SchemaVersion
	doc.Source = v.Metadata.Source
	doc.Config = cfgBody{
		MinConfidence:         c.MinConfidence,
		LongRSIMin:            c.LongRSIMin,
		LongRSIMax:            c.LongRSIMax,
		ShortRSIMin:           c.ShortRSIMin,
		ShortRSIMax:           c.ShortRSIMax,
		LongADXMin:            c.LongADXMin,
		ShortADXMin:           c.ShortADXMin,
		LongVolumeMultiplier:  c.LongVolumeMultiplier,
		ShortVolumeMultiplier: c.ShortVolumeMultiplier,
		SLATRMultiplier:       c.SLATRMultiplier,
		TPATRMultiplier:       c.TPATRMultiplier,
		FuturesLeverage:       c.FuturesLeverage,
		SpotLeverage:          c.SpotLeverage,
		ExpiryMultiplier:      c.ExpiryMultiplier,
		SizingMode:            string(c.SizingMode),
		RiskPctPerTrade:       c.RiskPctPerTrade,
		UseVolatilityAware:    c.UseVolatilityAware,
	}
	doc.Config.Weights.MACDCross = c.Weights.MACDCross
	doc.Config.Weights.RSIBand = c.Weights.RSIBand
	doc.Config.Weights.PriceVsEMA50 = c.Weights.PriceVsEMA50
	doc.Config.Weights.ADXMin = c.Weights.ADXMin
	doc.Config.Weights.HeikinAshi = c.Weights.HeikinAshi
	doc.Config.Weights.VolumeSurge = c.Weights.VolumeSurge
	doc.Config.Weights.EMAAlignment = c.Weights.EMAAlignment
	doc.Config.Weights.DirectionalDI = c.Weights.DirectionalDI
	doc.Config.Weights.BollingerMid = c.Weights.BollingerMid
	doc.Config.Weights.ATRBand = c.Weights.ATRBand
	return doc
}

func fromDocument(doc document) *ConfigVersion {
	v := NewConfigVersion(doc.Name, toDomainConfig(doc))
	v.Metadata.Description = doc.Description
	if doc.Source != "" {
		v.Metadata.Source = doc.Source
	}
	v.Config.SchemaVersion = doc.SchemaVersion
	return v
}

// Export serializes v to YAML, the only format this codebase writes;
// JSON is accepted on Import for interop but never produced, since
// hand-tuned configs are meant to be reviewed and diffed as YAML.
func Export(v *ConfigVersion) ([]byte, error) {
	out, err := yaml.Marshal(toDocument(v))
	if err != nil {
		return nil, fmt.Errorf("strategy: failed to marshal config %q: %w", v.Metadata.Name, err)
	}
	return out, nil
}

// ExportToFile writes v's YAML export to path.
func ExportToFile(v *ConfigVersion, path string) error {
	data, err := Export(v)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("strategy: failed to write %s: %w", path, err)
	}
	return nil
}

// Import parses data as YAML, migrates it to CurrentSchemaVersion if
// needed, and validates the result.
func Import(data []byte) (*ConfigVersion, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("strategy: failed to parse config document: %w", err)
	}
	v := fromDocument(doc)

	if err := CheckCompatibility(v); err != nil {
		return nil, err
	}
	if err := Migrate(v); err != nil {
		return nil, err
	}
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("strategy: invalid config %q: %w", v.Metadata.Name, err)
	}
	return v, nil
}

// ImportFromFile reads and parses path as a ConfigVersion document.
func ImportFromFile(path string) (*ConfigVersion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("strategy: failed to read %s: %w", path, err)
	}
	return Import(data)
}

func toDomainConfig(doc document) domain.SignalEngineConfig {
	c := doc.Config
	return domain.SignalEngineConfig{
		SchemaVersion:         doc.SchemaVersion,
		MinConfidence:         c.MinConfidence,
		LongRSIMin:            c.LongRSIMin,
		LongRSIMax:            c.LongRSIMax,
		ShortRSIMin:           c.ShortRSIMin,
		ShortRSIMax:           c.ShortRSIMax,
		LongADXMin:            c.LongADXMin,
		ShortADXMin:           c.ShortADXMin,
		LongVolumeMultiplier:  c.LongVolumeMultiplier,
		ShortVolumeMultiplier: c.ShortVolumeMultiplier,
		SLATRMultiplier:       c.SLATRMultiplier,
		TPATRMultiplier:       c.TPATRMultiplier,
		FuturesLeverage:       c.FuturesLeverage,
		SpotLeverage:          c.SpotLeverage,
		ExpiryMultiplier:      c.ExpiryMultiplier,
		SizingMode:            domain.SizingMode(c.SizingMode),
		RiskPctPerTrade:       c.RiskPctPerTrade,
		UseVolatilityAware:    c.UseVolatilityAware,
		Weights: domain.IndicatorWeights{
			MACDCross:     c.Weights.MACDCross,
			RSIBand:       c.Weights.RSIBand,
			PriceVsEMA50:  c.Weights.PriceVsEMA50,
			ADXMin:        c.Weights.ADXMin,
			HeikinAshi:    c.Weights.HeikinAshi,
			VolumeSurge:   c.Weights.VolumeSurge,
			EMAAlignment:  c.Weights.EMAAlignment,
			DirectionalDI: c.Weights.DirectionalDI,
			BollingerMid:  c.Weights.BollingerMid,
			ATRBand:       c.Weights.ATRBand,
		},
	}
}
