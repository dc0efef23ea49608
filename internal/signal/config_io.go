package signal

import (
	"bytes"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/marketpulse/scanner/internal/domain"
)

// CurrentSchemaVersion is the schema version written by ExportConfig
// and the newest version ImportConfig accepts without a migration.
const CurrentSchemaVersion = "1.0"

// configDocument is the on-disk shape of a SignalEngineConfig, kept
// separate from domain.SignalEngineConfig so YAML tags don't leak into
// the domain package.
type configDocument struct {
	SchemaVersion string  `yaml:"schema_version"`
	ID            string  `yaml:"id"`
	Name          string  `yaml:"name"`
	MinConfidence float64 `yaml:"min_confidence"`

	Weights struct {
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
}

// ExportConfig serialises cfg to YAML, following the teacher's
// strategy-export convention of a small descriptive header comment
// ahead of the document body.
func ExportConfig(cfg domain.SignalEngineConfig) ([]byte, error) {
	doc := toDocument(cfg)

	var buf bytes.Buffer
	buf.WriteString("# signal engine configuration\n")
	buf.WriteString(fmt.Sprintf("# schema version: %s\n", doc.SchemaVersion))
	buf.WriteString("\n")

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return nil, fmt.Errorf("signal: failed to encode config: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("signal: failed to close yaml encoder: %w", err)
	}
	return buf.Bytes(), nil
}

// ImportConfig parses a YAML document produced by ExportConfig (or
// hand-written to the same schema) and validates its schema version is
// not newer than CurrentSchemaVersion. Older major versions are
// rejected since this package carries no migration path yet.
func ImportConfig(data []byte) (domain.SignalEngineConfig, error) {
	var doc configDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return domain.SignalEngineConfig{}, fmt.Errorf("signal: failed to parse config: %w", err)
	}

	if doc.SchemaVersion == "" {
		return domain.SignalEngineConfig{}, fmt.Errorf("signal: config missing schema_version")
	}

	current, err := semver.NewVersion(CurrentSchemaVersion)
	if err != nil {
		return domain.SignalEngineConfig{}, fmt.Errorf("signal: invalid current schema version %q: %w", CurrentSchemaVersion, err)
	}
	got, err := semver.NewVersion(doc.SchemaVersion)
	if err != nil {
		return domain.SignalEngineConfig{}, fmt.Errorf("signal: invalid config schema version %q: %w", doc.SchemaVersion, err)
	}
	if got.GreaterThan(current) {
		return domain.SignalEngineConfig{}, fmt.Errorf("signal: config schema version %s is newer than supported %s", doc.SchemaVersion, CurrentSchemaVersion)
	}
	if got.Major() != current.Major() {
		return domain.SignalEngineConfig{}, fmt.Errorf("signal: no migration path from schema version %s to %s", doc.SchemaVersion, CurrentSchemaVersion)
	}

	cfg := fromDocument(doc)
	if cfg.UseVolatilityAware {
		return domain.SignalEngineConfig{}, fmt.Errorf("signal: use_volatility_aware must be false")
	}
	return cfg, nil
}

func toDocument(cfg domain.SignalEngineConfig) configDocument {
	var doc configDocument
	doc.SchemaVersion = cfg.SchemaVersion
	if doc.SchemaVersion == "" {
		doc.SchemaVersion = CurrentSchemaVersion
	}
	doc.ID = cfg.ID
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	doc.Name = cfg.Name
	doc.MinConfidence = cfg.MinConfidence

	doc.Weights.MACDCross = cfg.Weights.MACDCross
	doc.Weights.RSIBand = cfg.Weights.RSIBand
	doc.Weights.PriceVsEMA50 = cfg.Weights.PriceVsEMA50
	doc.Weights.ADXMin = cfg.Weights.ADXMin
	doc.Weights.HeikinAshi = cfg.Weights.HeikinAshi
	doc.Weights.VolumeSurge = cfg.Weights.VolumeSurge
	doc.Weights.EMAAlignment = cfg.Weights.EMAAlignment
	doc.Weights.DirectionalDI = cfg.Weights.DirectionalDI
	doc.Weights.BollingerMid = cfg.Weights.BollingerMid
	doc.Weights.ATRBand = cfg.Weights.ATRBand

	doc.LongRSIMin = cfg.LongRSIMin
	doc.LongRSIMax = cfg.LongRSIMax
	doc.ShortRSIMin = cfg.ShortRSIMin
	doc.ShortRSIMax = cfg.ShortRSIMax
	doc.LongADXMin = cfg.LongADXMin
	doc.ShortADXMin = cfg.ShortADXMin
	doc.LongVolumeMultiplier = cfg.LongVolumeMultiplier
	doc.ShortVolumeMultiplier = cfg.ShortVolumeMultiplier
	doc.SLATRMultiplier = cfg.SLATRMultiplier
	doc.TPATRMultiplier = cfg.TPATRMultiplier
	doc.FuturesLeverage = cfg.FuturesLeverage
	doc.SpotLeverage = cfg.SpotLeverage
	doc.ExpiryMultiplier = cfg.ExpiryMultiplier
	doc.SizingMode = string(cfg.SizingMode)
	doc.RiskPctPerTrade = cfg.RiskPctPerTrade
	doc.UseVolatilityAware = cfg.UseVolatilityAware
	return doc
}

func fromDocument(doc configDocument) domain.SignalEngineConfig {
	return domain.SignalEngineConfig{
		ID:            doc.ID,
		Name:          doc.Name,
		SchemaVersion: doc.SchemaVersion,
		Weights: domain.IndicatorWeights{
			MACDCross:     doc.Weights.MACDCross,
			RSIBand:       doc.Weights.RSIBand,
			PriceVsEMA50:  doc.Weights.PriceVsEMA50,
			ADXMin:        doc.Weights.ADXMin,
			HeikinAshi:    doc.Weights.HeikinAshi,
			VolumeSurge:   doc.Weights.VolumeSurge,
			EMAAlignment:  doc.Weights.EMAAlignment,
			DirectionalDI: doc.Weights.DirectionalDI,
			BollingerMid:  doc.Weights.BollingerMid,
			ATRBand:       doc.Weights.ATRBand,
		},
		MinConfidence:         doc.MinConfidence,
		LongRSIMin:            doc.LongRSIMin,
		LongRSIMax:            doc.LongRSIMax,
		ShortRSIMin:           doc.ShortRSIMin,
		ShortRSIMax:           doc.ShortRSIMax,
		LongADXMin:            doc.LongADXMin,
		ShortADXMin:           doc.ShortADXMin,
		LongVolumeMultiplier:  doc.LongVolumeMultiplier,
		ShortVolumeMultiplier: doc.ShortVolumeMultiplier,
		SLATRMultiplier:       doc.SLATRMultiplier,
		TPATRMultiplier:       doc.TPATRMultiplier,
		FuturesLeverage:       doc.FuturesLeverage,
		SpotLeverage:          doc.SpotLeverage,
		ExpiryMultiplier:      doc.ExpiryMultiplier,
		SizingMode:            domain.SizingMode(doc.SizingMode),
		RiskPctPerTrade:       doc.RiskPctPerTrade,
		UseVolatilityAware:    doc.UseVolatilityAware,
		CreatedAt:             time.Now(),
	}
}
