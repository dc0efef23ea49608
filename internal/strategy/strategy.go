// Package strategy versions, validates, and exports/imports
// domain.SignalEngineConfig records as semver-tagged YAML documents, so
// a configuration tuned in one run (e.g. a grid-search sweep winner)
// can be checked into a file, loaded by cmd/backtest's
// -strategy-config flag, and diffed against other versions.
package strategy

import (
	"time"

	"github.com/google/uuid"

	"github.com/marketpulse/scanner/internal/domain"
)

// CurrentSchemaVersion is the schema version new configs are stamped
// with. Bump this and add a migration in version.go whenever a field
// is added, renamed, or given new validation rules that older
// documents wouldn't satisfy.
const CurrentSchemaVersion = "1.0"

// ConfigVersion is a named, semver-tagged snapshot of a signal-engine
// configuration, the SignalEngineConfigVersion entity.
type ConfigVersion struct {
	Metadata Metadata
	Config   domain.SignalEngineConfig
}

// Metadata carries the identity and provenance of a ConfigVersion,
// separate from the tuning parameters themselves.
type Metadata struct {
	ID          string
	Name        string
	Description string
	Source      string // "manual", "grid_search", "migrated"
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewConfigVersion wraps cfg with fresh metadata, stamping
// cfg.SchemaVersion to CurrentSchemaVersion if it is unset.
func NewConfigVersion(name string, cfg domain.SignalEngineConfig) *ConfigVersion {
	now := time.Now().UTC()
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = CurrentSchemaVersion
	}
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	cfg.Name = name
	cfg.CreatedAt = now

	return &ConfigVersion{
		Metadata: Metadata{
			ID:        cfg.ID,
			Name:      name,
			Source:    "manual",
			CreatedAt: now,
			UpdatedAt: now,
		},
		Config: cfg,
	}
}

// DeepCopy returns an independent copy of v, safe for a caller (e.g. a
// grid-search mutate function) to mutate without aliasing the original.
func (v *ConfigVersion) DeepCopy() *ConfigVersion {
	cp := *v
	return &cp
}
