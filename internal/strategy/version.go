package strategy

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// MigrationFunc upgrades a ConfigVersion in place from one schema
// version to the next.
type MigrationFunc func(*ConfigVersion) error

// Migration is a single schema-version step.
type Migration struct {
	FromVersion string
	ToVersion   string
	Name        string
	Migrate     MigrationFunc
}

// registeredMigrations holds every known migration in chronological
// order. There are none yet: CurrentSchemaVersion is the only version
// ever produced by this codebase. Add an entry here, in order, the
// next time a SignalEngineConfig field changes shape.
var registeredMigrations []Migration

func init() {
	for _, m := range registeredMigrations {
		if _, err := semver.NewVersion(m.FromVersion); err != nil {
			panic(fmt.Sprintf("strategy: invalid FromVersion %q in migration %q: %v", m.FromVersion, m.Name, err))
		}
		if _, err := semver.NewVersion(m.ToVersion); err != nil {
			panic(fmt.Sprintf("strategy: invalid ToVersion %q in migration %q: %v", m.ToVersion, m.Name, err))
		}
	}
	for i := 1; i < len(registeredMigrations); i++ {
		if registeredMigrations[i-1].ToVersion != registeredMigrations[i].FromVersion {
			panic(fmt.Sprintf("strategy: migration gap: %q ends at %s but %q starts at %s",
				registeredMigrations[i-1].Name, registeredMigrations[i-1].ToVersion,
				registeredMigrations[i].Name, registeredMigrations[i].FromVersion))
		}
	}
}

// supportedVersions lists every schema version Migrate can bring a
// document to CurrentSchemaVersion from.
func supportedVersions() []string {
	versions := map[string]bool{CurrentSchemaVersion: true}
	for _, m := range registeredMigrations {
		versions[m.FromVersion] = true
		versions[m.ToVersion] = true
	}
	out := make([]string, 0, len(versions))
	for v := range versions {
		out = append(out, v)
	}
	return out
}

// IsVersionSupported reports whether version is a schema version this
// build knows how to validate or migrate.
func IsVersionSupported(version string) bool {
	for _, v := range supportedVersions() {
		if v == version {
			return true
		}
	}
	return false
}

// CompareVersions returns -1, 0, or 1 as a semver-compares-less-than,
// equal-to, or greater-than b.
func CompareVersions(a, b string) (int, error) {
	va, err := semver.NewVersion(a)
	if err != nil {
		return 0, fmt.Errorf("strategy: invalid version %q: %w", a, err)
	}
	vb, err := semver.NewVersion(b)
	if err != nil {
		return 0, fmt.Errorf("strategy: invalid version %q: %w", b, err)
	}
	return va.Compare(vb), nil
}

// Migrate walks v's SchemaVersion forward through registeredMigrations
// until it reaches CurrentSchemaVersion, failing if no path exists.
func Migrate(v *ConfigVersion) error {
	for v.Config.SchemaVersion != CurrentSchemaVersion {
		var next *Migration
		for i := range registeredMigrations {
			if registeredMigrations[i].FromVersion == v.Config.SchemaVersion {
				next = &registeredMigrations[i]
				break
			}
		}
		if next == nil {
			return fmt.Errorf("strategy: no migration path from schema version %q to %q", v.Config.SchemaVersion, CurrentSchemaVersion)
		}
		if err := next.Migrate(v); err != nil {
			return fmt.Errorf("strategy: migration %q failed: %w", next.Name, err)
		}
		v.Config.SchemaVersion = next.ToVersion
	}
	return nil
}

// CheckCompatibility rejects a document whose schema version this
// build neither understands nor can migrate.
func CheckCompatibility(v *ConfigVersion) error {
	if !IsVersionSupported(v.Config.SchemaVersion) {
		return fmt.Errorf("strategy: schema version %q is not supported (current: %s)", v.Config.SchemaVersion, CurrentSchemaVersion)
	}
	return nil
}
