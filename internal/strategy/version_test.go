package strategy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marketpulse/scanner/internal/domain"
)

func TestIsVersionSupported(t *testing.T) {
	require.True(t, IsVersionSupported(CurrentSchemaVersion))
	require.False(t, IsVersionSupported("99.0"))
}

func TestCompareVersions(t *testing.T) {
	cmp, err := CompareVersions("1.0", "1.1")
	require.NoError(t, err)
	require.Equal(t, -1, cmp)

	cmp, err = CompareVersions("1.0", "1.0")
	require.NoError(t, err)
	require.Equal(t, 0, cmp)
}

func TestCompareVersions_RejectsInvalidSemver(t *testing.T) {
	_, err := CompareVersions("not-a-version", "1.0")
	require.Error(t, err)
}

func TestMigrate_NoOpOnCurrentVersion(t *testing.T) {
	v := NewConfigVersion("default", domain.DefaultSignalEngineConfig())
	require.NoError(t, Migrate(v))
	require.Equal(t, CurrentSchemaVersion, v.Config.SchemaVersion)
}

func TestMigrate_FailsWithoutPathToCurrentVersion(t *testing.T) {
	cfg := domain.DefaultSignalEngineConfig()
	cfg.SchemaVersion = "0.1"
	v := &ConfigVersion{Config: cfg}
	err := Migrate(v)
	require.Error(t, err)
}

func TestCheckCompatibility_RejectsUnsupportedVersion(t *testing.T) {
	cfg := domain.DefaultSignalEngineConfig()
	cfg.SchemaVersion = "0.1"
	v := &ConfigVersion{Config: cfg}
	require.Error(t, CheckCompatibility(v))
}
