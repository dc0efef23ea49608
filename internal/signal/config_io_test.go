package signal

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marketpulse/scanner/internal/domain"
)

func TestExportImportConfig_RoundTrips(t *testing.T) {
	cfg := domain.DefaultSignalEngineConfig()
	cfg.Name = "aggressive-futures"

	data, err := ExportConfig(cfg)
	require.NoError(t, err)
	require.Contains(t, string(data), "schema version")

	imported, err := ImportConfig(data)
	require.NoError(t, err)
	require.Equal(t, cfg.Name, imported.Name)
	require.InDelta(t, cfg.MinConfidence, imported.MinConfidence, 0.0001)
	require.InDelta(t, cfg.Weights.TotalWeight(), imported.Weights.TotalWeight(), 0.0001)
}

func TestImportConfig_RejectsNewerSchemaVersion(t *testing.T) {
	_, err := ImportConfig([]byte("schema_version: \"99.0\"\nname: future\n"))
	require.Error(t, err)
}

func TestImportConfig_RejectsMissingSchemaVersion(t *testing.T) {
	_, err := ImportConfig([]byte("name: no-version\n"))
	require.Error(t, err)
}

func TestImportConfig_RejectsVolatilityAware(t *testing.T) {
	cfg := domain.DefaultSignalEngineConfig()
	cfg.UseVolatilityAware = true
	data, err := ExportConfig(cfg)
	require.NoError(t, err)

	_, err = ImportConfig(data)
	require.Error(t, err)
}
