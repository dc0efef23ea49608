package strategy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marketpulse/scanner/internal/domain"
)

func TestExportImport_RoundTrips(t *testing.T) {
	v := NewConfigVersion("tuned", domain.DefaultSignalEngineConfig())
	v.Config.MinConfidence = 0.8

	data, err := Export(v)
	require.NoError(t, err)

	got, err := Import(data)
	require.NoError(t, err)
	require.Equal(t, "tuned", got.Metadata.Name)
	require.Equal(t, 0.8, got.Config.MinConfidence)
	require.Equal(t, v.Config.SLATRMultiplier, got.Config.SLATRMultiplier)
}

func TestImport_RejectsInvalidConfig(t *testing.T) {
	v := NewConfigVersion("bad", domain.DefaultSignalEngineConfig())
	v.Config.UseVolatilityAware = true
	data, err := Export(v)
	require.NoError(t, err)

	_, err = Import(data)
	require.Error(t, err)
}
