package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kinact/domain/scoring"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SER_THR_MATRIX", "/data/ser_thr_matrix.csv")
	t.Setenv("SER_THR_BACKGROUND", "/data/ser_thr_background.csv")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, 1.5, cfg.Defaults.FCThreshold)
	assert.Equal(t, 90.0, cfg.Defaults.PercentileCutoff)
	assert.Equal(t, 15, cfg.Defaults.TopK)

	opts := cfg.Options()
	assert.Equal(t, scoring.MethodAvg, opts.Method)
	require.NoError(t, opts.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SER_THR_MATRIX", "/data/m.csv")
	t.Setenv("SER_THR_BACKGROUND", "/data/b.csv")
	t.Setenv("PORT", "9999")
	t.Setenv("DATABASE_URL", "postgres://localhost/kinact")
	t.Setenv("FC_THRESHOLD", "2.0")
	t.Setenv("AGGREGATION_METHOD", "max")
	t.Setenv("TOP_K", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Server.Port)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, 2.0, cfg.Defaults.FCThreshold)
	assert.Equal(t, scoring.MethodMax, cfg.Options().Method)
	assert.Equal(t, 5, cfg.Defaults.TopK)
}

func TestLoadValidation(t *testing.T) {
	// No matrices at all.
	t.Setenv("SER_THR_MATRIX", "")
	t.Setenv("TYR_MATRIX", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRequiresBackgroundPair(t *testing.T) {
	t.Setenv("SER_THR_MATRIX", "/data/m.csv")
	t.Setenv("SER_THR_BACKGROUND", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadMethod(t *testing.T) {
	t.Setenv("SER_THR_MATRIX", "/data/m.csv")
	t.Setenv("SER_THR_BACKGROUND", "/data/b.csv")
	t.Setenv("AGGREGATION_METHOD", "median")
	_, err := Load()
	assert.Error(t, err)
}
