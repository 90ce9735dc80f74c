package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitroom/sitrep/internal/domain"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestDefault_FusionWeights(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 0.4, cfg.Fusion.TrendWeight)
	assert.Equal(t, 0.3, cfg.Fusion.PatternWeight)
	assert.Equal(t, 0.2, cfg.Fusion.RiskWeight)
	assert.Equal(t, 0.1, cfg.Fusion.OpportunityWeight)
}

func TestValidate_WeightSumOutsideTolerance(t *testing.T) {
	cfg := Default()
	cfg.Fusion.TrendWeight = 0.5

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fusion weights")
}

func TestValidate_Ranges(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"confidence floor negative", func(c *Config) { c.Analysis.ConfidenceFloor = -1 }},
		{"confidence floor above 100", func(c *Config) { c.Analysis.ConfidenceFloor = 101 }},
		{"correlation cutoff above 1", func(c *Config) { c.Analysis.CorrelationCutoff = 1.5 }},
		{"correlation min samples below 2", func(c *Config) { c.Analysis.CorrelationMinSamples = 1 }},
		{"monitor threshold above 1", func(c *Config) { c.Monitor.DefaultThreshold = 1.2 }},
		{"grid band inverted", func(c *Config) { c.Analysis.GridBandLowPct = 9; c.Analysis.GridBandHighPct = 2 }},
		{"none tier level", func(c *Config) { c.Classifier.Tiers[0].Level = domain.AlertNone }},
		{"unknown tier level", func(c *Config) { c.Classifier.Tiers[0].Level = "extreme" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_OverridesMergeOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
analysis:
  confidence_floor: 45
monitor:
  default_threshold: 0.5
http:
  addr: ":9000"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 45.0, cfg.Analysis.ConfidenceFloor)
	assert.Equal(t, 0.5, cfg.Monitor.DefaultThreshold)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)

	// Untouched sections keep their defaults.
	assert.Equal(t, 0.4, cfg.Fusion.TrendWeight)
	assert.NotEmpty(t, cfg.Classifier.Tiers)
}

func TestLoad_InvalidOverrideFailsValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
fusion:
  trend_weight: 0.9
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestLoad_MissingFileIsAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
