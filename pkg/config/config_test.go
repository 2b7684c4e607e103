package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 100_000, cfg.NumClaims)
	assert.Equal(t, 2.0, cfg.Detection.ZScoreThreshold)
	assert.Equal(t, 90, cfg.Detection.NewEntityDays)
	assert.Equal(t, 0.80, cfg.Detection.OONRateThreshold)
	assert.Equal(t, 12, cfg.Detection.ReboundWindowWeeks)
	assert.Equal(t, 0.80, cfg.Detection.ReboundThresholdPct)

	require.Len(t, cfg.PolicyEvents, 1)
	assert.Equal(t, "POL-001", cfg.PolicyEvents[0].PolicyID)
	assert.Equal(t, "removed", cfg.PolicyEvents[0].ChangeType)
	assert.Equal(t, "2024-07-01", cfg.PolicyEvents[0].EffectiveDate.Format("2006-01-02"))

	require.Len(t, cfg.Benchmarks, 3)
	assert.Equal(t, "denial_rate", cfg.Benchmarks[0].MetricName)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	raw := `{
		"seed": 7,
		"num_claims": 500,
		"detection": {"zscore_threshold": 2.5, "new_entity_days": 90,
			"new_entity_volume_percentile": 0.9, "oon_rate_threshold": 0.8,
			"billing_ratio_multiplier": 3.0, "rebound_window_weeks": 12,
			"rebound_threshold_pct": 0.8}
	}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 500, cfg.NumClaims)
	assert.Equal(t, 2.5, cfg.Detection.ZScoreThreshold)

	// Fields absent from the file keep defaults.
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, 350.0, cfg.CostPerAppeal)
	assert.Len(t, cfg.PolicyEvents, 1)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
