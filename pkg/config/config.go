// Package config holds the pipeline configuration: thresholds for every
// detection rule, policy-change events, benchmark baselines, and generation
// parameters. A config file is optional; every field has a documented
// default.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"umclaims/pkg/schema"
)

// PolicyChangeEvent is a simulated policy change: toggling an authorization
// requirement on or off for a set of procedure-code prefixes.
type PolicyChangeEvent struct {
	PolicyID                  string      `json:"policy_id"`
	AffectedProcedurePrefixes []string    `json:"affected_procedure_prefixes"`
	ChangeType                string      `json:"change_type"` // "added" | "removed"
	EffectiveDate             schema.Date `json:"effective_date"`
	Description               string      `json:"description"`
}

// BenchmarkBaseline is an externally supplied peer baseline for one metric.
type BenchmarkBaseline struct {
	MetricName    string  `json:"metric_name"`
	BaselineValue float64 `json:"baseline_value"`
	ThresholdPct  float64 `json:"threshold_pct"` // variance fraction that triggers a flag
}

// DetectionConfig carries the thresholds for the detection rules and the
// policy-impact analyzer.
type DetectionConfig struct {
	ZScoreThreshold           float64 `json:"zscore_threshold"`
	NewEntityDays             int     `json:"new_entity_days"`
	NewEntityVolumePercentile float64 `json:"new_entity_volume_percentile"`
	OONRateThreshold          float64 `json:"oon_rate_threshold"`
	BillingRatioMultiplier    float64 `json:"billing_ratio_multiplier"`
	ReboundWindowWeeks        int     `json:"rebound_window_weeks"`
	ReboundThresholdPct       float64 `json:"rebound_threshold_pct"`
}

// PipelineConfig is the top-level configuration for a full pipeline run.
type PipelineConfig struct {
	Seed      int64       `json:"seed"`
	NumClaims int         `json:"num_claims"`
	OutputDir string      `json:"output_dir"`
	DateStart schema.Date `json:"date_start"`
	DateEnd   schema.Date `json:"date_end"`

	CostPerAppeal   float64 `json:"cost_per_appeal"`
	TopNProviders   int     `json:"top_n_providers"`

	Detection    DetectionConfig     `json:"detection"`
	PolicyEvents []PolicyChangeEvent `json:"policy_events"`
	Benchmarks   []BenchmarkBaseline `json:"benchmarks"`

	FraudClusterSupplierCount     int `json:"fraud_cluster_supplier_count"`
	FraudClusterClaimsPerSupplier int `json:"fraud_cluster_claims_per_supplier"`

	// Probability a denied claim is appealed, keyed by denial reason.
	AppealPropensity map[string]float64 `json:"appeal_propensity"`
}

// Default returns the pipeline configuration with all documented defaults.
func Default() PipelineConfig {
	return PipelineConfig{
		Seed:          42,
		NumClaims:     100_000,
		OutputDir:     "output",
		DateStart:     schema.NewDate(2023, time.January, 1),
		DateEnd:       schema.NewDate(2025, time.December, 31),
		CostPerAppeal: 350.0,
		TopNProviders: 10,
		Detection: DetectionConfig{
			ZScoreThreshold:           2.0,
			NewEntityDays:             90,
			NewEntityVolumePercentile: 0.90,
			OONRateThreshold:          0.80,
			BillingRatioMultiplier:    3.0,
			ReboundWindowWeeks:        12,
			ReboundThresholdPct:       0.80,
		},
		PolicyEvents: []PolicyChangeEvent{
			{
				PolicyID:                  "POL-001",
				AffectedProcedurePrefixes: []string{"CPT-7"},
				ChangeType:                "removed",
				EffectiveDate:             schema.NewDate(2024, time.July, 1),
				Description:               "Removed prior auth requirement for imaging services",
			},
		},
		Benchmarks: []BenchmarkBaseline{
			{MetricName: "denial_rate", BaselineValue: 0.08, ThresholdPct: 0.15},
			{MetricName: "oon_rate", BaselineValue: 0.05, ThresholdPct: 0.20},
			{MetricName: "cost_per_claim", BaselineValue: 1200.0, ThresholdPct: 0.10},
		},
		FraudClusterSupplierCount:     5,
		FraudClusterClaimsPerSupplier: 150,
		AppealPropensity: map[string]float64{
			"medical_necessity":     0.40,
			"not_covered":           0.15,
			"authorization_missing": 0.30,
			"coding_error":          0.10,
			"duplicate":             0.05,
			"untimely_filing":       0.02,
		},
	}
}

// Load reads a JSON config file and applies it over the defaults. Fields
// absent from the file keep their default values.
func Load(path string) (PipelineConfig, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
