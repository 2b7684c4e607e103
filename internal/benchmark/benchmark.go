// Package benchmark compares internal utilization metrics against
// externally supplied peer baselines and flags metrics whose variance
// exceeds the configured threshold.
package benchmark

import (
	"umclaims/pkg/config"
	"umclaims/pkg/schema"
	"umclaims/pkg/stats"
)

// Comparison is the verdict for one metric against its baseline.
type Comparison struct {
	MetricName       string  `json:"metric_name"`
	InternalValue    float64 `json:"internal_value"`
	BaselineValue    float64 `json:"baseline_value"`
	Variance         float64 `json:"variance"` // (internal - baseline) / baseline
	ThresholdPct     float64 `json:"threshold_pct"`
	ExceedsThreshold bool    `json:"exceeds_threshold"`
	Direction        string  `json:"direction"` // "above" | "below" | "within"
}

// Report is the full set of benchmark comparisons.
type Report struct {
	Comparisons  []Comparison `json:"comparisons"`
	FlaggedCount int          `json:"flagged_count"`
}

// InternalMetrics computes the benchmarkable metrics from the claim set.
// An empty set yields all zeros.
func InternalMetrics(claims []schema.Claim) map[string]float64 {
	metrics := map[string]float64{
		"denial_rate":    0.0,
		"oon_rate":       0.0,
		"cost_per_claim": 0.0,
	}
	if len(claims) == 0 {
		return metrics
	}

	denied, oon := 0, 0
	totalAllowed := 0.0
	for _, c := range claims {
		if c.DenialFlag {
			denied++
		}
		if c.IsOON() {
			oon++
		}
		totalAllowed += c.AllowedAmount.InexactFloat64()
	}
	n := float64(len(claims))
	metrics["denial_rate"] = stats.Round(float64(denied)/n, 4)
	metrics["oon_rate"] = stats.Round(float64(oon)/n, 4)
	metrics["cost_per_claim"] = stats.Round(totalAllowed/n, 2)
	return metrics
}

// Compare evaluates each baseline against the internal metrics. A variance
// exactly at the threshold classifies as "within"; only a strictly greater
// magnitude exceeds.
func Compare(claims []schema.Claim, baselines []config.BenchmarkBaseline) Report {
	internal := InternalMetrics(claims)
	comparisons := make([]Comparison, 0, len(baselines))

	for _, b := range baselines {
		internalValue := internal[b.MetricName]

		variance := 0.0
		if b.BaselineValue != 0 {
			variance = (internalValue - b.BaselineValue) / b.BaselineValue
		}

		direction := "within"
		switch {
		case variance > b.ThresholdPct:
			direction = "above"
		case variance < -b.ThresholdPct:
			direction = "below"
		}

		exceeds := variance > b.ThresholdPct || variance < -b.ThresholdPct

		comparisons = append(comparisons, Comparison{
			MetricName:       b.MetricName,
			InternalValue:    stats.Round(internalValue, 4),
			BaselineValue:    b.BaselineValue,
			Variance:         stats.Round(variance, 4),
			ThresholdPct:     b.ThresholdPct,
			ExceedsThreshold: exceeds,
			Direction:        direction,
		})
	}

	flagged := 0
	for _, c := range comparisons {
		if c.ExceedsThreshold {
			flagged++
		}
	}
	return Report{Comparisons: comparisons, FlaggedCount: flagged}
}
