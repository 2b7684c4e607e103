package benchmark

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"umclaims/pkg/config"
	"umclaims/pkg/schema"
)

// tenClaims has 1 denial, 2 OON, allowed totaling 1000.
func tenClaims() []schema.Claim {
	claims := make([]schema.Claim, 10)
	for i := range claims {
		claims[i] = schema.Claim{
			AllowedAmount: decimal.NewFromInt(100),
			NetworkStatus: schema.NetworkINN,
		}
	}
	claims[0].DenialFlag = true
	claims[1].NetworkStatus = schema.NetworkOON
	claims[2].NetworkStatus = schema.NetworkOON
	return claims
}

func TestInternalMetrics(t *testing.T) {
	m := InternalMetrics(tenClaims())
	assert.Equal(t, 0.1, m["denial_rate"])
	assert.Equal(t, 0.2, m["oon_rate"])
	assert.Equal(t, 100.0, m["cost_per_claim"])
}

func TestInternalMetricsEmpty(t *testing.T) {
	m := InternalMetrics(nil)
	assert.Equal(t, 0.0, m["denial_rate"])
	assert.Equal(t, 0.0, m["oon_rate"])
	assert.Equal(t, 0.0, m["cost_per_claim"])
}

func TestCompareDirections(t *testing.T) {
	baselines := []config.BenchmarkBaseline{
		{MetricName: "denial_rate", BaselineValue: 0.05, ThresholdPct: 0.15},  // internal 0.10: +100%
		{MetricName: "oon_rate", BaselineValue: 0.40, ThresholdPct: 0.20},     // internal 0.20: -50%
		{MetricName: "cost_per_claim", BaselineValue: 95, ThresholdPct: 0.10}, // internal 100: +5.3%
	}

	r := Compare(tenClaims(), baselines)
	require.Len(t, r.Comparisons, 3)

	assert.Equal(t, "above", r.Comparisons[0].Direction)
	assert.True(t, r.Comparisons[0].ExceedsThreshold)
	assert.Equal(t, 1.0, r.Comparisons[0].Variance)

	assert.Equal(t, "below", r.Comparisons[1].Direction)
	assert.True(t, r.Comparisons[1].ExceedsThreshold)

	assert.Equal(t, "within", r.Comparisons[2].Direction)
	assert.False(t, r.Comparisons[2].ExceedsThreshold)

	assert.Equal(t, 2, r.FlaggedCount)
}

func TestCompareExactThresholdIsWithin(t *testing.T) {
	// Internal cost per claim 100 vs baseline 80 is +25% variance; with a
	// threshold of exactly 0.25 the strict inequality keeps it "within".
	baselines := []config.BenchmarkBaseline{
		{MetricName: "cost_per_claim", BaselineValue: 80, ThresholdPct: 0.25},
	}
	r := Compare(tenClaims(), baselines)
	require.Len(t, r.Comparisons, 1)
	assert.Equal(t, "within", r.Comparisons[0].Direction)
	assert.False(t, r.Comparisons[0].ExceedsThreshold)
	assert.Equal(t, 0, r.FlaggedCount)
}

func TestCompareZeroBaseline(t *testing.T) {
	baselines := []config.BenchmarkBaseline{
		{MetricName: "denial_rate", BaselineValue: 0, ThresholdPct: 0.10},
	}
	r := Compare(tenClaims(), baselines)
	require.Len(t, r.Comparisons, 1)
	assert.Equal(t, 0.0, r.Comparisons[0].Variance)
	assert.Equal(t, "within", r.Comparisons[0].Direction)
}

func TestCompareUnknownMetricTreatedAsZero(t *testing.T) {
	baselines := []config.BenchmarkBaseline{
		{MetricName: "readmission_rate", BaselineValue: 0.2, ThresholdPct: 0.10},
	}
	r := Compare(tenClaims(), baselines)
	require.Len(t, r.Comparisons, 1)
	// Internal value 0 vs baseline 0.2 is -100%.
	assert.Equal(t, -1.0, r.Comparisons[0].Variance)
	assert.Equal(t, "below", r.Comparisons[0].Direction)
}
