package policysim

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"umclaims/pkg/config"
	"umclaims/pkg/schema"
)

func testDetection() config.DetectionConfig {
	return config.Default().Detection
}

func imagingEvent(effective schema.Date) config.PolicyChangeEvent {
	return config.PolicyChangeEvent{
		PolicyID:                  "POL-TEST",
		AffectedProcedurePrefixes: []string{"CPT-7"},
		ChangeType:                "removed",
		EffectiveDate:             effective,
		Description:               "Removed prior auth for imaging",
	}
}

// imagingClaims builds n claims spread over the days before (negative
// offsets) or after the effective date.
func imagingClaims(effective time.Time, startOffset, n int, allowed float64) []schema.Claim {
	claims := make([]schema.Claim, n)
	for i := range claims {
		claims[i] = schema.Claim{
			ClaimID:       fmt.Sprintf("CLM-%d-%d", startOffset, i),
			ProviderID:    "P1",
			ProcedureCode: "CPT-70100",
			ServiceDate:   effective.AddDate(0, 0, startOffset+i%30),
			AllowedAmount: decimal.NewFromFloat(allowed),
			NetworkStatus: schema.NetworkINN,
		}
	}
	return claims
}

func TestAnalyzeSplitsWindows(t *testing.T) {
	effective := schema.NewDate(2024, time.July, 1)
	pre := imagingClaims(effective.Time, -40, 50, 100)
	post := imagingClaims(effective.Time, 0, 20, 100)

	report := Analyze(append(pre, post...), []config.PolicyChangeEvent{imagingEvent(effective)}, testDetection())
	require.Len(t, report.Impacts, 1)

	imp := report.Impacts[0]
	assert.Equal(t, "POL-TEST", imp.PolicyID)
	assert.Equal(t, "2024-07-01", imp.EffectiveDate)
	assert.Equal(t, 50, imp.PreMetrics.Volume)
	assert.Equal(t, 20, imp.PostMetrics.Volume)
	assert.Equal(t, -60.0, imp.VolumeChangePct)
	assert.True(t, imp.PreMetrics.TotalAllowed.Equal(decimal.NewFromInt(5000)))
	assert.True(t, imp.PreMetrics.AvgAllowed.Equal(decimal.NewFromInt(100)))
}

func TestEffectiveDateClaimCountsAsPost(t *testing.T) {
	effective := schema.NewDate(2024, time.July, 1)
	onDate := schema.Claim{
		ClaimID:       "CLM-EDGE",
		ProcedureCode: "CPT-70100",
		ServiceDate:   effective.Time,
		AllowedAmount: decimal.NewFromInt(100),
	}

	report := Analyze([]schema.Claim{onDate}, []config.PolicyChangeEvent{imagingEvent(effective)}, testDetection())
	require.Len(t, report.Impacts, 1)
	assert.Equal(t, 0, report.Impacts[0].PreMetrics.Volume)
	assert.Equal(t, 1, report.Impacts[0].PostMetrics.Volume)
}

func TestReboundBoundaryInclusive(t *testing.T) {
	effective := schema.NewDate(2024, time.July, 1)
	event := imagingEvent(effective)

	// Post volume exactly 80% of pre: rebound fires on the boundary.
	pre := imagingClaims(effective.Time, -40, 50, 100)
	post := imagingClaims(effective.Time, 0, 40, 100)
	report := Analyze(append(pre, post...), []config.PolicyChangeEvent{event}, testDetection())
	require.Len(t, report.Impacts, 1)
	assert.True(t, report.Impacts[0].ReboundDetected)
	assert.Contains(t, report.Impacts[0].ReboundDetail, "80%")

	// One claim below the boundary: no rebound.
	post = imagingClaims(effective.Time, 0, 39, 100)
	report = Analyze(append(pre, post...), []config.PolicyChangeEvent{event}, testDetection())
	assert.False(t, report.Impacts[0].ReboundDetected)
}

func TestReboundOnlyForRemovedChanges(t *testing.T) {
	effective := schema.NewDate(2024, time.July, 1)
	event := imagingEvent(effective)
	event.ChangeType = "added"

	pre := imagingClaims(effective.Time, -40, 50, 100)
	post := imagingClaims(effective.Time, 0, 50, 100)
	report := Analyze(append(pre, post...), []config.PolicyChangeEvent{event}, testDetection())
	require.Len(t, report.Impacts, 1)
	assert.False(t, report.Impacts[0].ReboundDetected)
}

func TestZeroMatchingClaimsYieldsZeroImpact(t *testing.T) {
	effective := schema.NewDate(2024, time.July, 1)
	surgical := schema.Claim{
		ClaimID:       "CLM-1",
		ProcedureCode: "CPT-2100",
		ServiceDate:   effective.Time,
		AllowedAmount: decimal.NewFromInt(100),
	}

	report := Analyze([]schema.Claim{surgical}, []config.PolicyChangeEvent{imagingEvent(effective)}, testDetection())
	require.Len(t, report.Impacts, 1)

	imp := report.Impacts[0]
	assert.Equal(t, 0, imp.PreMetrics.Volume)
	assert.Equal(t, 0, imp.PostMetrics.Volume)
	assert.Equal(t, 0.0, imp.VolumeChangePct)
	assert.False(t, imp.ReboundDetected)
}

func TestClaimsOutsideWindowExcluded(t *testing.T) {
	effective := schema.NewDate(2024, time.July, 1)
	// 12-week window = 84 days; a claim 100 days before is out of range.
	old := schema.Claim{
		ClaimID:       "CLM-OLD",
		ProcedureCode: "CPT-70100",
		ServiceDate:   effective.Time.AddDate(0, 0, -100),
		AllowedAmount: decimal.NewFromInt(100),
	}

	report := Analyze([]schema.Claim{old}, []config.PolicyChangeEvent{imagingEvent(effective)}, testDetection())
	require.Len(t, report.Impacts, 1)
	assert.Equal(t, 0, report.Impacts[0].PreMetrics.Volume)
	assert.Equal(t, 0, report.Impacts[0].PostMetrics.Volume)
}
