package gen

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"umclaims/internal/validate"
	"umclaims/pkg/config"
	"umclaims/pkg/schema"
)

func smallConfig() config.PipelineConfig {
	cfg := config.Default()
	cfg.NumClaims = 2000
	cfg.FraudClusterSupplierCount = 3
	cfg.FraudClusterClaimsPerSupplier = 50
	return cfg
}

func TestGenerateClaimsCount(t *testing.T) {
	cfg := smallConfig()
	claims := GenerateClaims(cfg)
	assert.Len(t, claims, cfg.NumClaims+cfg.FraudClusterSupplierCount*cfg.FraudClusterClaimsPerSupplier)
}

func TestGenerateClaimsDeterministic(t *testing.T) {
	cfg := smallConfig()
	first := GenerateClaims(cfg)
	second := GenerateClaims(cfg)
	assert.Equal(t, first, second)

	cfg.Seed = 43
	third := GenerateClaims(cfg)
	assert.NotEqual(t, first, third)
}

func TestGeneratedClaimsValidate(t *testing.T) {
	claims := GenerateClaims(smallConfig())
	result := validate.Claims(claims)
	require.True(t, result.Passed, "critical issues: %+v", result.CriticalIssues)
}

func TestGeneratedClaimsInvariants(t *testing.T) {
	cfg := smallConfig()
	claims := GenerateClaims(cfg)

	denied, oon := 0, 0
	for _, c := range claims {
		assert.False(t, c.BilledAmount.IsNegative())
		assert.True(t, c.AllowedAmount.LessThanOrEqual(c.BilledAmount), "claim %s", c.ClaimID)
		if c.DenialFlag {
			denied++
			assert.True(t, c.PaidAmount.IsZero(), "denied claim %s has nonzero paid", c.ClaimID)
			assert.NotEmpty(t, c.DenialReasonCategory)
		}
		if c.IsOON() {
			oon++
		}
		assert.GreaterOrEqual(t, c.Units, 1)
		assert.False(t, c.ClaimReceivedDate.Before(c.ServiceDate))
		assert.False(t, c.ServiceDate.Before(cfg.DateStart.Time))
	}

	// Base rates: ~12% denials, ~10% OON on the base population plus a
	// heavily OON cluster. Loose bounds keep this robust to the seed.
	n := float64(len(claims))
	assert.InDelta(t, 0.12, float64(denied)/n, 0.05)
	assert.Greater(t, float64(oon)/n, 0.05)
}

func TestFraudClusterShape(t *testing.T) {
	cfg := smallConfig()
	claims := GenerateClaims(cfg)

	perSupplier := map[string][]schema.Claim{}
	for _, c := range claims {
		if strings.HasPrefix(c.ProviderID, "FRAUD-PROV-") {
			perSupplier[c.ProviderID] = append(perSupplier[c.ProviderID], c)
		}
	}
	require.Len(t, perSupplier, cfg.FraudClusterSupplierCount)

	clusterStart := cfg.DateEnd.Time.AddDate(0, 0, -90)
	for supplier, cs := range perSupplier {
		assert.Len(t, cs, cfg.FraudClusterClaimsPerSupplier)

		oon := 0
		codes := map[string]struct{}{}
		for _, c := range cs {
			if c.IsOON() {
				oon++
			}
			codes[c.ProcedureCode] = struct{}{}
			assert.True(t, c.DMEFlag)
			assert.Equal(t, "FL", c.GeographyState)
			assert.False(t, c.ServiceDate.Before(clusterStart), "supplier %s claim too old", supplier)
		}
		assert.LessOrEqual(t, len(codes), 2)
		assert.Greater(t, float64(oon)/float64(len(cs)), 0.80, "supplier %s OON rate", supplier)
	}
}

func TestPolicyEventRemovesAuthorization(t *testing.T) {
	cfg := smallConfig()
	require.NotEmpty(t, cfg.PolicyEvents)
	event := cfg.PolicyEvents[0]

	claims := GenerateClaims(cfg)
	for _, c := range claims {
		if !strings.HasPrefix(c.ProcedureCode, event.AffectedProcedurePrefixes[0]) {
			continue
		}
		if !c.ServiceDate.Before(event.EffectiveDate.Time) {
			assert.False(t, c.AuthorizationRequired,
				"claim %s on %s should have auth removed", c.ClaimID, c.ServiceDate.Format(time.DateOnly))
		}
	}
}
