package policy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"umclaims/pkg/schema"
)

func TestComputeKPIsGrouping(t *testing.T) {
	claims := []schema.Claim{
		{ClaimID: "C1", AllowedAmount: decimal.NewFromInt(100), Specialty: "Radiology",
			DiagnosisCodes: []string{"DX-1"}},
		{ClaimID: "C2", AllowedAmount: decimal.NewFromInt(200), Specialty: "Radiology",
			DiagnosisCodes: []string{"DX-1", "DX-2"}, DenialFlag: true},
		{ClaimID: "C3", AllowedAmount: decimal.NewFromInt(50), Specialty: "Cardiology",
			DiagnosisCodes: []string{"DX-3"}},
		{ClaimID: "C4", AllowedAmount: decimal.NewFromInt(40), Specialty: "Cardiology",
			DiagnosisCodes: []string{"DX-3"}},
	}
	matches := []Match{
		{ClaimID: "C1", PolicyID: "POL-A", Confidence: 1.0},
		{ClaimID: "C2", PolicyID: "POL-A", Confidence: 0.6},
		{ClaimID: "C3", PolicyID: "POL-B", Confidence: 0.8},
		{ClaimID: "C4", PolicyID: Unmatched, Confidence: 0},
	}

	kpis := ComputeKPIs(claims, matches)
	require.Len(t, kpis, 3)

	// Sorted by total amount descending; POL-A leads with 300.
	a := kpis[0]
	assert.Equal(t, "POL-A", a.PolicyID)
	assert.Equal(t, 2, a.NClaims)
	assert.True(t, a.TotalAmount.Equal(decimal.NewFromInt(300)))
	assert.True(t, a.AvgAmount.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, 0.5, a.ApprovalRate)
	assert.Equal(t, 0.5, a.DenialRate)
	assert.Equal(t, []string{"DX-1", "DX-2"}, a.TopDx)
	assert.Equal(t, []string{"Radiology"}, a.TopSpecialties)

	assert.Equal(t, "POL-B", kpis[1].PolicyID)
	assert.Equal(t, Unmatched, kpis[2].PolicyID)
	assert.Equal(t, 1, kpis[2].NClaims)
}

func TestClaimAmountPreference(t *testing.T) {
	allowed := schema.Claim{
		AllowedAmount: decimal.NewFromInt(80),
		BilledAmount:  decimal.NewFromInt(100),
	}
	assert.True(t, claimAmount(allowed).Equal(decimal.NewFromInt(80)))

	billedOnly := schema.Claim{
		AllowedAmount: decimal.Zero,
		BilledAmount:  decimal.NewFromInt(100),
	}
	assert.True(t, claimAmount(billedOnly).Equal(decimal.NewFromInt(100)))

	neither := schema.Claim{}
	assert.True(t, claimAmount(neither).IsZero())
}

func TestComputeKPIsMissingMatchesDefaultUnmatched(t *testing.T) {
	claims := []schema.Claim{
		{ClaimID: "C1", AllowedAmount: decimal.NewFromInt(100)},
	}
	kpis := ComputeKPIs(claims, nil)
	require.Len(t, kpis, 1)
	assert.Equal(t, Unmatched, kpis[0].PolicyID)
}

func TestOrderedCounterTop(t *testing.T) {
	c := newOrderedCounter()
	for _, v := range []string{"b", "a", "a", "c", "b", ""} {
		c.add(v)
	}
	// a and b both count 2; b was seen first so it ranks first.
	assert.Equal(t, []string{"b", "a", "c"}, c.top(5))
	assert.Equal(t, []string{"b", "a"}, c.top(2))
}

func TestBuildSeeds(t *testing.T) {
	var claims []schema.Claim
	for i := 0; i < 5; i++ {
		claims = append(claims, schema.Claim{
			ProcedureCode:  "CPT-70100",
			ClaimType:      "Professional",
			Specialty:      "Radiology",
			AllowedAmount:  decimal.NewFromInt(int64(100 + i*10)),
			DiagnosisCodes: []string{"DX-1"},
		})
	}
	claims[4].DenialFlag = true
	// A tiny cluster below the min-claims cutoff.
	claims = append(claims, schema.Claim{
		ProcedureCode: "CPT-99213",
		ClaimType:     "Professional",
		Specialty:     "Internal Medicine",
		AllowedAmount: decimal.NewFromInt(50),
	})

	seeds := BuildSeeds(claims, 3, 5)
	require.Len(t, seeds, 1)

	s := seeds[0]
	assert.Equal(t, "CPT-70100", s.ProcedureCode)
	assert.Equal(t, 5, s.NClaims)
	assert.Equal(t, 0.8, s.ApprovalRate)
	assert.Equal(t, 0.2, s.DenialRate)
	assert.Equal(t, 120.0, s.AvgClaimAmount)
	assert.Equal(t, 120.0, s.P50ClaimAmount)
	require.Len(t, s.TopDiagnosisCodes, 1)
	assert.Equal(t, DxCount{Code: "DX-1", Count: 5}, s.TopDiagnosisCodes[0])
}

func TestBuildSeedsSortedByCompositeKey(t *testing.T) {
	mk := func(code, ct, spec string) schema.Claim {
		return schema.Claim{ProcedureCode: code, ClaimType: ct, Specialty: spec,
			AllowedAmount: decimal.NewFromInt(100)}
	}
	claims := []schema.Claim{
		mk("CPT-99213", "Professional", "Internal Medicine"),
		mk("CPT-70100", "Professional", "Radiology"),
		mk("CPT-70100", "Institutional", "Radiology"),
	}

	seeds := BuildSeeds(claims, 1, 5)
	require.Len(t, seeds, 3)
	assert.Equal(t, "CPT-70100", seeds[0].ProcedureCode)
	assert.Equal(t, "Institutional", seeds[0].ClaimType)
	assert.Equal(t, "Professional", seeds[1].ClaimType)
	assert.Equal(t, "CPT-99213", seeds[2].ProcedureCode)
}
