package policy

import (
	"sort"

	"umclaims/pkg/schema"
	"umclaims/pkg/stats"
)

// DxCount is one diagnosis code with its frequency inside a seed cluster.
type DxCount struct {
	Code  string `json:"code"`
	Count int    `json:"count"`
}

// Seed is a policy-shaped claim cluster keyed by (procedure code, claim
// type, specialty), summarized for policy-authoring workflows.
type Seed struct {
	ProcedureCode string `json:"procedure_code"`
	ClaimType     string `json:"claim_type"`
	Specialty     string `json:"specialty"`

	NClaims        int     `json:"n_claims"`
	ApprovalRate   float64 `json:"approval_rate"`
	DenialRate     float64 `json:"denial_rate"`
	AvgClaimAmount float64 `json:"avg_claim_amount"`
	P50ClaimAmount float64 `json:"p50_claim_amount"`
	P90ClaimAmount float64 `json:"p90_claim_amount"`

	TopDiagnosisCodes []DxCount `json:"top_diagnosis_codes"`
}

type seedKey struct {
	procedure string
	claimType string
	specialty string
}

// BuildSeeds clusters claims by (procedure_code, claim_type, specialty)
// and summarizes each cluster. Clusters smaller than minClaims are
// dropped; output is sorted by the composite key for reproducibility.
func BuildSeeds(claims []schema.Claim, minClaims, topNDx int) []Seed {
	type accum struct {
		n       int
		denied  int
		amounts []float64
		dx      *orderedCounter
	}
	accums := map[seedKey]*accum{}

	for _, c := range claims {
		k := seedKey{c.ProcedureCode, c.ClaimType, c.Specialty}
		a, ok := accums[k]
		if !ok {
			a = &accum{dx: newOrderedCounter()}
			accums[k] = a
		}
		a.n++
		if c.DenialFlag {
			a.denied++
		}
		a.amounts = append(a.amounts, c.AllowedAmount.InexactFloat64())
		for _, code := range c.DiagnosisCodes {
			a.dx.add(code)
		}
	}

	var seeds []Seed
	for k, a := range accums {
		if a.n < minClaims {
			continue
		}
		top := a.dx.top(topNDx)
		topCounts := make([]DxCount, len(top))
		for i, code := range top {
			topCounts[i] = DxCount{Code: code, Count: a.dx.counts[code]}
		}
		seeds = append(seeds, Seed{
			ProcedureCode:     k.procedure,
			ClaimType:         k.claimType,
			Specialty:         k.specialty,
			NClaims:           a.n,
			ApprovalRate:      float64(a.n-a.denied) / float64(a.n),
			DenialRate:        float64(a.denied) / float64(a.n),
			AvgClaimAmount:    stats.Mean(a.amounts),
			P50ClaimAmount:    stats.Quantile(a.amounts, 0.5),
			P90ClaimAmount:    stats.Quantile(a.amounts, 0.9),
			TopDiagnosisCodes: topCounts,
		})
	}

	sort.Slice(seeds, func(i, j int) bool {
		if seeds[i].ProcedureCode != seeds[j].ProcedureCode {
			return seeds[i].ProcedureCode < seeds[j].ProcedureCode
		}
		if seeds[i].ClaimType != seeds[j].ClaimType {
			return seeds[i].ClaimType < seeds[j].ClaimType
		}
		return seeds[i].Specialty < seeds[j].Specialty
	})
	return seeds
}
