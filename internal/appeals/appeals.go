// Package appeals analyzes the denial-to-appeal funnel: global counts and
// rates, per-category breakdowns of denial reasons, and the providers
// driving the most appeal volume.
package appeals

import (
	"sort"

	"github.com/shopspring/decimal"

	"umclaims/pkg/schema"
	"umclaims/pkg/stats"
)

// DenialCategory holds the funnel metrics for one denial reason category.
type DenialCategory struct {
	Category       string          `json:"category"`
	DenialCount    int             `json:"denial_count"`
	AppealCount    int             `json:"appeal_count"`
	AppealRate     float64         `json:"appeal_rate"`
	GrievanceCount int             `json:"grievance_count"`
	TotalBilled    decimal.Decimal `json:"total_billed"`
	TotalAllowed   decimal.Decimal `json:"total_allowed"`
}

// ProviderProfile is the appeal pattern of a single provider.
type ProviderProfile struct {
	ProviderID        string          `json:"provider_id"`
	TotalDenials      int             `json:"total_denials"`
	TotalAppeals      int             `json:"total_appeals"`
	AppealRate        float64         `json:"appeal_rate"`
	TopDenialReason   string          `json:"top_denial_reason"`
	TotalBilledDenied decimal.Decimal `json:"total_billed_denied"`
}

// Report is the full appeals and grievances analysis.
type Report struct {
	TotalClaims     int     `json:"total_claims"`
	TotalDenials    int     `json:"total_denials"`
	TotalAppeals    int     `json:"total_appeals"`
	TotalGrievances int     `json:"total_grievances"`
	OverallDenialRate float64 `json:"overall_denial_rate"`
	OverallAppealRate float64 `json:"overall_appeal_rate"`

	EstimatedAdminCost decimal.Decimal `json:"estimated_admin_cost"`

	Categories          []DenialCategory  `json:"categories"`
	TopAppealProviders  []ProviderProfile `json:"top_appeal_providers"`
}

// Analyze computes the denial-to-appeal funnel over the full claim set.
// costPerAppeal is the estimated admin cost per appeal; topN bounds the
// provider breakdown.
func Analyze(claims []schema.Claim, costPerAppeal float64, topN int) Report {
	r := Report{
		TotalClaims:        len(claims),
		EstimatedAdminCost: decimal.Zero,
	}

	for _, c := range claims {
		if c.DenialFlag {
			r.TotalDenials++
		}
		if c.AppealFlag {
			r.TotalAppeals++
		}
		if c.GrievanceFlag {
			r.TotalGrievances++
		}
	}

	if r.TotalClaims > 0 {
		r.OverallDenialRate = stats.Round(float64(r.TotalDenials)/float64(r.TotalClaims), 4)
	}
	if r.TotalDenials > 0 {
		r.OverallAppealRate = stats.Round(float64(r.TotalAppeals)/float64(r.TotalDenials), 4)
	}
	r.EstimatedAdminCost = decimal.NewFromFloat(costPerAppeal).
		Mul(decimal.NewFromInt(int64(r.TotalAppeals))).Round(2)

	r.Categories = categoryBreakdown(claims)
	r.TopAppealProviders = providerBreakdown(claims, topN)
	return r
}

// categoryBreakdown groups denied claims by denial reason. Claims with no
// reason recorded are excluded. Sorted by denial count descending.
func categoryBreakdown(claims []schema.Claim) []DenialCategory {
	accums := map[string]*DenialCategory{}
	var order []string

	for _, c := range claims {
		if !c.DenialFlag || c.DenialReasonCategory == "" {
			continue
		}
		a, ok := accums[c.DenialReasonCategory]
		if !ok {
			a = &DenialCategory{
				Category:     c.DenialReasonCategory,
				TotalBilled:  decimal.Zero,
				TotalAllowed: decimal.Zero,
			}
			accums[c.DenialReasonCategory] = a
			order = append(order, c.DenialReasonCategory)
		}
		a.DenialCount++
		if c.AppealFlag {
			a.AppealCount++
		}
		if c.GrievanceFlag {
			a.GrievanceCount++
		}
		a.TotalBilled = a.TotalBilled.Add(c.BilledAmount)
		a.TotalAllowed = a.TotalAllowed.Add(c.AllowedAmount)
	}

	cats := make([]DenialCategory, 0, len(order))
	for _, name := range order {
		a := accums[name]
		if a.DenialCount > 0 {
			a.AppealRate = stats.Round(float64(a.AppealCount)/float64(a.DenialCount), 4)
		}
		a.TotalBilled = a.TotalBilled.Round(2)
		a.TotalAllowed = a.TotalAllowed.Round(2)
		cats = append(cats, *a)
	}
	sort.SliceStable(cats, func(i, j int) bool {
		return cats[i].DenialCount > cats[j].DenialCount
	})
	return cats
}

type providerAccum struct {
	denials      int
	appeals      int
	billedDenied decimal.Decimal
	reasonCounts map[string]int
	reasonOrder  []string
}

// providerBreakdown groups denied claims by provider, finds each
// provider's most frequent denial reason (ties broken by first encounter),
// and keeps the topN providers by appeal count.
func providerBreakdown(claims []schema.Claim, topN int) []ProviderProfile {
	accums := map[string]*providerAccum{}
	var order []string

	for _, c := range claims {
		if !c.DenialFlag {
			continue
		}
		a, ok := accums[c.ProviderID]
		if !ok {
			a = &providerAccum{
				billedDenied: decimal.Zero,
				reasonCounts: map[string]int{},
			}
			accums[c.ProviderID] = a
			order = append(order, c.ProviderID)
		}
		a.denials++
		if c.AppealFlag {
			a.appeals++
		}
		a.billedDenied = a.billedDenied.Add(c.BilledAmount)
		if c.DenialReasonCategory != "" {
			if _, seen := a.reasonCounts[c.DenialReasonCategory]; !seen {
				a.reasonOrder = append(a.reasonOrder, c.DenialReasonCategory)
			}
			a.reasonCounts[c.DenialReasonCategory]++
		}
	}

	profiles := make([]ProviderProfile, 0, len(order))
	for _, pid := range order {
		a := accums[pid]
		top := "unknown"
		best := 0
		for _, reason := range a.reasonOrder {
			if a.reasonCounts[reason] > best {
				best = a.reasonCounts[reason]
				top = reason
			}
		}
		rate := 0.0
		if a.denials > 0 {
			rate = stats.Round(float64(a.appeals)/float64(a.denials), 4)
		}
		profiles = append(profiles, ProviderProfile{
			ProviderID:        pid,
			TotalDenials:      a.denials,
			TotalAppeals:      a.appeals,
			AppealRate:        rate,
			TopDenialReason:   top,
			TotalBilledDenied: a.billedDenied.Round(2),
		})
	}

	sort.SliceStable(profiles, func(i, j int) bool {
		return profiles[i].TotalAppeals > profiles[j].TotalAppeals
	})
	if len(profiles) > topN {
		profiles = profiles[:topN]
	}
	return profiles
}
