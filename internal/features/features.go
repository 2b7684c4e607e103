// Package features is the feature aggregation stage: it turns raw claim
// records into per-provider, per-period, and per-service-category summary
// rows consumed by every downstream analyzer.
//
// All aggregation is a pure function of the input claims. Grouping uses
// insertion-ordered accumulators so identical inputs always produce
// identically ordered outputs.
package features

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"umclaims/pkg/schema"
)

// ProviderFeatures is the aggregate over all claims for one provider.
type ProviderFeatures struct {
	ProviderID string `json:"provider_id"`

	TotalClaims  int             `json:"total_claims"`
	TotalAllowed decimal.Decimal `json:"total_allowed"`
	AvgAllowed   decimal.Decimal `json:"avg_allowed"`
	TotalBilled  decimal.Decimal `json:"total_billed"`
	TotalUnits   int             `json:"total_units"`
	AvgUnits     float64         `json:"avg_units"`

	OONRate    float64 `json:"oon_rate"`
	DenialRate float64 `json:"denial_rate"`
	AppealRate float64 `json:"appeal_rate"`
	DMERate    float64 `json:"dme_rate"`

	FirstClaimDate time.Time `json:"first_claim_date"`
	LastClaimDate  time.Time `json:"last_claim_date"`
	EntityAgeDays  int       `json:"entity_age_days"`

	UniqueMembers        int `json:"unique_members"`
	UniqueProcedureCodes int `json:"unique_procedure_codes"`

	// NaN when total allowed is zero; consumers must filter non-finite
	// values rather than treat them as zero.
	BilledToAllowedRatio float64 `json:"billed_to_allowed_ratio"`
	CostPerUnit          float64 `json:"cost_per_unit"`

	Specialty       string `json:"specialty"`
	GeographyState  string `json:"geography_state"`
	GeographyRegion string `json:"geography_region"`
}

// PeriodStats is the aggregate for one time bucket of one width.
type PeriodStats struct {
	PeriodStart time.Time `json:"period_start"`
	PeriodType  string    `json:"period_type"` // "weekly" | "monthly"

	TotalClaims  int             `json:"total_claims"`
	TotalAllowed decimal.Decimal `json:"total_allowed"`
	TotalBilled  decimal.Decimal `json:"total_billed"`
	DenialCount  int             `json:"denial_count"`
	OONCount     int             `json:"oon_count"`

	// Trailing rolling mean of TotalClaims: window 4 for weekly buckets,
	// 3 for monthly. Partial windows at the start use however many
	// samples exist so far.
	RollingMeanClaims float64 `json:"rolling_mean_claims"`
}

// CategoryStats is the aggregate for one service category.
type CategoryStats struct {
	ServiceCategory string `json:"service_category"`

	TotalClaims  int             `json:"total_claims"`
	TotalAllowed decimal.Decimal `json:"total_allowed"`
	AvgAllowed   decimal.Decimal `json:"avg_allowed"`
	TotalBilled  decimal.Decimal `json:"total_billed"`
	TotalUnits   int             `json:"total_units"`
	DenialRate   float64         `json:"denial_rate"`
	OONRate      float64         `json:"oon_rate"`
	CostPerUnit  float64         `json:"cost_per_unit"`
}

// Set bundles every feature table computed from one claim set.
type Set struct {
	Provider        []ProviderFeatures `json:"provider"`
	Temporal        []PeriodStats      `json:"temporal"`
	ServiceCategory []CategoryStats    `json:"service_category"`
}

// ComputeAll runs every aggregator against the claim set.
func ComputeAll(claims []schema.Claim) Set {
	return Set{
		Provider:        ComputeProviderFeatures(claims),
		Temporal:        ComputeTemporalFeatures(claims),
		ServiceCategory: ComputeCategoryFeatures(claims),
	}
}

type providerAccum struct {
	claims       int
	totalAllowed decimal.Decimal
	totalBilled  decimal.Decimal
	totalUnits   int
	oon          int
	denied       int
	appealed     int
	dme          int
	firstDate    time.Time
	lastDate     time.Time
	members      map[string]struct{}
	codes        map[string]struct{}
	specialty    string
	state        string
	region       string
}

// ComputeProviderFeatures groups claims by provider and computes the
// per-provider aggregate row. Providers appear in first-encounter order.
func ComputeProviderFeatures(claims []schema.Claim) []ProviderFeatures {
	accums := map[string]*providerAccum{}
	var order []string

	for _, c := range claims {
		a, ok := accums[c.ProviderID]
		if !ok {
			a = &providerAccum{
				totalAllowed: decimal.Zero,
				totalBilled:  decimal.Zero,
				firstDate:    c.ServiceDate,
				lastDate:     c.ServiceDate,
				members:      map[string]struct{}{},
				codes:        map[string]struct{}{},
				specialty:    c.Specialty,
				state:        c.GeographyState,
				region:       c.GeographyRegion,
			}
			accums[c.ProviderID] = a
			order = append(order, c.ProviderID)
		}

		a.claims++
		a.totalAllowed = a.totalAllowed.Add(c.AllowedAmount)
		a.totalBilled = a.totalBilled.Add(c.BilledAmount)
		a.totalUnits += c.Units
		if c.IsOON() {
			a.oon++
		}
		if c.DenialFlag {
			a.denied++
		}
		if c.AppealFlag {
			a.appealed++
		}
		if c.DMEFlag {
			a.dme++
		}
		if c.ServiceDate.Before(a.firstDate) {
			a.firstDate = c.ServiceDate
		}
		if c.ServiceDate.After(a.lastDate) {
			a.lastDate = c.ServiceDate
		}
		a.members[c.MemberID] = struct{}{}
		a.codes[c.ProcedureCode] = struct{}{}
	}

	rows := make([]ProviderFeatures, 0, len(order))
	for _, pid := range order {
		a := accums[pid]
		n := decimal.NewFromInt(int64(a.claims))

		ratio := math.NaN()
		if !a.totalAllowed.IsZero() {
			ratio = a.totalBilled.Div(a.totalAllowed).InexactFloat64()
		}
		costPerUnit := 0.0
		if a.totalUnits > 0 {
			costPerUnit = a.totalAllowed.InexactFloat64() / float64(a.totalUnits)
		}

		rows = append(rows, ProviderFeatures{
			ProviderID:           pid,
			TotalClaims:          a.claims,
			TotalAllowed:         a.totalAllowed,
			AvgAllowed:           a.totalAllowed.Div(n),
			TotalBilled:          a.totalBilled,
			TotalUnits:           a.totalUnits,
			AvgUnits:             float64(a.totalUnits) / float64(a.claims),
			OONRate:              float64(a.oon) / float64(a.claims),
			DenialRate:           float64(a.denied) / float64(a.claims),
			AppealRate:           float64(a.appealed) / float64(a.claims),
			DMERate:              float64(a.dme) / float64(a.claims),
			FirstClaimDate:       a.firstDate,
			LastClaimDate:        a.lastDate,
			EntityAgeDays:        daysBetween(a.firstDate, a.lastDate),
			UniqueMembers:        len(a.members),
			UniqueProcedureCodes: len(a.codes),
			BilledToAllowedRatio: ratio,
			CostPerUnit:          costPerUnit,
			Specialty:            a.specialty,
			GeographyState:       a.state,
			GeographyRegion:      a.region,
		})
	}
	return rows
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
