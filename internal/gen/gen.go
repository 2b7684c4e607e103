// Package gen produces synthetic claims with realistic utilization
// management patterns: long-tail costs, seasonal utilization, denial and
// appeal dynamics, authorization toggles driven by policy events, and an
// injected out-of-network DME cluster. Generation is fully seeded.
package gen

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"umclaims/pkg/config"
	"umclaims/pkg/schema"
)

// lognormal parameters (mu, sigma) per service category.
var costParams = map[string][2]float64{
	"E&M":      {4.5, 0.8},
	"Imaging":  {6.0, 1.0},
	"Surgical": {7.5, 1.2},
	"DME":      {5.5, 1.5},
	"Pharmacy": {4.0, 1.8},
	"Other":    {5.0, 1.0},
}

// Monthly utilization weights. Winter months are heavier (respiratory,
// ED), early autumn slightly elevated.
var monthWeights = [13]float64{0,
	1.15, 1.10, 1.00, 0.95, 0.95, 1.00,
	1.00, 1.00, 1.05, 1.10, 1.05, 1.15,
}

// GenerateClaims builds the full synthetic claim set, base population plus
// the injected supplier cluster.
func GenerateClaims(cfg config.PipelineConfig) []schema.Claim {
	rng := rand.New(rand.NewSource(cfg.Seed))
	n := cfg.NumClaims

	slog.Info("generating synthetic claims", "num_claims", n, "seed", cfg.Seed)

	nMembers := max(100, n/10)
	nProviders := max(50, n/200)
	nFacilities := max(20, n/500)

	providers := make([]provider, nProviders)
	for i := range providers {
		region := choice(rng, schema.Regions)
		providers[i] = provider{
			id:        fmt.Sprintf("PROV-%06d", i),
			specialty: choice(rng, schema.Specialties),
			region:    region,
			state:     choice(rng, schema.StatesByRegion[region]),
		}
	}

	claims := make([]schema.Claim, 0, n+cfg.FraudClusterSupplierCount*cfg.FraudClusterClaimsPerSupplier)
	start, end := cfg.DateStart.Time, cfg.DateEnd.Time

	for i := 0; i < n; i++ {
		c := schema.Claim{
			ClaimID:  fmt.Sprintf("CLM-%010d", i),
			MemberID: fmt.Sprintf("MEM-%08d", rng.Intn(nMembers)),
		}

		p := providers[rng.Intn(nProviders)]
		c.ProviderID = p.id
		c.Specialty = p.specialty
		c.GeographyRegion = p.region
		c.GeographyState = p.state

		if rng.Float64() > 0.3 {
			c.FacilityID = fmt.Sprintf("FAC-%05d", rng.Intn(nFacilities))
		}

		c.ClaimType = weightedChoice(rng, schema.ClaimTypes, []float64{0.60, 0.25, 0.15})
		category := "Pharmacy"
		if c.ClaimType != "Pharmacy" {
			category = weightedChoice(rng,
				[]string{"E&M", "Imaging", "Surgical", "DME", "Other"},
				[]float64{0.35, 0.20, 0.15, 0.10, 0.20})
		}
		c.ProcedureCode = choice(rng, schema.ProcedureCodePools[category])

		c.ServiceDate = seasonalDate(rng, start, end)
		c.ClaimReceivedDate = c.ServiceDate.AddDate(0, 0, 1+rng.Intn(30))
		if rng.Float64() > 0.05 {
			pd := c.ClaimReceivedDate.AddDate(0, 0, 14+rng.Intn(77))
			c.PaidDate = &pd
		}

		billed := lognormal(rng, costParams[category][0], costParams[category][1])
		// Pareto tail on ~5% of claims keeps the top quintile carrying
		// most of the spend.
		if rng.Float64() < 0.05 {
			billed += pareto(rng, 1.5) * 50_000
		}
		billed = clamp(billed, 10.0, 2_000_000.0)
		allowed := billed * uniform(rng, 0.40, 0.95)
		paid := allowed * uniform(rng, 0.80, 1.00)

		c.BilledAmount = money(billed)
		c.AllowedAmount = money(allowed)
		c.PaidAmount = money(paid)

		c.Units = 1
		switch {
		case category == "DME" || category == "Pharmacy":
			c.Units = 1 + rng.Intn(10)
		case rng.Float64() < 0.1:
			c.Units = 2 + rng.Intn(3)
		}

		c.NetworkStatus = weightedChoice(rng, schema.NetworkStatuses, []float64{0.90, 0.10})
		c.PayerProduct = weightedChoice(rng, schema.PayerProducts, []float64{0.45, 0.25, 0.20, 0.10})
		c.PlanType = weightedChoice(rng, schema.PlanTypes, []float64{0.35, 0.30, 0.20, 0.15})
		c.LineOfBusiness = lineOfBusiness(rng, c.PayerProduct)
		c.PlaceOfService = choice(rng, schema.PlaceOfServiceCodes)

		c.AuthorizationRequired = rng.Float64() < 0.25
		applyPolicyEvents(&c, cfg.PolicyEvents)
		if c.AuthorizationRequired && rng.Float64() > 0.1 {
			c.AuthorizationID = fmt.Sprintf("AUTH-%06d", 100000+rng.Intn(900000))
		}

		c.DenialFlag = rng.Float64() < 0.12
		if c.DenialFlag {
			c.DenialReasonCategory = choice(rng, schema.DenialReasons)
			c.PaidAmount = decimal.Zero
			propensity, ok := cfg.AppealPropensity[c.DenialReasonCategory]
			if !ok {
				propensity = 0.10
			}
			c.AppealFlag = rng.Float64() < propensity
		}
		c.GrievanceFlag = rng.Float64() < 0.02

		c.DMEFlag = category == "DME"
		if c.DMEFlag {
			c.SupplierType = choice(rng, []string{"DME Supplier", "Medical Equipment", "Prosthetics"})
		}

		c.RenderingNPI = npi(rng)
		c.BillingNPI = npi(rng)

		dxCount := 1 + rng.Intn(5)
		c.DiagnosisCodes = make([]string, dxCount)
		for d := range c.DiagnosisCodes {
			c.DiagnosisCodes[d] = fmt.Sprintf("DX-%04d", 1000+rng.Intn(9000))
		}

		if c.ClaimType == "Institutional" {
			c.RevenueCode = fmt.Sprintf("%04d", 100+rng.Intn(899))
		}

		claims = append(claims, c)
	}

	claims = append(claims, injectFraudCluster(rng, cfg)...)

	slog.Info("claim generation complete", "total_claims", len(claims))
	return claims
}

type provider struct {
	id        string
	specialty string
	region    string
	state     string
}

// seasonalDate draws a uniform date and resamples rejected draws toward
// winter. Acceptance probability is the month weight relative to the
// heaviest month.
func seasonalDate(rng *rand.Rand, start, end time.Time) time.Time {
	totalDays := int(end.Sub(start).Hours() / 24)
	d := start.AddDate(0, 0, rng.Intn(totalDays))
	accept := monthWeights[d.Month()] / 1.15
	if rng.Float64() > accept {
		var winterDay int
		if rng.Intn(2) == 0 {
			winterDay = rng.Intn(59) // Jan-Feb
		} else {
			winterDay = 335 + rng.Intn(max(1, totalDays-335)) // Dec onward
		}
		d = start.AddDate(0, 0, winterDay%totalDays)
	}
	return d
}

// applyPolicyEvents toggles authorization_required off for claims whose
// procedure matches a "removed" event and whose service date falls on or
// after the effective date.
func applyPolicyEvents(c *schema.Claim, events []config.PolicyChangeEvent) {
	if !c.AuthorizationRequired {
		return
	}
	for _, ev := range events {
		if ev.ChangeType != "removed" || c.ServiceDate.Before(ev.EffectiveDate.Time) {
			continue
		}
		for _, prefix := range ev.AffectedProcedurePrefixes {
			if len(c.ProcedureCode) >= len(prefix) && c.ProcedureCode[:len(prefix)] == prefix {
				c.AuthorizationRequired = false
				return
			}
		}
	}
}

// injectFraudCluster creates a small set of suppliers with the signature
// an OON DME detection rule should catch: recent entity age, near-total
// OON billing, one or two procedure codes, a single state.
func injectFraudCluster(rng *rand.Rand, cfg config.PipelineConfig) []schema.Claim {
	fraudCodes := []string{"HCPCS-E0100", "HCPCS-E0101"}
	fraudStart := cfg.DateEnd.Time.AddDate(0, 0, -90)
	daysRange := 90

	out := make([]schema.Claim, 0, cfg.FraudClusterSupplierCount*cfg.FraudClusterClaimsPerSupplier)
	for s := 0; s < cfg.FraudClusterSupplierCount; s++ {
		supplierID := fmt.Sprintf("FRAUD-PROV-%04d", s)
		supplierNPI := npi(rng)

		for i := 0; i < cfg.FraudClusterClaimsPerSupplier; i++ {
			sd := fraudStart.AddDate(0, 0, rng.Intn(daysRange))
			rd := sd.AddDate(0, 0, 1+rng.Intn(14))
			pd := rd.AddDate(0, 0, 14+rng.Intn(46))

			billed := lognormal(rng, 7.0, 0.8)
			allowed := billed * uniform(rng, 0.60, 0.90)
			paid := allowed * uniform(rng, 0.85, 1.00)

			network := schema.NetworkOON
			if rng.Float64() >= 0.95 {
				network = schema.NetworkINN
			}

			out = append(out, schema.Claim{
				ClaimID:           fmt.Sprintf("CLM-FRAUD-%04d-%05d", s, i),
				MemberID:          fmt.Sprintf("MEM-%08d", rng.Intn(10000)),
				ProviderID:        supplierID,
				PayerProduct:      choice(rng, []string{"Commercial", "Medicare"}),
				PlanType:          "PPO",
				LineOfBusiness:    "Group",
				ServiceDate:       sd,
				ClaimReceivedDate: rd,
				PaidDate:          &pd,
				ClaimType:         "Professional",
				PlaceOfService:    "12",
				DiagnosisCodes:    []string{fmt.Sprintf("DX-%04d", 8000+rng.Intn(1000))},
				ProcedureCode:     choice(rng, fraudCodes),
				BilledAmount:      money(billed),
				AllowedAmount:     money(allowed),
				PaidAmount:        money(paid),
				Units:             3 + rng.Intn(12),
				NetworkStatus:     network,
				DMEFlag:           true,
				SupplierType:      "DME Supplier",
				RenderingNPI:      supplierNPI,
				BillingNPI:        supplierNPI,
				GeographyState:    "FL",
				GeographyRegion:   "Southeast",
				Specialty:         "DME Supplier",
			})
		}
	}
	return out
}

func choice(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}

func weightedChoice(rng *rand.Rand, values []string, weights []float64) string {
	r := rng.Float64()
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r < acc {
			return values[i]
		}
	}
	return values[len(values)-1]
}

func lineOfBusiness(rng *rand.Rand, payerProduct string) string {
	switch payerProduct {
	case "Commercial":
		return choice(rng, []string{"Group", "Individual"})
	case "Medicare":
		return "Medicare"
	case "Medicaid":
		return "Medicaid"
	default: // Exchange
		return "Individual"
	}
}

func lognormal(rng *rand.Rand, mu, sigma float64) float64 {
	return math.Exp(mu + sigma*rng.NormFloat64())
}

// pareto draws from a Lomax (Pareto II) distribution with shape alpha.
func pareto(rng *rand.Rand, alpha float64) float64 {
	return math.Pow(1-rng.Float64(), -1/alpha) - 1
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(math.Max(x, lo), hi)
}

func money(x float64) decimal.Decimal {
	return decimal.NewFromFloat(x).Round(2)
}

func npi(rng *rand.Rand) string {
	return fmt.Sprintf("%d", 1_000_000_000+rng.Int63n(9_000_000_000))
}
