package policy

import (
	"sort"

	"github.com/shopspring/decimal"

	"umclaims/pkg/schema"
	"umclaims/pkg/stats"
)

// KPI is the roll-up for one policy bucket (including Unmatched).
type KPI struct {
	PolicyID     string          `json:"policy_id"`
	NClaims      int             `json:"n_claims"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	AvgAmount    decimal.Decimal `json:"avg_amount"`
	ApprovalRate float64         `json:"approval_rate"`
	DenialRate   float64         `json:"denial_rate"`

	TopDx          []string `json:"top_dx"`
	TopSpecialties []string `json:"top_specialties"`
}

// orderedCounter counts values preserving first-encounter order, so the
// most-frequent ranking is deterministic under ties.
type orderedCounter struct {
	counts map[string]int
	order  []string
}

func newOrderedCounter() *orderedCounter {
	return &orderedCounter{counts: map[string]int{}}
}

func (c *orderedCounter) add(v string) {
	if v == "" {
		return
	}
	if _, seen := c.counts[v]; !seen {
		c.order = append(c.order, v)
	}
	c.counts[v]++
}

// top returns up to n values by count descending, ties broken by first
// encounter.
func (c *orderedCounter) top(n int) []string {
	keys := append([]string(nil), c.order...)
	sort.SliceStable(keys, func(i, j int) bool {
		return c.counts[keys[i]] > c.counts[keys[j]]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

type kpiAccum struct {
	n           int
	denied      int
	totalAmount decimal.Decimal
	dx          *orderedCounter
	specialties *orderedCounter
}

// ComputeKPIs groups matched claims by assigned policy id and computes the
// per-policy roll-up, sorted by total amount descending. matches must be
// parallel to claims, as produced by MatchClaims.
func ComputeKPIs(claims []schema.Claim, matches []Match) []KPI {
	accums := map[string]*kpiAccum{}
	var order []string

	for i, c := range claims {
		pid := Unmatched
		if i < len(matches) {
			pid = matches[i].PolicyID
		}
		a, ok := accums[pid]
		if !ok {
			a = &kpiAccum{
				totalAmount: decimal.Zero,
				dx:          newOrderedCounter(),
				specialties: newOrderedCounter(),
			}
			accums[pid] = a
			order = append(order, pid)
		}

		a.n++
		if c.DenialFlag {
			a.denied++
		}
		a.totalAmount = a.totalAmount.Add(claimAmount(c))
		for _, code := range c.DiagnosisCodes {
			a.dx.add(code)
		}
		a.specialties.add(c.Specialty)
	}

	kpis := make([]KPI, 0, len(order))
	for _, pid := range order {
		a := accums[pid]
		avg := decimal.Zero
		if a.n > 0 {
			avg = a.totalAmount.Div(decimal.NewFromInt(int64(a.n)))
		}
		kpis = append(kpis, KPI{
			PolicyID:       pid,
			NClaims:        a.n,
			TotalAmount:    a.totalAmount.Round(2),
			AvgAmount:      avg.Round(2),
			ApprovalRate:   stats.Round(float64(a.n-a.denied)/float64(a.n), 4),
			DenialRate:     stats.Round(float64(a.denied)/float64(a.n), 4),
			TopDx:          a.dx.top(5),
			TopSpecialties: a.specialties.top(5),
		})
	}

	sort.SliceStable(kpis, func(i, j int) bool {
		return kpis[i].TotalAmount.GreaterThan(kpis[j].TotalAmount)
	})
	return kpis
}

// claimAmount prefers the allowed amount, falling back to billed, then 0.
func claimAmount(c schema.Claim) decimal.Decimal {
	if c.AllowedAmount.IsPositive() {
		return c.AllowedAmount
	}
	if c.BilledAmount.IsPositive() {
		return c.BilledAmount
	}
	return decimal.Zero
}
