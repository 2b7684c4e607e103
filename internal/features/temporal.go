package features

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"umclaims/pkg/schema"
)

const (
	weeklyWindow  = 4
	monthlyWindow = 3
)

// ComputeTemporalFeatures buckets claims into Monday-start weeks and
// first-of-month months, producing two parallel series each with a trailing
// rolling mean of claim volume. The weekly series precedes the monthly one.
func ComputeTemporalFeatures(claims []schema.Claim) []PeriodStats {
	weekly := bucketByPeriod(claims, "weekly", weekStart, weeklyWindow)
	monthly := bucketByPeriod(claims, "monthly", monthStart, monthlyWindow)
	return append(weekly, monthly...)
}

func weekStart(t time.Time) time.Time {
	daysPastMonday := (int(t.Weekday()) + 6) % 7
	t = t.AddDate(0, 0, -daysPastMonday)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func bucketByPeriod(
	claims []schema.Claim,
	periodType string,
	truncate func(time.Time) time.Time,
	window int,
) []PeriodStats {
	buckets := map[time.Time]*PeriodStats{}

	for _, c := range claims {
		start := truncate(c.ServiceDate)
		b, ok := buckets[start]
		if !ok {
			b = &PeriodStats{
				PeriodStart:  start,
				PeriodType:   periodType,
				TotalAllowed: decimal.Zero,
				TotalBilled:  decimal.Zero,
			}
			buckets[start] = b
		}
		b.TotalClaims++
		b.TotalAllowed = b.TotalAllowed.Add(c.AllowedAmount)
		b.TotalBilled = b.TotalBilled.Add(c.BilledAmount)
		if c.DenialFlag {
			b.DenialCount++
		}
		if c.IsOON() {
			b.OONCount++
		}
	}

	series := make([]PeriodStats, 0, len(buckets))
	for _, b := range buckets {
		series = append(series, *b)
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].PeriodStart.Before(series[j].PeriodStart)
	})

	// Trailing rolling mean with partial windows at the start, so the
	// first position is always defined.
	for i := range series {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		sum := 0
		for j := lo; j <= i; j++ {
			sum += series[j].TotalClaims
		}
		series[i].RollingMeanClaims = float64(sum) / float64(i-lo+1)
	}
	return series
}

// ComputeCategoryFeatures groups claims by service category (derived from
// the procedure-code prefix table). Categories appear in first-encounter
// order.
func ComputeCategoryFeatures(claims []schema.Claim) []CategoryStats {
	type catAccum struct {
		stats  CategoryStats
		denied int
		oon    int
	}
	accums := map[string]*catAccum{}
	var order []string

	for _, c := range claims {
		cat := schema.ServiceCategory(c.ProcedureCode)
		a, ok := accums[cat]
		if !ok {
			a = &catAccum{stats: CategoryStats{
				ServiceCategory: cat,
				TotalAllowed:    decimal.Zero,
				TotalBilled:     decimal.Zero,
			}}
			accums[cat] = a
			order = append(order, cat)
		}
		a.stats.TotalClaims++
		a.stats.TotalAllowed = a.stats.TotalAllowed.Add(c.AllowedAmount)
		a.stats.TotalBilled = a.stats.TotalBilled.Add(c.BilledAmount)
		a.stats.TotalUnits += c.Units
		if c.DenialFlag {
			a.denied++
		}
		if c.IsOON() {
			a.oon++
		}
	}

	rows := make([]CategoryStats, 0, len(order))
	for _, cat := range order {
		a := accums[cat]
		n := float64(a.stats.TotalClaims)
		a.stats.AvgAllowed = a.stats.TotalAllowed.Div(decimal.NewFromInt(int64(a.stats.TotalClaims)))
		a.stats.DenialRate = float64(a.denied) / n
		a.stats.OONRate = float64(a.oon) / n
		if a.stats.TotalUnits > 0 {
			a.stats.CostPerUnit = a.stats.TotalAllowed.InexactFloat64() / float64(a.stats.TotalUnits)
		}
		rows = append(rows, a.stats)
	}
	return rows
}
