// Package policysim analyzes the utilization impact of simulated policy
// changes: a fixed-width window comparison before and after each event's
// effective date, with rebound detection for removed restrictions.
package policysim

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"umclaims/pkg/config"
	"umclaims/pkg/schema"
	"umclaims/pkg/stats"
)

// PeriodMetrics are the utilization metrics for one side of the window.
// An empty period is all zeros.
type PeriodMetrics struct {
	Volume       int             `json:"volume"`
	TotalAllowed decimal.Decimal `json:"total_allowed"`
	AvgAllowed   decimal.Decimal `json:"avg_allowed"`
	DenialRate   float64         `json:"denial_rate"`
	OONRate      float64         `json:"oon_rate"`
}

func emptyPeriod() PeriodMetrics {
	return PeriodMetrics{TotalAllowed: decimal.Zero, AvgAllowed: decimal.Zero}
}

// Impact is the before/after comparison for a single policy change event.
type Impact struct {
	PolicyID         string   `json:"policy_id"`
	Description      string   `json:"description"`
	EffectiveDate    string   `json:"effective_date"`
	AffectedServices []string `json:"affected_services"`

	PreMetrics  PeriodMetrics `json:"pre_metrics"`
	PostMetrics PeriodMetrics `json:"post_metrics"`

	VolumeChangePct  float64 `json:"volume_change_pct"`
	CostChangePct    float64 `json:"cost_change_pct"`
	DenialRateChange float64 `json:"denial_rate_change"`
	OONRateChange    float64 `json:"oon_rate_change"`

	ReboundDetected bool   `json:"rebound_detected"`
	ReboundDetail   string `json:"rebound_detail"`
}

// Report is the per-event impact list, preserving input event order.
type Report struct {
	Impacts []Impact `json:"impacts"`
}

// Analyze computes the policy impact for every configured event. Each event
// is analyzed independently; an event matching zero claims produces a
// zero-valued impact record rather than an error.
func Analyze(claims []schema.Claim, events []config.PolicyChangeEvent, cfg config.DetectionConfig) Report {
	impacts := make([]Impact, 0, len(events))

	for _, event := range events {
		affected := filterByPrefixes(claims, event.AffectedProcedurePrefixes)
		slog.Debug("policy impact",
			"policy_id", event.PolicyID,
			"prefixes", strings.Join(event.AffectedProcedurePrefixes, ","),
			"matched", len(affected),
			"total", len(claims))

		impact := Impact{
			PolicyID:         event.PolicyID,
			Description:      event.Description,
			EffectiveDate:    event.EffectiveDate.Format(schema.DateLayout),
			AffectedServices: event.AffectedProcedurePrefixes,
			PreMetrics:       emptyPeriod(),
			PostMetrics:      emptyPeriod(),
		}
		if len(affected) == 0 {
			impacts = append(impacts, impact)
			continue
		}

		// Pre and post windows share the rebound window width.
		effective := event.EffectiveDate.Time
		window := 7 * cfg.ReboundWindowWeeks
		preStart := effective.AddDate(0, 0, -window)
		postEnd := effective.AddDate(0, 0, window)

		var pre, post []schema.Claim
		for _, c := range affected {
			switch {
			case !c.ServiceDate.Before(preStart) && c.ServiceDate.Before(effective):
				pre = append(pre, c)
			case !c.ServiceDate.Before(effective) && c.ServiceDate.Before(postEnd):
				post = append(post, c)
			}
		}

		impact.PreMetrics = computePeriodMetrics(pre)
		impact.PostMetrics = computePeriodMetrics(post)

		if impact.PreMetrics.Volume > 0 {
			impact.VolumeChangePct = stats.Round(
				float64(impact.PostMetrics.Volume-impact.PreMetrics.Volume)/
					float64(impact.PreMetrics.Volume)*100, 2)
		}
		preAllowed := impact.PreMetrics.TotalAllowed.InexactFloat64()
		if preAllowed > 0 {
			postAllowed := impact.PostMetrics.TotalAllowed.InexactFloat64()
			impact.CostChangePct = stats.Round((postAllowed-preAllowed)/preAllowed*100, 2)
		}
		impact.DenialRateChange = stats.Round(impact.PostMetrics.DenialRate-impact.PreMetrics.DenialRate, 4)
		impact.OONRateChange = stats.Round(impact.PostMetrics.OONRate-impact.PreMetrics.OONRate, 4)

		// Rebound: after a removed restriction, volume was expected to
		// drop. Boundary inclusive.
		if event.ChangeType == "removed" && impact.PreMetrics.Volume > 0 {
			preVol := float64(impact.PreMetrics.Volume)
			postVol := float64(impact.PostMetrics.Volume)
			if postVol >= preVol*cfg.ReboundThresholdPct {
				impact.ReboundDetected = true
				impact.ReboundDetail = fmt.Sprintf(
					"Post-removal volume (%d) is %.0f%% of pre-removal volume (%d). Utilization did not decrease as expected.",
					impact.PostMetrics.Volume, postVol/preVol*100, impact.PreMetrics.Volume)
			}
		}

		impacts = append(impacts, impact)
	}

	return Report{Impacts: impacts}
}

func filterByPrefixes(claims []schema.Claim, prefixes []string) []schema.Claim {
	var out []schema.Claim
	for _, c := range claims {
		for _, p := range prefixes {
			if strings.HasPrefix(c.ProcedureCode, p) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func computePeriodMetrics(claims []schema.Claim) PeriodMetrics {
	m := emptyPeriod()
	if len(claims) == 0 {
		return m
	}

	denied, oon := 0, 0
	for _, c := range claims {
		m.TotalAllowed = m.TotalAllowed.Add(c.AllowedAmount)
		if c.DenialFlag {
			denied++
		}
		if c.IsOON() {
			oon++
		}
	}
	m.Volume = len(claims)
	m.AvgAllowed = m.TotalAllowed.Div(decimal.NewFromInt(int64(len(claims))))
	m.DenialRate = float64(denied) / float64(len(claims))
	m.OONRate = float64(oon) / float64(len(claims))
	return m
}
