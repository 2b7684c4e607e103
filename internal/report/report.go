// Package report renders the pipeline's findings into a single Markdown
// document: key metrics, top detection flags, policy impact, the appeals
// funnel, benchmark variance, and per-policy insights.
package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"umclaims/internal/appeals"
	"umclaims/internal/benchmark"
	"umclaims/internal/detect"
	"umclaims/internal/policy"
	"umclaims/internal/policysim"
	"umclaims/pkg/config"
	"umclaims/pkg/schema"
)

// Input bundles everything the report needs from the upstream stages.
type Input struct {
	Config    config.PipelineConfig
	Claims    []schema.Claim
	Flags     []detect.Flag
	Policy    policysim.Report
	Appeals   appeals.Report
	Benchmark benchmark.Report
	KPIs      []policy.KPI
	RankKPIBy string // "total_amount" (default) or "denial_rate"
}

const topFlagCount = 20

// Generate writes report.md under outputDir and returns its path.
func Generate(in Input, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir %s: %w", outputDir, err)
	}

	var b strings.Builder
	writeHeader(&b, in)
	writeKeyMetrics(&b, in)
	writeFlags(&b, in.Flags)
	writePolicyImpact(&b, in.Policy)
	writeAppeals(&b, in.Appeals)
	writeBenchmarks(&b, in.Benchmark)
	writeKPIs(&b, in.KPIs, in.RankKPIBy)
	writeNextQuestions(&b)

	path := filepath.Join(outputDir, "report.md")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write report %s: %w", path, err)
	}

	slog.Info("report written", "path", path)
	return path, nil
}

func writeHeader(b *strings.Builder, in Input) {
	fmt.Fprintf(b, "# UM Claims Analytics Report\n\n")
	fmt.Fprintf(b, "**Generated:** %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(b, "**Seed:** %d | **Claims:** %s\n\n", in.Config.Seed, thousands(len(in.Claims)))
	fmt.Fprintf(b, "---\n\n")
}

func writeKeyMetrics(b *strings.Builder, in Input) {
	totalBilled, totalAllowed := decimal.Zero, decimal.Zero
	oon := 0
	for _, c := range in.Claims {
		totalBilled = totalBilled.Add(c.BilledAmount)
		totalAllowed = totalAllowed.Add(c.AllowedAmount)
		if c.IsOON() {
			oon++
		}
	}
	oonRate := 0.0
	if len(in.Claims) > 0 {
		oonRate = float64(oon) / float64(len(in.Claims))
	}

	fmt.Fprintf(b, "## Key Metrics\n\n")
	fmt.Fprintf(b, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(b, "| Total Claims | %s |\n", thousands(len(in.Claims)))
	fmt.Fprintf(b, "| Total Billed | $%s |\n", totalBilled.Round(2).String())
	fmt.Fprintf(b, "| Total Allowed | $%s |\n", totalAllowed.Round(2).String())
	fmt.Fprintf(b, "| Overall Denial Rate | %s |\n", pct(in.Appeals.OverallDenialRate))
	fmt.Fprintf(b, "| Overall Appeal Rate | %s |\n", pct(in.Appeals.OverallAppealRate))
	fmt.Fprintf(b, "| OON Rate | %s |\n", pct(oonRate))
	fmt.Fprintf(b, "| Total Flags | %d |\n\n", len(in.Flags))
}

func writeFlags(b *strings.Builder, flags []detect.Flag) {
	fmt.Fprintf(b, "## Top Anomalies (Detection Flags)\n\n")
	if len(flags) == 0 {
		fmt.Fprintf(b, "No anomalies detected.\n\n")
		return
	}

	high, medium := 0, 0
	for _, f := range flags {
		switch f.Severity {
		case detect.SeverityHigh:
			high++
		case detect.SeverityMedium:
			medium++
		}
	}
	fmt.Fprintf(b, "Total flags: **%d**\n\n", len(flags))
	fmt.Fprintf(b, "- **High severity:** %d\n", high)
	fmt.Fprintf(b, "- **Medium severity:** %d\n\n", medium)

	fmt.Fprintf(b, "### Top %d Flags\n\n", topFlagCount)
	fmt.Fprintf(b, "| # | Rule | Entity | Severity | Actual | Threshold | Description |\n")
	fmt.Fprintf(b, "|---|---|---|---|---|---|---|\n")
	for i, f := range flags {
		if i >= topFlagCount {
			break
		}
		fmt.Fprintf(b, "| %d | %s | %s | %s | %.2f | %.2f | %s |\n",
			i+1, f.RuleName, f.EntityID, f.Severity, f.ActualValue, f.Threshold, f.Description)
	}
	fmt.Fprintf(b, "\n")
}

func writePolicyImpact(b *strings.Builder, r policysim.Report) {
	fmt.Fprintf(b, "## Policy Impact Analysis\n\n")
	if len(r.Impacts) == 0 {
		fmt.Fprintf(b, "No policy change events configured.\n\n")
		return
	}

	for _, imp := range r.Impacts {
		fmt.Fprintf(b, "### %s: %s\n\n", imp.PolicyID, imp.Description)
		fmt.Fprintf(b, "**Effective Date:** %s\n\n", imp.EffectiveDate)
		fmt.Fprintf(b, "| Metric | Pre | Post | Change |\n|---|---|---|---|\n")
		fmt.Fprintf(b, "| Volume | %s | %s | %+.1f%% |\n",
			thousands(imp.PreMetrics.Volume), thousands(imp.PostMetrics.Volume), imp.VolumeChangePct)
		fmt.Fprintf(b, "| Total Allowed | $%s | $%s | %+.1f%% |\n",
			imp.PreMetrics.TotalAllowed.Round(2).String(),
			imp.PostMetrics.TotalAllowed.Round(2).String(), imp.CostChangePct)
		fmt.Fprintf(b, "| Denial Rate | %s | %s | %+.4f |\n",
			pct(imp.PreMetrics.DenialRate), pct(imp.PostMetrics.DenialRate), imp.DenialRateChange)
		fmt.Fprintf(b, "| OON Rate | %s | %s | %+.4f |\n",
			pct(imp.PreMetrics.OONRate), pct(imp.PostMetrics.OONRate), imp.OONRateChange)
		if imp.ReboundDetected {
			fmt.Fprintf(b, "\n**Rebound Detected:** %s\n", imp.ReboundDetail)
		}
		fmt.Fprintf(b, "\n")
	}
}

func writeAppeals(b *strings.Builder, r appeals.Report) {
	fmt.Fprintf(b, "## Appeals & Grievances\n\n")
	fmt.Fprintf(b, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(b, "| Total Denials | %s |\n", thousands(r.TotalDenials))
	fmt.Fprintf(b, "| Total Appeals | %s |\n", thousands(r.TotalAppeals))
	fmt.Fprintf(b, "| Total Grievances | %s |\n", thousands(r.TotalGrievances))
	fmt.Fprintf(b, "| Appeal Rate (of denials) | %s |\n", pct(r.OverallAppealRate))
	fmt.Fprintf(b, "| Est. Admin Cost | $%s |\n\n", r.EstimatedAdminCost.String())

	if len(r.Categories) == 0 {
		return
	}
	fmt.Fprintf(b, "### Top Denial Categories\n\n")
	fmt.Fprintf(b, "| Category | Denials | Appeals | Appeal Rate | Billed |\n|---|---|---|---|---|\n")
	for i, cat := range r.Categories {
		if i >= 5 {
			break
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s | $%s |\n",
			cat.Category, thousands(cat.DenialCount), thousands(cat.AppealCount),
			pct(cat.AppealRate), cat.TotalBilled.String())
	}
	fmt.Fprintf(b, "\n")
}

func writeBenchmarks(b *strings.Builder, r benchmark.Report) {
	fmt.Fprintf(b, "## Benchmarking vs Peer Baselines\n\n")
	if len(r.Comparisons) == 0 {
		fmt.Fprintf(b, "No benchmarks configured.\n\n")
		return
	}

	fmt.Fprintf(b, "| Metric | Internal | Baseline | Variance | Threshold | Status |\n")
	fmt.Fprintf(b, "|---|---|---|---|---|---|\n")
	for _, comp := range r.Comparisons {
		status := "OK"
		if comp.ExceedsThreshold {
			status = "FLAGGED"
		}
		fmt.Fprintf(b, "| %s | %.4f | %.4f | %+.2f%% | ±%.0f%% | %s |\n",
			comp.MetricName, comp.InternalValue, comp.BaselineValue,
			comp.Variance*100, comp.ThresholdPct*100, status)
	}
	fmt.Fprintf(b, "\n**Flagged metrics:** %d\n\n", r.FlaggedCount)
}

func writeKPIs(b *strings.Builder, kpis []policy.KPI, rankBy string) {
	fmt.Fprintf(b, "## Policy Insights\n\n")
	if len(kpis) == 0 {
		fmt.Fprintf(b, "No policy KPI data available.\n\n")
		return
	}
	if rankBy == "" {
		rankBy = "total_amount"
	}

	ranked := make([]policy.KPI, len(kpis))
	copy(ranked, kpis)
	sort.SliceStable(ranked, func(i, j int) bool {
		if rankBy == "denial_rate" {
			return ranked[i].DenialRate > ranked[j].DenialRate
		}
		return ranked[i].TotalAmount.GreaterThan(ranked[j].TotalAmount)
	})

	fmt.Fprintf(b, "Ranked by **%s** (descending).\n\n", rankBy)
	fmt.Fprintf(b, "| # | Policy ID | Claims | Total Amount | Avg Amount | Approval Rate | Denial Rate | Top Dx | Top Specialties |\n")
	fmt.Fprintf(b, "|---|---|---|---|---|---|---|---|---|\n")
	for i, k := range ranked {
		fmt.Fprintf(b, "| %d | %s | %s | $%s | $%s | %s | %s | %s | %s |\n",
			i+1, k.PolicyID, thousands(k.NClaims),
			k.TotalAmount.String(), k.AvgAmount.String(),
			pct(k.ApprovalRate), pct(k.DenialRate),
			joinOrDash(k.TopDx, 3), joinOrDash(k.TopSpecialties, 3))
	}
	fmt.Fprintf(b, "\n")
}

func writeNextQuestions(b *strings.Builder) {
	fmt.Fprintf(b, "## Recommended Next Questions\n\n")
	fmt.Fprintf(b, "1. **High-severity flags**: Review the top anomalies. Are flagged suppliers known entities, or do they warrant SIU investigation?\n")
	fmt.Fprintf(b, "2. **Policy rebound**: If a rebound was detected, consider whether the policy removal was premature or if utilization is within expected bounds.\n")
	fmt.Fprintf(b, "3. **Appeal burden**: Which denial categories have the highest appeal rates? Could pre-service review reduce post-service denials?\n")
	fmt.Fprintf(b, "4. **OON exposure**: Are OON DME clusters concentrated geographically? Consider network adequacy analysis.\n")
	fmt.Fprintf(b, "5. **Benchmark variance**: For metrics flagged above, drill into the underlying claims to understand whether variance is clinically justified.\n")
}

func joinOrDash(xs []string, limit int) string {
	if len(xs) == 0 {
		return "-"
	}
	if len(xs) > limit {
		xs = xs[:limit]
	}
	return strings.Join(xs, ", ")
}

func pct(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

// thousands formats an int with comma separators.
func thousands(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	return s + "," + strings.Join(parts, ",")
}
