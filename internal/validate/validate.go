// Package validate is the schema gate for claims data: critical rules fail
// the pipeline, advisory rules only warn.
package validate

import (
	"fmt"

	"umclaims/pkg/schema"
)

// Issue levels
const (
	LevelCritical = "critical"
	LevelAdvisory = "advisory"
)

// Issue is a single validation finding.
type Issue struct {
	Level        string   `json:"level"`
	Rule         string   `json:"rule"`
	Message      string   `json:"message"`
	AffectedRows int      `json:"affected_rows"`
	Examples     []string `json:"examples,omitempty"`
}

// Result is the outcome of validating a claim set.
type Result struct {
	Passed         bool    `json:"passed"`
	TotalRows      int     `json:"total_rows"`
	CriticalIssues []Issue `json:"critical_issues"`
	AdvisoryIssues []Issue `json:"advisory_issues"`
}

// Claims validates the claim set against schema and business rules.
func Claims(claims []schema.Claim) Result {
	r := Result{
		TotalRows:      len(claims),
		CriticalIssues: []Issue{},
		AdvisoryIssues: []Issue{},
	}

	r.checkRequiredFields(claims)
	r.checkAmounts(claims)
	r.checkEnums(claims)
	r.checkDenialReasons(claims)
	r.checkDateOrdering(claims)
	r.checkVariance(claims)
	r.checkNullRates(claims)

	r.Passed = len(r.CriticalIssues) == 0
	return r
}

func (r *Result) critical(rule, message string, affected int, examples ...string) {
	r.CriticalIssues = append(r.CriticalIssues, Issue{
		Level: LevelCritical, Rule: rule, Message: message,
		AffectedRows: affected, Examples: examples,
	})
}

func (r *Result) advisory(rule, message string, affected int) {
	r.AdvisoryIssues = append(r.AdvisoryIssues, Issue{
		Level: LevelAdvisory, Rule: rule, Message: message, AffectedRows: affected,
	})
}

var requiredFields = []struct {
	name  string
	value func(schema.Claim) string
}{
	{"claim_id", func(c schema.Claim) string { return c.ClaimID }},
	{"member_id", func(c schema.Claim) string { return c.MemberID }},
	{"provider_id", func(c schema.Claim) string { return c.ProviderID }},
	{"procedure_code", func(c schema.Claim) string { return c.ProcedureCode }},
	{"network_status", func(c schema.Claim) string { return c.NetworkStatus }},
	{"claim_type", func(c schema.Claim) string { return c.ClaimType }},
	{"specialty", func(c schema.Claim) string { return c.Specialty }},
}

func (r *Result) checkRequiredFields(claims []schema.Claim) {
	for _, f := range requiredFields {
		missing := 0
		for _, c := range claims {
			if f.value(c) == "" {
				missing++
			}
		}
		if missing > 0 {
			r.critical("not_null", fmt.Sprintf("Field '%s' is empty in %d rows", f.name, missing), missing)
		}
	}
	noDx := 0
	for _, c := range claims {
		if len(c.DiagnosisCodes) == 0 {
			noDx++
		}
	}
	if noDx > 0 {
		r.critical("not_null", fmt.Sprintf("Field 'diagnosis_codes' is empty in %d rows", noDx), noDx)
	}
}

func (r *Result) checkAmounts(claims []schema.Claim) {
	negBilled, negAllowed, negPaid, badUnits := 0, 0, 0, 0
	for _, c := range claims {
		if c.BilledAmount.IsNegative() {
			negBilled++
		}
		if c.AllowedAmount.IsNegative() {
			negAllowed++
		}
		if c.PaidAmount.IsNegative() {
			negPaid++
		}
		if c.Units < 1 {
			badUnits++
		}
	}
	if negBilled > 0 {
		r.critical("non_negative_amount", fmt.Sprintf("billed_amount has %d negative values", negBilled), negBilled)
	}
	if negAllowed > 0 {
		r.critical("non_negative_amount", fmt.Sprintf("allowed_amount has %d negative values", negAllowed), negAllowed)
	}
	if negPaid > 0 {
		r.critical("non_negative_amount", fmt.Sprintf("paid_amount has %d negative values", negPaid), negPaid)
	}
	if badUnits > 0 {
		r.critical("positive_units", fmt.Sprintf("units has %d values < 1", badUnits), badUnits)
	}
}

func (r *Result) checkEnums(claims []schema.Claim) {
	checks := []struct {
		field string
		value func(schema.Claim) string
		valid []string
	}{
		{"payer_product", func(c schema.Claim) string { return c.PayerProduct }, schema.PayerProducts},
		{"plan_type", func(c schema.Claim) string { return c.PlanType }, schema.PlanTypes},
		{"line_of_business", func(c schema.Claim) string { return c.LineOfBusiness }, schema.LinesOfBusiness},
		{"claim_type", func(c schema.Claim) string { return c.ClaimType }, schema.ClaimTypes},
		{"network_status", func(c schema.Claim) string { return c.NetworkStatus }, schema.NetworkStatuses},
		{"geography_region", func(c schema.Claim) string { return c.GeographyRegion }, schema.Regions},
	}
	for _, chk := range checks {
		invalid := 0
		seen := map[string]struct{}{}
		var examples []string
		for _, c := range claims {
			v := chk.value(c)
			if v == "" || schema.ValidValue(v, chk.valid) {
				continue
			}
			invalid++
			if _, ok := seen[v]; !ok && len(examples) < 5 {
				seen[v] = struct{}{}
				examples = append(examples, v)
			}
		}
		if invalid > 0 {
			r.critical("enum_values",
				fmt.Sprintf("Field '%s' has %d rows with invalid values", chk.field, invalid),
				invalid, examples...)
		}
	}
}

func (r *Result) checkDenialReasons(claims []schema.Claim) {
	noReason, badReason := 0, 0
	for _, c := range claims {
		if c.DenialFlag && c.DenialReasonCategory == "" {
			noReason++
		}
		if c.DenialReasonCategory != "" && !schema.ValidValue(c.DenialReasonCategory, schema.DenialReasons) {
			badReason++
		}
	}
	if noReason > 0 {
		r.critical("denial_reason_required",
			fmt.Sprintf("%d claims are denied but carry no denial_reason_category", noReason), noReason)
	}
	if badReason > 0 {
		r.critical("denial_reason_enum",
			fmt.Sprintf("%d claims have an invalid denial_reason_category", badReason), badReason)
	}
}

func (r *Result) checkDateOrdering(claims []schema.Claim) {
	bad := 0
	for _, c := range claims {
		if c.ClaimReceivedDate.Before(c.ServiceDate) {
			bad++
		}
	}
	if bad > 0 {
		r.critical("date_ordering",
			fmt.Sprintf("%d claims have claim_received_date before service_date", bad), bad)
	}
}

// nullRateThreshold is the empty-rate above which an optional field is
// suspicious.
const nullRateThreshold = 0.5

// checkNullRates warns when optional fields are empty in most rows.
func (r *Result) checkNullRates(claims []schema.Claim) {
	if len(claims) == 0 {
		return
	}
	optional := []struct {
		name  string
		value func(schema.Claim) string
	}{
		{"facility_id", func(c schema.Claim) string { return c.FacilityID }},
		{"place_of_service", func(c schema.Claim) string { return c.PlaceOfService }},
		{"geography_state", func(c schema.Claim) string { return c.GeographyState }},
	}
	for _, f := range optional {
		empty := 0
		for _, c := range claims {
			if f.value(c) == "" {
				empty++
			}
		}
		rate := float64(empty) / float64(len(claims))
		if rate > nullRateThreshold {
			r.advisory("high_null_rate",
				fmt.Sprintf("Field '%s' is empty in %.0f%% of rows", f.name, rate*100), empty)
		}
	}
}

// checkVariance warns on amount columns with zero spread, which real
// claims data never has.
func (r *Result) checkVariance(claims []schema.Claim) {
	if len(claims) < 2 {
		return
	}
	for _, col := range []struct {
		name  string
		value func(schema.Claim) string
	}{
		{"billed_amount", func(c schema.Claim) string { return c.BilledAmount.String() }},
		{"allowed_amount", func(c schema.Claim) string { return c.AllowedAmount.String() }},
		{"paid_amount", func(c schema.Claim) string { return c.PaidAmount.String() }},
	} {
		first := col.value(claims[0])
		uniform := true
		for _, c := range claims[1:] {
			if col.value(c) != first {
				uniform = false
				break
			}
		}
		if uniform {
			r.advisory("zero_variance",
				fmt.Sprintf("Field '%s' has zero variance, suspicious for real data", col.name),
				len(claims))
		}
	}
}
