// Package policy scores claims against policy rule definitions and rolls
// matched claims up into per-policy KPIs, plus the policy-seed clustering
// used to bootstrap new policy definitions from observed claims.
package policy

import (
	"encoding/json"
	"fmt"
	"os"

	"umclaims/pkg/schema"
)

// Unmatched is the policy id assigned to claims no rule matched.
const Unmatched = "unmatched"

// Score weights. A claim matching every criterion scores exactly 1.0.
const (
	procedureWeight = 0.6
	siteWeight      = 0.2
	diagnosisWeight = 0.2
)

// Rule is one policy definition a claim can be matched against.
type Rule struct {
	PolicyID             string   `json:"policy_id"`
	CoveredCPTCodes      []string `json:"covered_cpt_codes"`
	SiteOfService        string   `json:"site_of_service"`
	DiagnosisConstraints []string `json:"diagnosis_constraints"`
}

// Match assigns a claim to its best-scoring policy.
type Match struct {
	ClaimID    string  `json:"claim_id"`
	PolicyID   string  `json:"policy_id"`
	Confidence float64 `json:"match_confidence"`
}

// LoadRules reads policy rule definitions from a JSON file.
func LoadRules(path string) ([]Rule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy rules %s: %w", path, err)
	}
	var rules []Rule
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("parse policy rules %s: %w", path, err)
	}
	return rules, nil
}

// ScoreClaim scores how well one claim matches one policy rule, in [0,1]:
// +0.6 for a covered procedure code, +0.2 for a claim-type /
// site-of-service match, +0.2 for a diagnosis-constraint intersection.
// Empty criterion sets never contribute.
func ScoreClaim(c schema.Claim, r Rule) float64 {
	score := 0.0

	if len(r.CoveredCPTCodes) > 0 && contains(r.CoveredCPTCodes, c.ProcedureCode) {
		score += procedureWeight
	}
	if r.SiteOfService != "" && c.ClaimType == r.SiteOfService {
		score += siteWeight
	}
	if len(r.DiagnosisConstraints) > 0 && intersects(r.DiagnosisConstraints, c.DiagnosisCodes) {
		score += diagnosisWeight
	}
	return score
}

// MatchClaims matches every claim to its best policy. Results are parallel
// to the input claims. A strictly higher score wins; ties keep the first
// policy in input order; a best score of zero yields Unmatched.
func MatchClaims(claims []schema.Claim, rules []Rule) []Match {
	matches := make([]Match, len(claims))
	for i, c := range claims {
		bestID := Unmatched
		bestScore := 0.0
		for _, r := range rules {
			if s := ScoreClaim(c, r); s > bestScore {
				bestScore = s
				bestID = r.PolicyID
			}
		}
		matches[i] = Match{ClaimID: c.ClaimID, PolicyID: bestID, Confidence: bestScore}
	}
	return matches
}

func contains(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, x := range a {
		set[x] = struct{}{}
	}
	for _, y := range b {
		if _, ok := set[y]; ok {
			return true
		}
	}
	return false
}
