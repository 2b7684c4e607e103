package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"umclaims/pkg/schema"
)

func imagingRule() Rule {
	return Rule{
		PolicyID:             "POL-IMG",
		CoveredCPTCodes:      []string{"CPT-70100", "CPT-70101"},
		SiteOfService:        "Professional",
		DiagnosisConstraints: []string{"DX-1000", "DX-2000"},
	}
}

func TestScoreClaimFullMatch(t *testing.T) {
	c := schema.Claim{
		ProcedureCode:  "CPT-70100",
		ClaimType:      "Professional",
		DiagnosisCodes: []string{"DX-2000", "DX-9999"},
	}
	assert.Equal(t, 1.0, ScoreClaim(c, imagingRule()))
}

func TestScoreClaimPartialMatches(t *testing.T) {
	r := imagingRule()

	procedureOnly := schema.Claim{ProcedureCode: "CPT-70100", ClaimType: "Institutional"}
	assert.InDelta(t, 0.6, ScoreClaim(procedureOnly, r), 1e-9)

	siteOnly := schema.Claim{ProcedureCode: "CPT-99213", ClaimType: "Professional"}
	assert.InDelta(t, 0.2, ScoreClaim(siteOnly, r), 1e-9)

	dxOnly := schema.Claim{ProcedureCode: "CPT-99213", DiagnosisCodes: []string{"DX-1000"}}
	assert.InDelta(t, 0.2, ScoreClaim(dxOnly, r), 1e-9)

	noMatch := schema.Claim{ProcedureCode: "CPT-99213", ClaimType: "Pharmacy"}
	assert.Equal(t, 0.0, ScoreClaim(noMatch, r))
}

func TestScoreClaimEmptyCriteriaNeverContribute(t *testing.T) {
	empty := Rule{PolicyID: "POL-EMPTY"}
	c := schema.Claim{
		ProcedureCode:  "CPT-70100",
		ClaimType:      "Professional",
		DiagnosisCodes: []string{"DX-1000"},
	}
	assert.Equal(t, 0.0, ScoreClaim(c, empty))
}

func TestMatchClaimsBestScoreWins(t *testing.T) {
	broad := Rule{PolicyID: "POL-BROAD", CoveredCPTCodes: []string{"CPT-70100"}}
	specific := imagingRule()

	claims := []schema.Claim{{
		ClaimID:        "CLM-1",
		ProcedureCode:  "CPT-70100",
		ClaimType:      "Professional",
		DiagnosisCodes: []string{"DX-1000"},
	}}

	matches := MatchClaims(claims, []Rule{broad, specific})
	require.Len(t, matches, 1)
	assert.Equal(t, "POL-IMG", matches[0].PolicyID)
	assert.Equal(t, 1.0, matches[0].Confidence)
}

func TestMatchClaimsTieKeepsFirstRule(t *testing.T) {
	first := Rule{PolicyID: "POL-A", CoveredCPTCodes: []string{"CPT-70100"}}
	second := Rule{PolicyID: "POL-B", CoveredCPTCodes: []string{"CPT-70100"}}

	claims := []schema.Claim{{ClaimID: "CLM-1", ProcedureCode: "CPT-70100"}}
	matches := MatchClaims(claims, []Rule{first, second})
	require.Len(t, matches, 1)
	assert.Equal(t, "POL-A", matches[0].PolicyID)
}

func TestMatchClaimsZeroScoreIsUnmatched(t *testing.T) {
	claims := []schema.Claim{{ClaimID: "CLM-1", ProcedureCode: "RX-01000"}}
	matches := MatchClaims(claims, []Rule{imagingRule()})
	require.Len(t, matches, 1)
	assert.Equal(t, Unmatched, matches[0].PolicyID)
	assert.Equal(t, 0.0, matches[0].Confidence)
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	raw := `[
		{"policy_id": "POL-1", "covered_cpt_codes": ["CPT-70100"],
		 "site_of_service": "Professional", "diagnosis_constraints": ["DX-1"]},
		{"policy_id": "POL-2", "covered_cpt_codes": []}
	]`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "POL-1", rules[0].PolicyID)
	assert.Equal(t, []string{"CPT-70100"}, rules[0].CoveredCPTCodes)

	_, err = LoadRules(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
