package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	umerrors "umclaims/pkg/errors"
	"umclaims/pkg/schema"
)

const kaggleFixture = `ClaimID,PatientID,ProviderID,ClaimAmount,ClaimDate,DiagnosisCode,ProcedureCode,ProviderSpecialty,ClaimType,ClaimStatus
K-1,PAT-1,PRV-1,1000.00,2024-04-15,E11.9,CPT-99214,Internal Medicine,Outpatient,Approved
K-2,PAT-2,PRV-2,250.00,2024-05-01,,CPT-70553,Radiology,Institutional,Denied
K-3,PAT-3,PRV-3,80.00,2024-05-10,J45.909,NDC-001,Pharmacy,Pharmacy Claim,Rejected
`

func writeKaggleCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kaggle.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadKaggleClaimsAdaptsRows(t *testing.T) {
	claims, err := LoadKaggleClaims(writeKaggleCSV(t, kaggleFixture))
	require.NoError(t, err)
	require.Len(t, claims, 3)

	paid := claims[0]
	assert.Equal(t, "K-1", paid.ClaimID)
	assert.Equal(t, "PAT-1", paid.MemberID)
	assert.Equal(t, "Professional", paid.ClaimType)
	assert.False(t, paid.DenialFlag)
	assert.Equal(t, "1000", paid.BilledAmount.String())
	assert.Equal(t, "800", paid.AllowedAmount.String())
	assert.Equal(t, "700", paid.PaidAmount.String())
	require.NotNil(t, paid.PaidDate)
	assert.Equal(t, time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC), *paid.PaidDate)
	assert.Equal(t, []string{"E11.9"}, paid.DiagnosisCodes)
	assert.Equal(t, "PRV-1", paid.RenderingNPI)
	assert.Equal(t, schema.NetworkINN, paid.NetworkStatus)

	denied := claims[1]
	assert.True(t, denied.DenialFlag)
	assert.Equal(t, "medical_necessity", denied.DenialReasonCategory)
	assert.True(t, denied.PaidAmount.IsZero())
	assert.Nil(t, denied.PaidDate)
	assert.Equal(t, "Institutional", denied.ClaimType)
	assert.Equal(t, []string{"UNKNOWN"}, denied.DiagnosisCodes)

	rejected := claims[2]
	assert.True(t, rejected.DenialFlag)
	assert.Equal(t, "Pharmacy", rejected.ClaimType)
}

func TestLoadKaggleClaimsMissingColumn(t *testing.T) {
	path := writeKaggleCSV(t, "ClaimID,PatientID\nK-1,PAT-1\n")

	_, err := LoadKaggleClaims(path)
	require.Error(t, err)

	var perr *umerrors.PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, umerrors.ErrCodeMissingColumn, perr.Code)
}

func TestLoadKaggleClaimsEmptyDataset(t *testing.T) {
	path := writeKaggleCSV(t, "ClaimID,PatientID,ProviderID,ClaimAmount,ClaimDate,DiagnosisCode,ProcedureCode,ProviderSpecialty,ClaimType,ClaimStatus\n")

	_, err := LoadKaggleClaims(path)
	require.Error(t, err)

	var perr *umerrors.PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, umerrors.ErrCodeEmptyDataset, perr.Code)
}
