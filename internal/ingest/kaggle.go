package ingest

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	umerrors "umclaims/pkg/errors"
	"umclaims/pkg/schema"
)

// kaggleColumns are the columns required from the Kaggle Enhanced Health
// Insurance Claims CSV.
var kaggleColumns = []string{
	"ClaimID", "PatientID", "ProviderID", "ClaimAmount", "ClaimDate",
	"DiagnosisCode", "ProcedureCode", "ProviderSpecialty", "ClaimType", "ClaimStatus",
}

// LoadKaggleClaims reads the Kaggle claims CSV and adapts each row to the
// canonical schema. Fields the dataset lacks get fixed defaults; allowed
// and paid amounts are derived from the billed amount.
func LoadKaggleClaims(path string) ([]schema.Claim, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &umerrors.PipelineError{
				Code:     umerrors.ErrCodeArtifactNotFound,
				Message:  fmt.Sprintf("Kaggle CSV not found: %s", path),
				Severity: umerrors.SeverityError,
				Stage:    "ingest-kaggle",
			}
		}
		return nil, fmt.Errorf("open kaggle csv %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, &umerrors.PipelineError{
			Code:     umerrors.ErrCodeIngestFailed,
			Message:  fmt.Sprintf("Failed to read Kaggle CSV %s: %v", path, err),
			Severity: umerrors.SeverityError,
			Stage:    "ingest-kaggle",
		}
	}
	if len(rows) < 2 {
		return nil, umerrors.NewEmptyDatasetError("ingest-kaggle")
	}

	idx := map[string]int{}
	for i, col := range rows[0] {
		idx[strings.TrimSpace(col)] = i
	}
	for _, col := range kaggleColumns {
		if _, ok := idx[col]; !ok {
			return nil, umerrors.NewMissingColumnError(col, "ingest-kaggle")
		}
	}

	claims := make([]schema.Claim, 0, len(rows)-1)
	for rowNum, row := range rows[1:] {
		c, err := adaptKaggleRow(row, idx)
		if err != nil {
			return nil, fmt.Errorf("parse kaggle row %d: %w", rowNum+2, err)
		}
		claims = append(claims, c)
	}

	slog.Info("kaggle claims adapted", "path", path, "rows", len(claims))
	return claims, nil
}

func adaptKaggleRow(row []string, idx map[string]int) (schema.Claim, error) {
	get := func(col string) string { return strings.TrimSpace(row[idx[col]]) }

	billed, err := decimal.NewFromString(get("ClaimAmount"))
	if err != nil {
		return schema.Claim{}, fmt.Errorf("ClaimAmount: %w", err)
	}
	serviceDate, err := time.Parse(schema.DateLayout, get("ClaimDate"))
	if err != nil {
		return schema.Claim{}, fmt.Errorf("ClaimDate: %w", err)
	}

	status := strings.ToLower(get("ClaimStatus"))
	denied := status == "denied" || status == "rejected"

	c := schema.Claim{
		ClaimID:           get("ClaimID"),
		MemberID:          get("PatientID"),
		ProviderID:        get("ProviderID"),
		PayerProduct:      "Commercial",
		PlanType:          "PPO",
		LineOfBusiness:    "Group",
		ServiceDate:       serviceDate,
		ClaimReceivedDate: serviceDate,
		ClaimType:         mapKaggleClaimType(get("ClaimType")),
		PlaceOfService:    "11",
		ProcedureCode:     get("ProcedureCode"),
		BilledAmount:      billed,
		AllowedAmount:     billed.Mul(decimal.NewFromFloat(0.8)).Round(2),
		Units:             1,
		NetworkStatus:     schema.NetworkINN,
		DenialFlag:        denied,
		RenderingNPI:      get("ProviderID"),
		BillingNPI:        get("ProviderID"),
		GeographyState:    "PA",
		GeographyRegion:   "Northeast",
		Specialty:         get("ProviderSpecialty"),
	}

	if dx := get("DiagnosisCode"); dx != "" {
		c.DiagnosisCodes = []string{dx}
	} else {
		c.DiagnosisCodes = []string{"UNKNOWN"}
	}

	if denied {
		c.DenialReasonCategory = "medical_necessity"
		c.PaidAmount = decimal.Zero
	} else {
		c.PaidAmount = billed.Mul(decimal.NewFromFloat(0.7)).Round(2)
		pd := serviceDate.AddDate(0, 0, 30)
		c.PaidDate = &pd
	}

	return c, nil
}

func mapKaggleClaimType(raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "pharm"):
		return "Pharmacy"
	case strings.Contains(lower, "inst"):
		return "Institutional"
	default:
		return "Professional"
	}
}
