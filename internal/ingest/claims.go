// Package ingest handles claims I/O: the canonical CSV format used between
// pipeline stages, JSON artifact output, and the Kaggle dataset adapter.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	umerrors "umclaims/pkg/errors"
	"umclaims/pkg/schema"
)

// claimColumns is the canonical CSV column order.
var claimColumns = []string{
	"claim_id", "member_id", "provider_id", "facility_id",
	"payer_product", "plan_type", "line_of_business",
	"service_date", "claim_received_date", "paid_date",
	"claim_type", "place_of_service", "diagnosis_codes",
	"procedure_code", "revenue_code",
	"billed_amount", "allowed_amount", "paid_amount", "units",
	"network_status", "authorization_required", "authorization_id",
	"denial_flag", "denial_reason_category",
	"appeal_flag", "grievance_flag", "dme_flag", "supplier_type",
	"rendering_npi", "billing_npi",
	"geography_state", "geography_region", "specialty",
}

// SaveClaims writes the claim set to a canonical CSV file, creating parent
// directories as needed. Dates use YYYY-MM-DD, flags serialize as Y/N, and
// diagnosis codes serialize as a JSON array.
func SaveClaims(claims []schema.Claim, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create claims file %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(claimColumns); err != nil {
		return fmt.Errorf("write claims header: %w", err)
	}
	for i := range claims {
		if err := w.Write(claimRecord(&claims[i])); err != nil {
			return fmt.Errorf("write claim row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush claims file %s: %w", path, err)
	}

	slog.Info("claims written", "path", path, "rows", len(claims))
	return nil
}

// LoadClaims reads a canonical claims CSV back into memory.
func LoadClaims(path string) ([]schema.Claim, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &umerrors.PipelineError{
				Code:     umerrors.ErrCodeArtifactNotFound,
				Message:  fmt.Sprintf("Claims file not found: %s", path),
				Severity: umerrors.SeverityError,
				Stage:    "ingest",
			}
		}
		return nil, fmt.Errorf("open claims file %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, &umerrors.PipelineError{
			Code:     umerrors.ErrCodeIngestFailed,
			Message:  fmt.Sprintf("Failed to read claims CSV %s: %v", path, err),
			Severity: umerrors.SeverityError,
			Stage:    "ingest",
		}
	}
	if len(rows) == 0 {
		return nil, umerrors.NewEmptyDatasetError("ingest")
	}

	idx := map[string]int{}
	for i, col := range rows[0] {
		idx[col] = i
	}
	for _, col := range claimColumns {
		if _, ok := idx[col]; !ok {
			return nil, umerrors.NewMissingColumnError(col, "ingest")
		}
	}

	claims := make([]schema.Claim, 0, len(rows)-1)
	for rowNum, row := range rows[1:] {
		c, err := parseClaimRecord(row, idx)
		if err != nil {
			return nil, fmt.Errorf("parse claims row %d: %w", rowNum+2, err)
		}
		claims = append(claims, c)
	}

	slog.Info("claims loaded", "path", path, "rows", len(claims))
	return claims, nil
}

func claimRecord(c *schema.Claim) []string {
	dx, _ := json.Marshal(c.DiagnosisCodes)
	paidDate := ""
	if c.PaidDate != nil {
		paidDate = c.PaidDate.Format(schema.DateLayout)
	}
	return []string{
		c.ClaimID, c.MemberID, c.ProviderID, c.FacilityID,
		c.PayerProduct, c.PlanType, c.LineOfBusiness,
		c.ServiceDate.Format(schema.DateLayout),
		c.ClaimReceivedDate.Format(schema.DateLayout),
		paidDate,
		c.ClaimType, c.PlaceOfService, string(dx),
		c.ProcedureCode, c.RevenueCode,
		c.BilledAmount.String(), c.AllowedAmount.String(), c.PaidAmount.String(),
		strconv.Itoa(c.Units),
		c.NetworkStatus, flag(c.AuthorizationRequired), c.AuthorizationID,
		flag(c.DenialFlag), c.DenialReasonCategory,
		flag(c.AppealFlag), flag(c.GrievanceFlag), flag(c.DMEFlag), c.SupplierType,
		c.RenderingNPI, c.BillingNPI,
		c.GeographyState, c.GeographyRegion, c.Specialty,
	}
}

func parseClaimRecord(row []string, idx map[string]int) (schema.Claim, error) {
	get := func(col string) string { return row[idx[col]] }

	c := schema.Claim{
		ClaimID:              get("claim_id"),
		MemberID:             get("member_id"),
		ProviderID:           get("provider_id"),
		FacilityID:           get("facility_id"),
		PayerProduct:         get("payer_product"),
		PlanType:             get("plan_type"),
		LineOfBusiness:       get("line_of_business"),
		ClaimType:            get("claim_type"),
		PlaceOfService:       get("place_of_service"),
		ProcedureCode:        get("procedure_code"),
		RevenueCode:          get("revenue_code"),
		NetworkStatus:        get("network_status"),
		AuthorizationID:      get("authorization_id"),
		DenialReasonCategory: get("denial_reason_category"),
		SupplierType:         get("supplier_type"),
		RenderingNPI:         get("rendering_npi"),
		BillingNPI:           get("billing_npi"),
		GeographyState:       get("geography_state"),
		GeographyRegion:      get("geography_region"),
		Specialty:            get("specialty"),

		AuthorizationRequired: get("authorization_required") == "Y",
		DenialFlag:            get("denial_flag") == "Y",
		AppealFlag:            get("appeal_flag") == "Y",
		GrievanceFlag:         get("grievance_flag") == "Y",
		DMEFlag:               get("dme_flag") == "Y",
	}

	var err error
	if c.ServiceDate, err = time.Parse(schema.DateLayout, get("service_date")); err != nil {
		return c, fmt.Errorf("service_date: %w", err)
	}
	if c.ClaimReceivedDate, err = time.Parse(schema.DateLayout, get("claim_received_date")); err != nil {
		return c, fmt.Errorf("claim_received_date: %w", err)
	}
	if raw := get("paid_date"); raw != "" {
		pd, err := time.Parse(schema.DateLayout, raw)
		if err != nil {
			return c, fmt.Errorf("paid_date: %w", err)
		}
		c.PaidDate = &pd
	}

	if c.BilledAmount, err = decimal.NewFromString(get("billed_amount")); err != nil {
		return c, fmt.Errorf("billed_amount: %w", err)
	}
	if c.AllowedAmount, err = decimal.NewFromString(get("allowed_amount")); err != nil {
		return c, fmt.Errorf("allowed_amount: %w", err)
	}
	if c.PaidAmount, err = decimal.NewFromString(get("paid_amount")); err != nil {
		return c, fmt.Errorf("paid_amount: %w", err)
	}
	if c.Units, err = strconv.Atoi(get("units")); err != nil {
		return c, fmt.Errorf("units: %w", err)
	}

	if raw := get("diagnosis_codes"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &c.DiagnosisCodes); err != nil {
			return c, fmt.Errorf("diagnosis_codes: %w", err)
		}
	}

	return c, nil
}

func flag(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}
