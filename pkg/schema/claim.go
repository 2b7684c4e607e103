// Package schema defines the canonical UM claims data model: the claim
// record, enum value sets, and the procedure-code lookup tables shared by
// every pipeline stage.
package schema

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Claim is one billed healthcare transaction in the canonical schema.
// Optional fields use the zero value ("" / nil) for absent data.
type Claim struct {
	ClaimID    string `json:"claim_id"`
	MemberID   string `json:"member_id"`
	ProviderID string `json:"provider_id"`
	FacilityID string `json:"facility_id,omitempty"`

	PayerProduct   string `json:"payer_product"`
	PlanType       string `json:"plan_type"`
	LineOfBusiness string `json:"line_of_business"`
	ClaimType      string `json:"claim_type"`
	PlaceOfService string `json:"place_of_service"`

	ServiceDate       time.Time  `json:"service_date"`
	ClaimReceivedDate time.Time  `json:"claim_received_date"`
	PaidDate          *time.Time `json:"paid_date,omitempty"`

	DiagnosisCodes []string `json:"diagnosis_codes"`
	ProcedureCode  string   `json:"procedure_code"`
	RevenueCode    string   `json:"revenue_code,omitempty"`

	BilledAmount  decimal.Decimal `json:"billed_amount"`
	AllowedAmount decimal.Decimal `json:"allowed_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	Units         int             `json:"units"`

	NetworkStatus         string `json:"network_status"`
	AuthorizationRequired bool   `json:"authorization_required"`
	AuthorizationID       string `json:"authorization_id,omitempty"`

	DenialFlag           bool   `json:"denial_flag"`
	DenialReasonCategory string `json:"denial_reason_category,omitempty"`
	AppealFlag           bool   `json:"appeal_flag"`
	GrievanceFlag        bool   `json:"grievance_flag"`

	DMEFlag      bool   `json:"dme_flag"`
	SupplierType string `json:"supplier_type,omitempty"`

	RenderingNPI string `json:"rendering_npi"`
	BillingNPI   string `json:"billing_npi"`

	GeographyState  string `json:"geography_state"`
	GeographyRegion string `json:"geography_region"`
	Specialty       string `json:"specialty"`
}

// IsOON reports whether the claim was billed out-of-network.
func (c Claim) IsOON() bool { return c.NetworkStatus == NetworkOON }

// servicePrefix maps a procedure-code prefix to a service category.
// Order matters: the first matching prefix wins.
type servicePrefix struct {
	Prefix   string
	Category string
}

var serviceCategories = []servicePrefix{
	{"HCPCS-E", "DME"},
	{"HCPCS-K", "DME"},
	{"CPT-7", "Imaging"},
	{"CPT-99", "E&M"},
	{"CPT-2", "Surgical"},
	{"CPT-3", "Surgical"},
	{"CPT-4", "Surgical"},
	{"CPT-5", "Surgical"},
	{"CPT-6", "Surgical"},
}

// ServiceCategory maps a procedure code to its service category using
// prefix matching in table order. Codes with no matching prefix map to
// "Other".
func ServiceCategory(procedureCode string) string {
	for _, sc := range serviceCategories {
		if strings.HasPrefix(procedureCode, sc.Prefix) {
			return sc.Category
		}
	}
	return "Other"
}
