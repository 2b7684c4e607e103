package schema

// Network status values
const (
	NetworkINN = "INN"
	NetworkOON = "OON"
)

var (
	PayerProducts    = []string{"Commercial", "Medicare", "Medicaid", "Exchange"}
	PlanTypes        = []string{"HMO", "PPO", "POS", "EPO"}
	LinesOfBusiness  = []string{"Group", "Individual", "Medicare", "Medicaid"}
	ClaimTypes       = []string{"Professional", "Institutional", "Pharmacy"}
	NetworkStatuses  = []string{NetworkINN, NetworkOON}
	Regions          = []string{"Northeast", "Southeast", "Midwest", "West"}

	DenialReasons = []string{
		"medical_necessity",
		"not_covered",
		"authorization_missing",
		"coding_error",
		"duplicate",
		"untimely_filing",
	}

	StatesByRegion = map[string][]string{
		"Northeast": {"PA", "NY", "NJ", "CT", "MA"},
		"Southeast": {"FL", "GA", "NC", "VA", "SC"},
		"Midwest":   {"OH", "IL", "MI", "IN", "WI"},
		"West":      {"CA", "WA", "OR", "CO", "AZ"},
	}

	Specialties = []string{
		"Internal Medicine",
		"Family Practice",
		"Orthopedics",
		"Cardiology",
		"Radiology",
		"General Surgery",
		"Emergency Medicine",
		"Neurology",
		"Pulmonology",
		"DME Supplier",
		"Oncology",
		"Dermatology",
		"Psychiatry",
		"Pediatrics",
		"OB/GYN",
	}

	// CMS place-of-service codes used by the generator.
	PlaceOfServiceCodes = []string{"11", "21", "22", "23", "31", "12", "81", "99"}
)

// ValidValue reports whether v is a member of the given enum slice.
func ValidValue(v string, valid []string) bool {
	for _, x := range valid {
		if v == x {
			return true
		}
	}
	return false
}
