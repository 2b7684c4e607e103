// Package detect implements the rule-based anomaly detection engine: five
// independent statistical rules over provider features, each producing flags
// that are self-explanatory without recomputation.
package detect

import "sort"

// Severity levels, ordered high > medium > low.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Entity types a flag can point at.
const (
	EntityProvider = "provider"
	EntitySupplier = "supplier"
	EntityService  = "service"
)

// Flag is an explainable detection result. FeatureValues embeds the exact
// statistics the rule used, so a reviewer can verify the decision from the
// flag alone.
type Flag struct {
	RuleName      string         `json:"rule_name"`
	EntityType    string         `json:"entity_type"`
	EntityID      string         `json:"entity_id"`
	Severity      string         `json:"severity"`
	FeatureValues map[string]any `json:"feature_values"`
	Threshold     float64        `json:"threshold"`
	ActualValue   float64        `json:"actual_value"`
	Description   string         `json:"description"`
}

var severityRank = map[string]int{
	SeverityHigh:   0,
	SeverityMedium: 1,
	SeverityLow:    2,
}

// sortBySeverity stable-sorts flags so all high entries precede medium,
// which precede low; ordering within a severity is preserved.
func sortBySeverity(flags []Flag) {
	sort.SliceStable(flags, func(i, j int) bool {
		return severityRank[flags[i].Severity] < severityRank[flags[j].Severity]
	})
}
