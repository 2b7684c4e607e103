package detect

import (
	"fmt"
	"math"

	"umclaims/internal/features"
	"umclaims/pkg/config"
	"umclaims/pkg/stats"
)

// RunAll executes every detection rule and returns the combined flags
// sorted by severity. Rules guard their own degenerate inputs (zero
// variance, empty populations) by returning no flags, so no single rule
// can abort the others.
func RunAll(providers []features.ProviderFeatures, cfg config.DetectionConfig) []Flag {
	var all []Flag
	all = append(all, DetectHighVolumeProviders(providers, cfg)...)
	all = append(all, DetectHighCostProviders(providers, cfg)...)
	all = append(all, DetectNewEntityHighVolume(providers, cfg)...)
	all = append(all, DetectOONDMEClusters(providers, cfg)...)
	all = append(all, DetectBillingRatioOutliers(providers, cfg)...)
	sortBySeverity(all)
	return all
}

// DetectHighVolumeProviders flags providers whose claim volume exceeds
// mean + z*std of the provider population.
func DetectHighVolumeProviders(providers []features.ProviderFeatures, cfg config.DetectionConfig) []Flag {
	if len(providers) < 2 {
		return nil
	}
	vols := make([]float64, len(providers))
	for i, p := range providers {
		vols[i] = float64(p.TotalClaims)
	}
	mean := stats.Mean(vols)
	std := stats.StdDev(vols)
	if std == 0 {
		return nil
	}

	threshold := mean + cfg.ZScoreThreshold*std
	var flags []Flag
	for _, p := range providers {
		if float64(p.TotalClaims) <= threshold {
			continue
		}
		zscore := (float64(p.TotalClaims) - mean) / std
		severity := SeverityMedium
		if zscore > 3 {
			severity = SeverityHigh
		}
		flags = append(flags, Flag{
			RuleName:   "high_volume_provider",
			EntityType: EntityProvider,
			EntityID:   p.ProviderID,
			Severity:   severity,
			FeatureValues: map[string]any{
				"total_claims": p.TotalClaims,
				"peer_mean":    stats.Round(mean, 1),
				"peer_std":     stats.Round(std, 1),
				"z_score":      stats.Round(zscore, 2),
			},
			Threshold:   stats.Round(threshold, 1),
			ActualValue: float64(p.TotalClaims),
			Description: fmt.Sprintf(
				"Provider %s has %d claims (z-score=%.2f, threshold=%.0f)",
				p.ProviderID, p.TotalClaims, zscore, threshold),
		})
	}
	return flags
}

// DetectHighCostProviders flags providers whose total allowed amount
// exceeds mean + z*std of the provider population.
func DetectHighCostProviders(providers []features.ProviderFeatures, cfg config.DetectionConfig) []Flag {
	if len(providers) < 2 {
		return nil
	}
	costs := make([]float64, len(providers))
	for i, p := range providers {
		costs[i] = p.TotalAllowed.InexactFloat64()
	}
	mean := stats.Mean(costs)
	std := stats.StdDev(costs)
	if std == 0 {
		return nil
	}

	threshold := mean + cfg.ZScoreThreshold*std
	var flags []Flag
	for i, p := range providers {
		if costs[i] <= threshold {
			continue
		}
		zscore := (costs[i] - mean) / std
		severity := SeverityMedium
		if zscore > 3 {
			severity = SeverityHigh
		}
		flags = append(flags, Flag{
			RuleName:   "high_cost_provider",
			EntityType: EntityProvider,
			EntityID:   p.ProviderID,
			Severity:   severity,
			FeatureValues: map[string]any{
				"total_allowed": stats.Round(costs[i], 2),
				"peer_mean":     stats.Round(mean, 2),
				"peer_std":      stats.Round(std, 2),
				"z_score":       stats.Round(zscore, 2),
			},
			Threshold:   stats.Round(threshold, 2),
			ActualValue: stats.Round(costs[i], 2),
			Description: fmt.Sprintf(
				"Provider %s has $%.2f total allowed (z-score=%.2f, threshold=$%.0f)",
				p.ProviderID, costs[i], zscore, threshold),
		})
	}
	return flags
}

// DetectNewEntityHighVolume flags providers younger than the new-entity
// window whose volume exceeds the configured percentile of established
// providers' volumes.
func DetectNewEntityHighVolume(providers []features.ProviderFeatures, cfg config.DetectionConfig) []Flag {
	var newEntities []features.ProviderFeatures
	var establishedVols []float64
	for _, p := range providers {
		if p.EntityAgeDays < cfg.NewEntityDays {
			newEntities = append(newEntities, p)
		} else {
			establishedVols = append(establishedVols, float64(p.TotalClaims))
		}
	}
	if len(newEntities) == 0 || len(establishedVols) == 0 {
		return nil
	}

	volumeThreshold := stats.Quantile(establishedVols, cfg.NewEntityVolumePercentile)
	if math.IsNaN(volumeThreshold) {
		return nil
	}

	var flags []Flag
	for _, p := range newEntities {
		if float64(p.TotalClaims) <= volumeThreshold {
			continue
		}
		flags = append(flags, Flag{
			RuleName:   "new_entity_high_volume",
			EntityType: EntityProvider,
			EntityID:   p.ProviderID,
			Severity:   SeverityHigh,
			FeatureValues: map[string]any{
				"total_claims":    p.TotalClaims,
				"entity_age_days": p.EntityAgeDays,
				"specialty":       p.Specialty,
			},
			Threshold:   volumeThreshold,
			ActualValue: float64(p.TotalClaims),
			Description: fmt.Sprintf(
				"New provider %s (age=%dd) has %d claims, exceeding the %.0fth percentile of established providers (%.0f)",
				p.ProviderID, p.EntityAgeDays, p.TotalClaims,
				cfg.NewEntityVolumePercentile*100, volumeThreshold),
		})
	}
	return flags
}

// DetectOONDMEClusters flags DME suppliers combining a high out-of-network
// rate, concentrated procedure codes, and at-or-above-median volume.
func DetectOONDMEClusters(providers []features.ProviderFeatures, cfg config.DetectionConfig) []Flag {
	var dme []features.ProviderFeatures
	var dmeVols []float64
	for _, p := range providers {
		if p.DMERate > 0.5 {
			dme = append(dme, p)
			dmeVols = append(dmeVols, float64(p.TotalClaims))
		}
	}
	if len(dme) == 0 {
		return nil
	}
	volumeMedian := stats.Median(dmeVols)
	if math.IsNaN(volumeMedian) {
		return nil
	}

	var flags []Flag
	for _, p := range dme {
		if p.OONRate <= cfg.OONRateThreshold ||
			p.UniqueProcedureCodes > 3 ||
			float64(p.TotalClaims) < volumeMedian {
			continue
		}
		flags = append(flags, Flag{
			RuleName:   "oon_dme_cluster",
			EntityType: EntitySupplier,
			EntityID:   p.ProviderID,
			Severity:   SeverityHigh,
			FeatureValues: map[string]any{
				"oon_rate":               stats.Round(p.OONRate, 3),
				"dme_rate":               stats.Round(p.DMERate, 3),
				"unique_procedure_codes": p.UniqueProcedureCodes,
				"total_claims":           p.TotalClaims,
				"total_allowed":          stats.Round(p.TotalAllowed.InexactFloat64(), 2),
				"entity_age_days":        p.EntityAgeDays,
				"geography_state":        p.GeographyState,
			},
			Threshold:   cfg.OONRateThreshold,
			ActualValue: stats.Round(p.OONRate, 3),
			Description: fmt.Sprintf(
				"DME supplier %s has %.0f%% OON rate, %d claims, only %d unique codes. Possible OON DME billing scheme.",
				p.ProviderID, p.OONRate*100, p.TotalClaims, p.UniqueProcedureCodes),
		})
	}
	return flags
}

// DetectBillingRatioOutliers flags providers whose billed/allowed ratio
// exceeds a multiple of the peer median. Providers without a finite ratio
// (zero allowed) are excluded from both the population and the test.
func DetectBillingRatioOutliers(providers []features.ProviderFeatures, cfg config.DetectionConfig) []Flag {
	var valid []features.ProviderFeatures
	var ratios []float64
	for _, p := range providers {
		if math.IsNaN(p.BilledToAllowedRatio) || math.IsInf(p.BilledToAllowedRatio, 0) {
			continue
		}
		valid = append(valid, p)
		ratios = append(ratios, p.BilledToAllowedRatio)
	}
	if len(valid) == 0 {
		return nil
	}

	peerMedian := stats.Median(ratios)
	if math.IsNaN(peerMedian) || peerMedian == 0 {
		return nil
	}

	threshold := peerMedian * cfg.BillingRatioMultiplier
	var flags []Flag
	for _, p := range valid {
		if p.BilledToAllowedRatio <= threshold {
			continue
		}
		flags = append(flags, Flag{
			RuleName:   "billing_ratio_outlier",
			EntityType: EntityProvider,
			EntityID:   p.ProviderID,
			Severity:   SeverityMedium,
			FeatureValues: map[string]any{
				"billed_to_allowed_ratio": stats.Round(p.BilledToAllowedRatio, 3),
				"peer_median_ratio":       stats.Round(peerMedian, 3),
				"total_claims":            p.TotalClaims,
			},
			Threshold:   stats.Round(threshold, 3),
			ActualValue: stats.Round(p.BilledToAllowedRatio, 3),
			Description: fmt.Sprintf(
				"Provider %s has a billed/allowed ratio of %.2f vs peer median of %.2f (threshold=%.2f)",
				p.ProviderID, p.BilledToAllowedRatio, peerMedian, threshold),
		})
	}
	return flags
}
