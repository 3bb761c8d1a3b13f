package plans

import "strings"

const (
	TierNone         = "none"
	TierEssential    = "essential"
	TierProfessional = "professional"
	TierAdvanced     = "advanced"
)

// PlanTier returns the effective tier for a plan: the stored tier when it is
// one we know, otherwise a guess from the price.
func PlanTier(p *Plan) string {
	if p == nil {
		return TierNone
	}

	tier := strings.ToLower(strings.TrimSpace(p.Tier))
	switch tier {
	case TierEssential, TierProfessional, TierAdvanced:
		return tier
	}

	return inferTierFromPrice(p.PriceEUR)
}

// inferTierFromPrice covers plans synced before tier metadata existed.
func inferTierFromPrice(priceEUR float64) string {
	switch {
	case priceEUR >= 40:
		return TierAdvanced
	case priceEUR >= 20:
		return TierProfessional
	default:
		return TierEssential
	}
}
