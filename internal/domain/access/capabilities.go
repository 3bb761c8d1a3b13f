package access

import (
	"kaleidorium/internal/domain/plans"
)

func CapabilitiesFor(state AccessState, plan *plans.Plan) []string {
	switch state {
	case AccessLocked:
		return []string{}
	case AccessLimited:
		return []string{CapUpload, CapPublish}
	case AccessFounding, AccessTrial:
		return []string{CapUpload, CapPublish, CapAITags, CapInsights}
	}

	if plans.PlanTier(plan) == plans.TierAdvanced {
		return []string{CapUpload, CapPublish, CapAITags, CapInsights, CapFeatured}
	}
	return []string{CapUpload, CapPublish, CapAITags, CapInsights}
}

// Limits applies to accounts without an active listing plan.
type Limits struct {
	MaxPublished int `json:"max_published"`
}

func LimitsFor(state AccessState) *Limits {
	if state != AccessLimited {
		return nil
	}
	return &Limits{MaxPublished: 3}
}
