package users

import (
	"time"

	"kaleidorium/internal/domain/access"
	"kaleidorium/internal/domain/plans"
	"kaleidorium/internal/domain/users"
	"kaleidorium/internal/infra/stripe"
)

func BuildPlanDTO(p *plans.Plan) *PlanDTO {
	if p == nil {
		return nil
	}
	return &PlanDTO{
		ID:            p.ID,
		Key:           p.Name,
		Tier:          plans.PlanTier(p),
		Interval:      p.Interval,
		PriceEUR:      p.PriceEUR,
		StripePriceID: p.StripePriceID,
	}
}

func BuildSubscriptionDTO(u users.User) *SubscriptionDTO {
	if u.SubscriptionID == nil || *u.SubscriptionID == "" {
		return nil
	}
	return &SubscriptionDTO{
		Status:           stripe.NormalizeStripeStatus(u.StripeSubscriptionStatus),
		CurrentPeriodEnd: u.CurrentPeriodEnd,
	}
}

func BuildTrialDTO(now time.Time, start, end *time.Time) *TrialDTO {
	if start == nil || end == nil {
		return nil
	}
	daysLeft := 0
	if now.Before(*end) {
		daysLeft = int(end.Sub(now).Hours() / 24)
	}
	return &TrialDTO{
		StartsAt: start,
		EndsAt:   end,
		DaysLeft: daysLeft,
	}
}

func BuildAccessDTO(policy access.Policy) AccessDTO {
	dto := AccessDTO{
		State:        string(policy.State),
		Founding:     policy.State == access.AccessFounding,
		Capabilities: policy.Capabilities,
	}
	if policy.Limits != nil {
		dto.Limits = &LimitsDTO{MaxPublished: policy.Limits.MaxPublished}
	}
	return dto
}
