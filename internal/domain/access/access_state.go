package access

import (
	"time"

	"kaleidorium/internal/domain/users"
	"kaleidorium/internal/infra/stripe"
)

// ComputeEffectiveAccessState decides what a selling account may do right now.
// Collectors and admins are never gated.
func ComputeEffectiveAccessState(now time.Time, u users.User, founding bool) AccessState {
	if u.Role != users.RoleArtist && u.Role != users.RoleGallery {
		return AccessFull
	}

	if founding {
		return AccessFounding
	}

	if u.TrialEndAt != nil && now.Before(*u.TrialEndAt) {
		return AccessTrial
	}

	if u.SubscriptionID == nil || *u.SubscriptionID == "" {
		return AccessLimited
	}

	switch stripe.NormalizeStripeStatus(u.StripeSubscriptionStatus) {
	case "active", "trialing":
		return AccessFull
	case "past_due":
		return AccessLimited
	case "canceled":
		// paid-through period still counts
		if u.CurrentPeriodEnd != nil && now.Before(*u.CurrentPeriodEnd) {
			return AccessFull
		}
		return AccessLimited
	default:
		return AccessLocked
	}
}
