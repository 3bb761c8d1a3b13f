package stripe

import "strings"

// NormalizeStripeStatus folds Stripe subscription statuses into the handful
// the access policy distinguishes.
func NormalizeStripeStatus(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "none"
	}
	switch strings.TrimSpace(*s) {
	case "active":
		return "active"
	case "trialing":
		return "trialing"
	case "past_due", "unpaid":
		return "past_due"
	case "canceled", "incomplete_expired":
		return "canceled"
	default:
		return strings.TrimSpace(*s)
	}
}
