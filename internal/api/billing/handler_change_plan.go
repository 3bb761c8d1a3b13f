package billing

import (
	"net/http"

	"kaleidorium/database"
	"kaleidorium/internal/apierr"
	"kaleidorium/internal/domain/plans"
	"kaleidorium/internal/domain/users"
	"kaleidorium/internal/infra/stripe"

	"github.com/gin-gonic/gin"
)

// POST /api/billing/change-plan
// Moves the running subscription to another listing plan with proration.
func (h *Handler) ChangePlan(c *gin.Context) {
	var body struct {
		PriceID string `json:"price_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apierr.Message(c, apierr.Validation, "Missing or invalid price_id")
		return
	}
	if !h.ready(c) {
		return
	}
	ctx := c.Request.Context()

	var plan plans.Plan
	if err := database.DB.WithContext(ctx).Where("stripe_price_id = ?", body.PriceID).First(&plan).Error; err != nil {
		apierr.Message(c, apierr.Validation, "Unknown plan")
		return
	}

	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if !hasSubscription(user) {
		apierr.Message(c, apierr.Conflict, "No active subscription, use checkout instead")
		return
	}
	if user.PlanID != nil && *user.PlanID == plan.ID {
		c.JSON(http.StatusOK, gin.H{"message": "Already on this plan", "plan": plan})
		return
	}

	sub, err := h.Gateway.ChangePrice(*user.SubscriptionID, plan.StripePriceID)
	if err != nil {
		apierr.Respond(c, apierr.External, err, map[string]any{"user_id": user.ID, "price_id": plan.StripePriceID})
		return
	}
	if err := applySubscription(c, user.ID, &plan, sub); err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Plan changed", "plan": plan})
}

// POST /api/billing/cancel  body {"cancel": true|false}
// Schedules (or withdraws) cancellation at the end of the paid period.
func (h *Handler) SetCancelAtPeriodEnd(c *gin.Context) {
	var body struct {
		Cancel *bool `json:"cancel" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apierr.Bind(c, err)
		return
	}
	if !h.ready(c) {
		return
	}

	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if !hasSubscription(user) {
		apierr.Message(c, apierr.Conflict, "No active subscription")
		return
	}

	sub, err := h.Gateway.SetCancelAtPeriodEnd(*user.SubscriptionID, *body.Cancel)
	if err != nil {
		apierr.Respond(c, apierr.External, err, map[string]any{"user_id": user.ID})
		return
	}
	if err := applySubscription(c, user.ID, nil, sub); err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cancel_at_period_end": sub.CancelAtPeriodEnd,
		"current_period_end":   sub.CurrentPeriodEnd,
	})
}

func applySubscription(c *gin.Context, userID uint, plan *plans.Plan, sub stripe.Subscription) error {
	updates := map[string]interface{}{
		"stripe_subscription_status": sub.Status,
		"current_period_end":         sub.CurrentPeriodEnd,
	}
	if plan != nil {
		updates["plan_id"] = plan.ID
	}
	return database.DB.WithContext(c.Request.Context()).Model(&users.User{}).
		Where("id = ?", userID).
		Updates(updates).Error
}
