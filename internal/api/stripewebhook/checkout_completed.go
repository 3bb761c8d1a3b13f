package stripewebhook

import (
	"errors"
	"fmt"
	"strconv"

	"kaleidorium/database"
	"kaleidorium/internal/domain/plans"
	"kaleidorium/internal/domain/users"
	"kaleidorium/internal/infra/stripe"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	sgo "github.com/stripe/stripe-go/v75"
	"gorm.io/gorm"
)

func (h *Handler) checkoutCompleted(c *gin.Context, session *sgo.CheckoutSession) error {
	if session.Subscription == nil || session.Subscription.ID == "" {
		// one-off payments are not sold
		return nil
	}
	ctx := c.Request.Context()

	sub, err := h.Gateway.Subscription(session.Subscription.ID)
	if err != nil {
		return fmt.Errorf("fetch subscription: %w", err)
	}

	userID := sub.UserID()
	if userID == 0 {
		userID = parseUserID(session.ClientReferenceID)
	}
	if userID == 0 {
		return errors.New("checkout session without user reference")
	}

	var user users.User
	if err := database.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// account deleted mid-checkout
			return nil
		}
		return fmt.Errorf("load user %d: %w", userID, err)
	}

	var plan plans.Plan
	if err := database.DB.WithContext(ctx).Where("stripe_price_id = ?", sub.PriceID).First(&plan).Error; err != nil {
		return fmt.Errorf("plan not found for price %s: %w", sub.PriceID, err)
	}

	updates := map[string]interface{}{
		"plan_id":                    plan.ID,
		"subscription_id":            sub.ID,
		"current_period_end":         sub.CurrentPeriodEnd,
		"stripe_subscription_status": sub.Status,
		"trial_start_at":             nil,
		"trial_end_at":               nil,
	}
	customerID := sub.CustomerID
	if session.Customer != nil && session.Customer.ID != "" {
		customerID = session.Customer.ID
	}
	if customerID != "" {
		updates["stripe_customer_id"] = customerID
	}

	// a second checkout replaces the previous subscription
	if user.SubscriptionID != nil && *user.SubscriptionID != "" && *user.SubscriptionID != sub.ID {
		if err := h.Gateway.Cancel(*user.SubscriptionID); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Uint("user_id", user.ID).Str("subscription_id", *user.SubscriptionID).Msg("failed to cancel replaced subscription")
		}
	}

	if err := database.DB.WithContext(ctx).Model(&users.User{}).
		Where("id = ?", user.ID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("update user after checkout: %w", err)
	}
	return nil
}

func parseUserID(s string) uint {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}

// findUser resolves the subscription owner by metadata, then by stored id.
func findUser(c *gin.Context, sub stripe.Subscription) (users.User, bool, error) {
	db := database.DB.WithContext(c.Request.Context())
	var user users.User

	q := db.Where("subscription_id = ?", sub.ID)
	if id := sub.UserID(); id != 0 {
		q = db.Where("id = ?", id)
	}
	err := q.First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, false, nil
	}
	if err != nil {
		return user, false, err
	}
	return user, true, nil
}
