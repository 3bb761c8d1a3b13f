package stripewebhook

import (
	"errors"
	"fmt"

	"kaleidorium/database"
	"kaleidorium/internal/domain/plans"
	"kaleidorium/internal/domain/users"
	"kaleidorium/internal/infra/stripe"

	"github.com/gin-gonic/gin"
	sgo "github.com/stripe/stripe-go/v75"
	"gorm.io/gorm"
)

func subscriptionUpdated(c *gin.Context, raw *sgo.Subscription) error {
	sub, err := stripe.FromStripe(raw)
	if err != nil {
		return fmt.Errorf("subscription %s: %w", raw.ID, err)
	}

	user, ok, err := findUser(c, sub)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	updates := map[string]interface{}{
		"subscription_id":            sub.ID,
		"current_period_end":         sub.CurrentPeriodEnd,
		"stripe_subscription_status": sub.Status,
	}

	var plan plans.Plan
	err = database.DB.WithContext(c.Request.Context()).Where("stripe_price_id = ?", sub.PriceID).First(&plan).Error
	switch {
	case err == nil:
		updates["plan_id"] = plan.ID
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	return database.DB.WithContext(c.Request.Context()).Model(&users.User{}).
		Where("id = ?", user.ID).
		Updates(updates).Error
}
