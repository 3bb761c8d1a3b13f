package stripewebhook

import (
	"time"

	"kaleidorium/database"
	"kaleidorium/internal/domain/users"
	"kaleidorium/internal/infra/stripe"

	"github.com/gin-gonic/gin"
	sgo "github.com/stripe/stripe-go/v75"
)

func subscriptionDeleted(c *gin.Context, raw *sgo.Subscription) error {
	if raw.ID == "" {
		return nil
	}
	sub := stripe.Subscription{
		ID:               raw.ID,
		Status:           string(raw.Status),
		CurrentPeriodEnd: time.Unix(raw.CurrentPeriodEnd, 0).UTC(),
		Metadata:         raw.Metadata,
	}

	user, ok, err := findUser(c, sub)
	if err != nil || !ok {
		return err
	}

	updates := map[string]interface{}{
		"stripe_subscription_status": sub.Status,
		"current_period_end":         sub.CurrentPeriodEnd,
	}
	return database.DB.WithContext(c.Request.Context()).Model(&users.User{}).
		Where("id = ?", user.ID).
		Updates(updates).Error
}
