package stripewebhook

import (
	"errors"
	"fmt"

	"kaleidorium/database"
	"kaleidorium/internal/domain/billing"
	"kaleidorium/internal/domain/plans"
	"kaleidorium/internal/domain/users"

	"github.com/gin-gonic/gin"
	sgo "github.com/stripe/stripe-go/v75"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func invoicePaid(c *gin.Context, inv *sgo.Invoice) error {
	if inv.ID == "" || inv.Customer == nil || inv.Customer.ID == "" {
		return nil
	}
	db := database.DB.WithContext(c.Request.Context())

	var user users.User
	if err := db.Where("stripe_customer_id = ?", inv.Customer.ID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("load customer %s: %w", inv.Customer.ID, err)
	}

	payment := billing.Payment{
		UserID:          user.ID,
		StripeInvoiceID: inv.ID,
		AmountEUR:       float64(inv.AmountPaid) / 100.0,
		Currency:        string(inv.Currency),
		Status:          string(inv.Status),
	}
	if inv.Subscription != nil && inv.Subscription.ID != "" {
		id := inv.Subscription.ID
		payment.StripeSubscriptionID = &id
	}
	if inv.HostedInvoiceURL != "" {
		u := inv.HostedInvoiceURL
		payment.ReceiptURL = &u
	}
	if inv.Lines != nil && len(inv.Lines.Data) > 0 && inv.Lines.Data[0].Price != nil {
		var plan plans.Plan
		if err := db.Where("stripe_price_id = ?", inv.Lines.Data[0].Price.ID).First(&plan).Error; err == nil {
			payment.PlanID = &plan.ID
		}
	}

	// Stripe redelivers events; the invoice id keeps this idempotent.
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&payment).Error
}
