package billing

import (
	"net/http"

	"kaleidorium/database"
	"kaleidorium/internal/apierr"
	"kaleidorium/internal/domain/plans"
	"kaleidorium/internal/domain/users"
	"kaleidorium/internal/infra/stripe"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// POST /api/billing/checkout
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
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

	// allow-list price id
	var plan plans.Plan
	if err := database.DB.WithContext(ctx).Where("stripe_price_id = ?", body.PriceID).First(&plan).Error; err != nil {
		apierr.Message(c, apierr.Validation, "Unknown plan")
		return
	}

	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if !user.IsVerified {
		apierr.Message(c, apierr.Authorization, "Please verify your email first")
		return
	}

	// ensure stripe customer
	if user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		cusID, err := h.Gateway.CreateCustomer(user.Email, user.ID)
		if err != nil {
			apierr.Respond(c, apierr.External, err, map[string]any{"user_id": user.ID})
			return
		}
		if err := database.DB.WithContext(ctx).Model(&users.User{}).
			Where("id = ?", user.ID).
			Update("stripe_customer_id", cusID).Error; err != nil {
			apierr.Respond(c, apierr.Database, err, nil)
			return
		}
		user.StripeCustomerID = &cusID
	}

	params := stripe.CheckoutParams{
		CustomerID: *user.StripeCustomerID,
		PriceID:    plan.StripePriceID,
		SuccessURL: h.AppURL + "/account?checkout=success",
		CancelURL:  h.AppURL + "/account?checkout=canceled",
		UserID:     user.ID,
		PlanID:     plan.ID,
	}
	founding := h.FoundingCoupon != "" && h.isFounding(c, user)
	if founding {
		params.CouponID = h.FoundingCoupon
	}

	url, err := h.Gateway.CheckoutURL(params)
	if err != nil {
		apierr.Respond(c, apierr.External, err, map[string]any{"user_id": user.ID, "price_id": plan.StripePriceID})
		return
	}

	zerolog.Ctx(ctx).Info().Uint("user_id", user.ID).Uint("plan_id", plan.ID).Bool("founding_coupon", founding).Msg("checkout session created")
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// POST /api/billing/portal
func (h *Handler) CreateBillingPortal(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		apierr.Message(c, apierr.Conflict, "No billing account yet, subscribe first")
		return
	}

	url, err := h.Gateway.PortalURL(*user.StripeCustomerID, h.AppURL+"/account")
	if err != nil {
		apierr.Respond(c, apierr.External, err, map[string]any{"user_id": user.ID})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
