package plans

import (
	"net/http"

	"kaleidorium/config"
	"kaleidorium/database"
	"kaleidorium/internal/apierr"
	"kaleidorium/internal/domain/plans"
	"kaleidorium/internal/infra/stripe"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type SyncResult struct {
	Synced  int `json:"synced"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

type Handler struct {
	Gateway   stripe.Gateway
	ProductID string
}

func NewHandler(gw stripe.Gateway, productID string) *Handler {
	return &Handler{Gateway: gw, ProductID: productID}
}

// POST /api/admin/plans/sync
// Mirrors the visible EUR recurring prices of the listing product into plans.
func (h *Handler) SyncPlansFromStripe(c *gin.Context) {
	if h.Gateway == nil {
		apierr.Message(c, apierr.External, "Stripe is not configured")
		return
	}
	ctx := c.Request.Context()

	prices, err := h.Gateway.RecurringPrices(h.ProductID)
	if err != nil {
		apierr.Respond(c, apierr.External, err, nil)
		return
	}

	var res SyncResult
	for _, p := range prices {
		if p.Currency != "eur" || !p.Visible {
			res.Skipped++
			continue
		}

		var existing plans.Plan
		err := database.DB.WithContext(ctx).Where("stripe_price_id = ?", p.ID).First(&existing).Error
		if err != nil {
			plan := plans.Plan{
				Name:            p.Name,
				PriceEUR:        float64(p.UnitAmount) / 100.0,
				StripePriceID:   p.ID,
				StripeProductID: p.ProductID,
				Interval:        p.Interval,
				Tier:            p.Tier,
			}
			if err := database.DB.WithContext(ctx).Create(&plan).Error; err != nil {
				apierr.Respond(c, apierr.Database, err, map[string]any{"price_id": p.ID})
				return
			}
			res.Created++
		} else {
			existing.Name = p.Name
			existing.PriceEUR = float64(p.UnitAmount) / 100.0
			existing.StripeProductID = p.ProductID
			existing.Interval = p.Interval
			if p.Tier != "" {
				existing.Tier = p.Tier
			}
			if err := database.DB.WithContext(ctx).Save(&existing).Error; err != nil {
				apierr.Respond(c, apierr.Database, err, map[string]any{"price_id": p.ID})
				return
			}
			res.Updated++
		}
		res.Synced++
	}

	zerolog.Ctx(ctx).Info().Int("created", res.Created).Int("updated", res.Updated).Int("skipped", res.Skipped).Msg("plans synced from stripe")
	c.JSON(http.StatusOK, res)
}

// GET /api/plans
func ListPlans(c *gin.Context) {
	var plansList []plans.Plan
	q := database.DB.WithContext(c.Request.Context()).Model(&plans.Plan{})
	if config.STRIPE_PRODUCT_ID != "" {
		q = q.Where("stripe_product_id = ?", config.STRIPE_PRODUCT_ID)
	}

	if err := q.Order("price_eur ASC").Find(&plansList).Error; err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	c.JSON(http.StatusOK, plansList)
}
