package stripewebhook

import (
	"encoding/json"
	"io"
	"net/http"

	"kaleidorium/internal/apierr"
	"kaleidorium/internal/infra/stripe"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	sgo "github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"
)

const maxPayloadBytes = 65536

type Handler struct {
	Gateway stripe.Gateway
	Secret  string
}

func NewHandler(gw stripe.Gateway, secret string) *Handler {
	return &Handler{Gateway: gw, Secret: secret}
}

// POST /api/webhooks/stripe
func (h *Handler) StripeWebhook(c *gin.Context) {
	if h.Secret == "" || h.Gateway == nil {
		apierr.Message(c, apierr.Server, "Stripe webhooks are not configured")
		return
	}
	log := zerolog.Ctx(c.Request.Context())

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPayloadBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		c.GetHeader("Stripe-Signature"),
		h.Secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		log.Warn().Err(err).Msg("stripe signature verification failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
		return
	}

	var handleErr error
	switch event.Type {
	case "checkout.session.completed":
		var session sgo.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse session"})
			return
		}
		handleErr = h.checkoutCompleted(c, &session)

	case "customer.subscription.updated":
		var sub sgo.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse subscription"})
			return
		}
		handleErr = subscriptionUpdated(c, &sub)

	case "customer.subscription.deleted":
		var sub sgo.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse subscription"})
			return
		}
		handleErr = subscriptionDeleted(c, &sub)

	case "invoice.paid":
		var inv sgo.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse invoice"})
			return
		}
		handleErr = invoicePaid(c, &inv)

	default:
		// acknowledged so Stripe stops retrying
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	if handleErr != nil {
		// 5xx makes Stripe retry the delivery
		apierr.Respond(c, apierr.Server, handleErr, map[string]any{"event_id": event.ID, "event_type": string(event.Type)})
		return
	}
	log.Info().Str("event_id", event.ID).Str("event_type", string(event.Type)).Msg("stripe event processed")
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
