package billing

import (
	"errors"
	"strings"

	"kaleidorium/database"
	"kaleidorium/internal/apierr"
	"kaleidorium/internal/domain/profiles"
	"kaleidorium/internal/domain/users"
	"kaleidorium/internal/infra/stripe"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	Gateway  stripe.Gateway
	Founding *profiles.FoundingCache

	AppURL         string
	FoundingCoupon string
}

func NewHandler(gw stripe.Gateway, founding *profiles.FoundingCache, appURL, foundingCoupon string) *Handler {
	return &Handler{
		Gateway:        gw,
		Founding:       founding,
		AppURL:         strings.TrimRight(appURL, "/"),
		FoundingCoupon: foundingCoupon,
	}
}

// ready writes an error and returns false when Stripe is not wired.
func (h *Handler) ready(c *gin.Context) bool {
	if h.Gateway == nil {
		apierr.Message(c, apierr.External, "Billing is not available right now")
		return false
	}
	return true
}

func (h *Handler) currentUser(c *gin.Context) (users.User, bool) {
	var user users.User
	if err := database.DB.WithContext(c.Request.Context()).Preload("Plan").First(&user, c.GetUint("user_id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apierr.Respond(c, apierr.Authentication, err, nil)
			return user, false
		}
		apierr.Respond(c, apierr.Database, err, nil)
		return user, false
	}
	return user, true
}

func (h *Handler) isFounding(c *gin.Context, user users.User) bool {
	if user.Role != users.RoleArtist {
		return false
	}
	a, err := profiles.ArtistForUser(c.Request.Context(), database.DB, user.ID)
	if err != nil {
		return false
	}
	ok, _ := h.Founding.IsFounding(c.Request.Context(), a.ID)
	return ok
}

func hasSubscription(u users.User) bool {
	return u.SubscriptionID != nil && *u.SubscriptionID != ""
}
