package invitations

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"kaleidorium/config"
	"kaleidorium/database"
	"kaleidorium/internal/api/auth"
	"kaleidorium/internal/apierr"
	"kaleidorium/internal/domain/invitations"
	"kaleidorium/internal/domain/profiles"
	"kaleidorium/internal/domain/users"
	"kaleidorium/internal/infra/mail"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// 32 random bytes, hex encoded
const tokenBytes = 32

type Handler struct {
	Mailer mail.Mailer
	Now    func() time.Time
}

func NewHandler(mailer mail.Mailer) *Handler {
	return &Handler{Mailer: mailer, Now: time.Now}
}

type inviteRequest struct {
	Email     string `json:"email" binding:"required"`
	FirstName string `json:"first_name" binding:"max=80"`
	LastName  string `json:"last_name" binding:"max=80"`
	Message   string `json:"message" binding:"max=1000"`
}

// POST /api/invite-artist
func (h *Handler) InviteArtist(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetUint("user_id")
	role := c.GetString("role")
	now := h.Now()

	var in inviteRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		apierr.Bind(c, err)
		return
	}
	email := auth.NormalizeEmail(in.Email)
	if email == "" {
		apierr.Message(c, apierr.Validation, "Invalid email address")
		return
	}

	db := database.DB.WithContext(ctx)

	var existing int64
	if err := db.Model(&users.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}
	if existing > 0 {
		apierr.Message(c, apierr.Validation, "An account with this email already exists")
		return
	}

	inviter := "The Kaleidorium team"
	var galleryID *uint
	if role == users.RoleGallery {
		g, err := profiles.GalleryForUser(ctx, database.DB, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierr.Message(c, apierr.Authorization, "Complete your gallery profile before inviting artists")
				return
			}
			apierr.Respond(c, apierr.Database, err, nil)
			return
		}
		galleryID = &g.ID
		inviter = g.Name
	}

	token, err := auth.RandomToken(tokenBytes)
	if err != nil {
		apierr.Respond(c, apierr.Server, err, nil)
		return
	}

	inv := invitations.Invitation{
		Email:           email,
		FirstName:       strings.TrimSpace(in.FirstName),
		LastName:        strings.TrimSpace(in.LastName),
		Message:         strings.TrimSpace(in.Message),
		Token:           token,
		InvitedByUserID: userID,
		GalleryID:       galleryID,
		ExpiresAt:       now.Add(invitations.TTL),
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := invitations.ExpireStale(tx, email, now); err != nil {
			return err
		}
		return tx.Create(&inv).Error
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			apierr.Message(c, apierr.Validation, "This artist already has a pending invitation")
			return
		}
		apierr.Respond(c, apierr.Database, err, map[string]any{"email": email})
		return
	}

	if err := h.Mailer.Send(ctx, mail.ArtistInvitation(email, inviter, config.APP_URL, token, inv.Message)); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("invitation_id", inv.ID).Msg("invitation email not sent")
	}

	c.JSON(http.StatusCreated, inv)
}

// GET /api/invitations
func (h *Handler) List(c *gin.Context) {
	var list []invitations.Invitation
	if err := database.DB.WithContext(c.Request.Context()).
		Where("invited_by_user_id = ?", c.GetUint("user_id")).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	now := h.Now()
	for i := range list {
		if list[i].Status == invitations.StatusPending && !list[i].Open(now) {
			list[i].Status = invitations.StatusExpired
		}
	}
	c.JSON(http.StatusOK, gin.H{"invitations": list})
}

// GET /api/invitations/:token
func (h *Handler) Lookup(c *gin.Context) {
	ctx := c.Request.Context()

	var inv invitations.Invitation
	if err := database.DB.WithContext(ctx).Where("token = ?", c.Param("token")).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apierr.Respond(c, apierr.NotFound, err, nil)
			return
		}
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}
	if !inv.Open(h.Now()) {
		c.AbortWithStatusJSON(http.StatusGone, gin.H{"error": "Invitation is no longer valid", "code": "gone"})
		return
	}

	resp := gin.H{
		"email":      inv.Email,
		"first_name": inv.FirstName,
		"last_name":  inv.LastName,
		"expires_at": inv.ExpiresAt,
	}
	if inv.GalleryID != nil {
		var g profiles.Gallery
		if err := database.DB.WithContext(ctx).Select("id", "name", "slug").First(&g, *inv.GalleryID).Error; err == nil {
			resp["gallery"] = gin.H{"name": g.Name, "slug": g.Slug}
		}
	}
	c.JSON(http.StatusOK, resp)
}

// DELETE /api/invitations/:id
func (h *Handler) Revoke(c *gin.Context) {
	res := database.DB.WithContext(c.Request.Context()).
		Model(&invitations.Invitation{}).
		Where("id = ? AND invited_by_user_id = ? AND status = ?", c.Param("id"), c.GetUint("user_id"), invitations.StatusPending).
		Update("status", invitations.StatusRevoked)
	if res.Error != nil {
		apierr.Respond(c, apierr.Database, res.Error, nil)
		return
	}
	if res.RowsAffected == 0 {
		apierr.Message(c, apierr.NotFound, "No pending invitation with this id")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Invitation revoked"})
}
