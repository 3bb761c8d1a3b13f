package users

import (
	"context"
	"errors"
	"net/http"
	"time"

	"kaleidorium/database"
	"kaleidorium/internal/apierr"
	"kaleidorium/internal/domain/access"
	"kaleidorium/internal/domain/profiles"
	"kaleidorium/internal/domain/users"
	"kaleidorium/internal/domain/works"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	Founding *profiles.FoundingCache
}

func NewHandler(founding *profiles.FoundingCache) *Handler {
	return &Handler{Founding: founding}
}

// GET /api/me
func (h *Handler) GetCurrentUser(c *gin.Context) {
	userID := c.GetUint("user_id")
	ctx := c.Request.Context()

	var user users.User
	if err := database.DB.WithContext(ctx).Preload("Plan").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apierr.Respond(c, apierr.NotFound, err, nil)
			return
		}
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	profile, founding, err := h.loadProfile(ctx, user)
	if err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	now := time.Now()
	policy := access.ComputePolicy(now, user, founding)

	c.JSON(http.StatusOK, MeResponse{
		User: UserDTO{
			ID:           user.ID,
			Email:        user.Email,
			Role:         user.Role,
			AuthProvider: user.AuthProvider,
			IsVerified:   user.IsVerified,
		},
		Profile: profile,
		Billing: BillingDTO{
			Plan:         BuildPlanDTO(user.Plan),
			Subscription: BuildSubscriptionDTO(user),
			Trial:        BuildTrialDTO(now, user.TrialStartAt, user.TrialEndAt),
		},
		Access: BuildAccessDTO(policy),
	})
}

func (h *Handler) loadProfile(ctx context.Context, user users.User) (*ProfileDTO, bool, error) {
	db := database.DB.WithContext(ctx)

	switch user.Role {
	case users.RoleArtist:
		a, err := profiles.ArtistForUser(ctx, db, user.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		var published int64
		if err := db.Model(&works.Artwork{}).
			Where("artist_id = ? AND status = ?", a.ID, works.StatusPublished).
			Count(&published).Error; err != nil {
			return nil, false, err
		}
		founding, err := h.Founding.IsFounding(ctx, a.ID)
		if err != nil {
			return nil, false, err
		}
		dto := &ProfileDTO{
			Kind:              users.RoleArtist,
			ID:                a.ID,
			Slug:              a.Slug,
			DisplayName:       a.DisplayName(),
			GalleryID:         a.GalleryID,
			PublishedArtworks: &published,
		}
		if a.ProfilePicture != nil {
			dto.PictureURL = &a.ProfilePicture.PublicURL
		}
		return dto, founding, nil

	case users.RoleGallery:
		g, err := profiles.GalleryForUser(ctx, db, user.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		dto := &ProfileDTO{Kind: users.RoleGallery, ID: g.ID, Slug: g.Slug, DisplayName: g.Name}
		if g.Logo != nil {
			dto.PictureURL = &g.Logo.PublicURL
		}
		return dto, false, nil

	case users.RoleCollector:
		col, err := profiles.CollectorForUser(ctx, db, user.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		return &ProfileDTO{Kind: users.RoleCollector, ID: col.ID, DisplayName: col.DisplayName()}, false, nil
	}
	return nil, false, nil
}
