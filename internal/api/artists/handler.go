package artists

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"kaleidorium/database"
	"kaleidorium/internal/api/uploads"
	"kaleidorium/internal/apierr"
	"kaleidorium/internal/domain/media"
	"kaleidorium/internal/domain/profiles"
	"kaleidorium/internal/domain/works"
	"kaleidorium/internal/infra/storage"
	"kaleidorium/internal/infra/stripe"
	"kaleidorium/internal/security/upload"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Handler struct {
	Store    storage.Store
	Founding *profiles.FoundingCache
	// Billing may be nil when Stripe is not configured.
	Billing stripe.Gateway
}

func NewHandler(store storage.Store, founding *profiles.FoundingCache, billing stripe.Gateway) *Handler {
	return &Handler{Store: store, Founding: founding, Billing: billing}
}

type galleryRef struct {
	ID   uint   `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type publicArtist struct {
	profiles.Artist
	DisplayName string          `json:"display_name"`
	Founding    bool            `json:"founding"`
	Gallery     *galleryRef     `json:"gallery,omitempty"`
	Artworks    []works.Artwork `json:"artworks"`
}

// GET /api/artists/:slug
func (h *Handler) GetArtist(c *gin.Context) {
	ctx := c.Request.Context()
	db := database.DB.WithContext(ctx)

	var a profiles.Artist
	if err := db.Preload("ProfilePicture").Preload("Gallery").Where("slug = ?", c.Param("slug")).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apierr.Respond(c, apierr.NotFound, err, nil)
			return
		}
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	var list []works.Artwork
	if err := db.Preload("Image").
		Where("artist_id = ? AND status = ?", a.ID, works.StatusPublished).
		Order("sort_index ASC, created_at DESC").
		Find(&list).Error; err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	founding, err := h.Founding.IsFounding(ctx, a.ID)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("founding lookup failed")
	}

	out := publicArtist{
		Artist:      a,
		DisplayName: a.DisplayName(),
		Founding:    founding,
		Artworks:    list,
	}
	if a.Gallery != nil {
		out.Gallery = &galleryRef{ID: a.Gallery.ID, Slug: a.Gallery.Slug, Name: a.Gallery.Name}
	}
	c.JSON(http.StatusOK, out)
}

type updateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Bio       *string `json:"bio"`
	Website   *string `json:"website"`
	Location  *string `json:"location"`
}

// ValidWebsite accepts empty values and absolute http(s) URLs.
func ValidWebsite(s string) bool {
	if s == "" {
		return true
	}
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// PUT /api/artists/me
func (h *Handler) UpdateMe(c *gin.Context) {
	userID := c.GetUint("user_id")
	ctx := c.Request.Context()

	var in updateProfileRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		apierr.Bind(c, err)
		return
	}

	updates := map[string]interface{}{}
	set := func(col string, v *string, max int) bool {
		if v == nil {
			return true
		}
		s := strings.TrimSpace(*v)
		if len(s) > max {
			apierr.Message(c, apierr.Validation, col+" is too long")
			return false
		}
		updates[col] = s
		return true
	}
	if !set("first_name", in.FirstName, 80) || !set("last_name", in.LastName, 80) ||
		!set("bio", in.Bio, 4000) || !set("website", in.Website, 300) || !set("location", in.Location, 120) {
		return
	}
	if w, ok := updates["website"].(string); ok && !ValidWebsite(w) {
		apierr.Message(c, apierr.Validation, "Website must be an http(s) URL")
		return
	}

	a, err := profiles.ArtistForUser(ctx, database.DB, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apierr.Respond(c, apierr.NotFound, err, nil)
			return
		}
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	if len(updates) > 0 {
		if err := database.DB.WithContext(ctx).Model(&a).Updates(updates).Error; err != nil {
			apierr.Respond(c, apierr.Database, err, nil)
			return
		}
	}

	a, err = profiles.ArtistForUser(ctx, database.DB, userID)
	if err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}
	c.JSON(http.StatusOK, a)
}

// POST /api/artists/me/profile-picture
func (h *Handler) UploadProfilePicture(c *gin.Context) {
	userID := c.GetUint("user_id")
	ctx := c.Request.Context()

	a, err := profiles.ArtistForUser(ctx, database.DB, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apierr.Respond(c, apierr.NotFound, err, nil)
			return
		}
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	file, ok := uploads.ReadFile(c, "file", upload.ProfilePicturePolicy)
	if !ok {
		return
	}

	img, err := uploads.Put(ctx, h.Store, media.BucketProfilePictures, profilePrefix(a.ID), file)
	if err != nil {
		apierr.Respond(c, apierr.External, err, map[string]any{"bucket": media.BucketProfilePictures})
		return
	}

	old := a.ProfilePicture
	err = database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&img).Error; err != nil {
			return err
		}
		if err := tx.Model(&profiles.Artist{}).Where("id = ?", a.ID).Update("profile_picture_id", img.ID).Error; err != nil {
			return err
		}
		if old != nil {
			return tx.Delete(&media.Image{}, "id = ?", old.ID).Error
		}
		return nil
	})
	if err != nil {
		uploads.Discard(ctx, h.Store, img)
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	if old != nil {
		uploads.Discard(ctx, h.Store, *old)
	}
	c.JSON(http.StatusCreated, img)
}

func profilePrefix(artistID uint) string {
	return "artists/" + strconv.FormatUint(uint64(artistID), 10)
}
