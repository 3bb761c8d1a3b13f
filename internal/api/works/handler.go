package works

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"kaleidorium/database"
	"kaleidorium/internal/api/uploads"
	"kaleidorium/internal/apierr"
	"kaleidorium/internal/domain/access"
	"kaleidorium/internal/domain/collection"
	"kaleidorium/internal/domain/media"
	"kaleidorium/internal/domain/profiles"
	"kaleidorium/internal/domain/users"
	"kaleidorium/internal/domain/works"
	"kaleidorium/internal/infra/storage"
	"kaleidorium/internal/security/sanitize"
	"kaleidorium/internal/security/upload"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var (
	errPublishLimit = errors.New("publish limit reached")
	errForeignIDs   = errors.New("artwork ids not owned")
)

type Handler struct {
	Store storage.Store
	Now   func() time.Time
}

func NewHandler(store storage.Store) *Handler {
	return &Handler{Store: store, Now: time.Now}
}

func currentArtist(c *gin.Context) (profiles.Artist, bool) {
	a, err := profiles.ArtistForUser(c.Request.Context(), database.DB, c.GetUint("user_id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apierr.Message(c, apierr.Authorization, "An artist profile is required")
			return a, false
		}
		apierr.Respond(c, apierr.Database, err, nil)
		return a, false
	}
	return a, true
}

func respondLookup(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		apierr.Message(c, apierr.NotFound, "Artwork not found")
		return
	}
	apierr.Respond(c, apierr.Database, err, nil)
}

// ------------------------------
// POST /api/upload-artwork (multipart)
// ------------------------------
func (h *Handler) UploadArtwork(c *gin.Context) {
	ctx := c.Request.Context()

	artist, ok := currentArtist(c)
	if !ok {
		return
	}

	file, ok := uploads.ReadFile(c, "file", upload.ArtworkPolicy)
	if !ok {
		return
	}

	var form UploadArtworkForm
	if err := c.ShouldBind(&form); err != nil {
		apierr.Bind(c, err)
		return
	}
	title := sanitize.Text(form.Title)
	if title == "" {
		apierr.Message(c, apierr.Validation, "Title is required")
		return
	}

	var price *float64
	if p := strings.TrimSpace(form.Price); p != "" {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 {
			apierr.Message(c, apierr.Validation, "Price must be a positive number")
			return
		}
		price = &v
	}

	art := works.Artwork{
		ArtistID:    artist.ID,
		GalleryID:   artist.GalleryID,
		Title:       title,
		Description: sanitize.Text(form.Description),
		Medium:      sanitize.Text(form.Medium),
		Dimensions:  sanitize.Text(form.Dimensions),
		Year:        form.Year,
		Price:       price,
		Currency:    strings.ToUpper(strings.TrimSpace(form.Currency)),
		Tags:        works.SplitTags(sanitize.Text(form.Tags)),
		Styles:      []string{},
		Subjects:    []string{},
		Colors:      []string{},
		Status:      works.StatusDraft,
	}

	img, err := uploads.Put(ctx, h.Store, media.BucketArtworkImages, "artists/"+strconv.FormatUint(uint64(artist.ID), 10), file)
	if err != nil {
		apierr.Respond(c, apierr.External, err, map[string]any{"bucket": media.BucketArtworkImages})
		return
	}

	err = database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&img).Error; err != nil {
			return err
		}
		// new uploads go to the end of the artist's ordering
		var last int
		if err := artistArtworksQuery(tx, artist.ID).Select("COALESCE(MAX(sort_index), -1)").Scan(&last).Error; err != nil {
			return err
		}
		art.SortIndex = last + 1
		art.ImageID = &img.ID
		return tx.Create(&art).Error
	})
	if err != nil {
		uploads.Discard(ctx, h.Store, img)
		apierr.Respond(c, apierr.Database, err, map[string]any{"artist_id": artist.ID})
		return
	}

	art.Image = &img
	zerolog.Ctx(ctx).Info().Str("artwork_id", art.ID).Uint("artist_id", artist.ID).Msg("artwork uploaded")
	c.JSON(http.StatusCreated, ToArtworkDTO(art))
}

// ------------------------------
// GET /api/artworks/mine
// ------------------------------
func (h *Handler) ListMine(c *gin.Context) {
	artist, ok := currentArtist(c)
	if !ok {
		return
	}

	q := artistArtworksQuery(database.DB.WithContext(c.Request.Context()), artist.ID).Preload("Image")
	if status := c.Query("status"); status == works.StatusDraft || status == works.StatusPublished {
		q = q.Where("status = ?", status)
	}

	var list []works.Artwork
	if err := q.Order("sort_index ASC, created_at DESC").Find(&list).Error; err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"artworks": toArtworkDTOs(list)})
}

// ------------------------------
// GET /api/artworks/:id (owner sees drafts, everyone else only published)
// ------------------------------
func (h *Handler) GetArtwork(c *gin.Context) {
	var a works.Artwork
	if err := database.DB.WithContext(c.Request.Context()).
		Preload("Image").
		Preload("Artist").
		First(&a, "id = ?", c.Param("id")).Error; err != nil {
		respondLookup(c, err)
		return
	}

	if !a.IsPublished() {
		owner := a.Artist != nil && c.GetUint("user_id") != 0 && a.Artist.UserID == c.GetUint("user_id")
		if !owner {
			apierr.Message(c, apierr.NotFound, "Artwork not found")
			return
		}
	}
	c.JSON(http.StatusOK, ToArtworkDTO(a))
}

// ------------------------------
// PUT /api/artworks/:id
// ------------------------------
func (h *Handler) UpdateArtwork(c *gin.Context) {
	ctx := c.Request.Context()

	var req UpdateArtworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.Bind(c, err)
		return
	}

	artist, ok := currentArtist(c)
	if !ok {
		return
	}

	var a works.Artwork
	if err := artistArtworksQuery(database.DB.WithContext(ctx), artist.ID).
		Where("id = ?", c.Param("id")).
		First(&a).Error; err != nil {
		respondLookup(c, err)
		return
	}

	if req.Title != nil {
		t := strings.TrimSpace(*req.Title)
		if t == "" {
			apierr.Message(c, apierr.Validation, "Title is required")
			return
		}
		a.Title = t
	}
	if req.Description != nil {
		a.Description = strings.TrimSpace(*req.Description)
	}
	if req.Medium != nil {
		a.Medium = strings.TrimSpace(*req.Medium)
	}
	if req.Dimensions != nil {
		a.Dimensions = strings.TrimSpace(*req.Dimensions)
	}
	if req.Year != nil {
		a.Year = req.Year
	}
	if req.Price != nil {
		a.Price = req.Price
	}
	if req.Currency != nil {
		a.Currency = strings.ToUpper(*req.Currency)
	}
	if req.Sold != nil {
		a.Sold = *req.Sold
	}
	if req.Tags != nil {
		a.Tags = works.NormalizeTags(*req.Tags)
	}
	if req.Styles != nil {
		a.Styles = works.NormalizeTags(*req.Styles)
	}
	if req.Subjects != nil {
		a.Subjects = works.NormalizeTags(*req.Subjects)
	}
	if req.Colors != nil {
		a.Colors = works.NormalizeTags(*req.Colors)
	}
	if req.Mood != nil {
		a.Mood = strings.ToLower(strings.TrimSpace(*req.Mood))
	}

	if err := database.DB.WithContext(ctx).Save(&a).Error; err != nil {
		apierr.Respond(c, apierr.Database, err, map[string]any{"artwork_id": a.ID})
		return
	}
	if err := database.DB.WithContext(ctx).Preload("Image").First(&a, "id = ?", a.ID).Error; err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}
	c.JSON(http.StatusOK, ToArtworkDTO(a))
}

// ------------------------------
// DELETE /api/artworks/:id (also removes the stored image)
// ------------------------------
func (h *Handler) DeleteArtwork(c *gin.Context) {
	ctx := c.Request.Context()

	artist, ok := currentArtist(c)
	if !ok {
		return
	}

	var img *media.Image
	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a works.Artwork
		if err := artistArtworksQuery(tx, artist.ID).Preload("Image").Where("id = ?", c.Param("id")).First(&a).Error; err != nil {
			return err
		}
		img = a.Image

		if err := tx.Where("artwork_id = ?", a.ID).Delete(&collection.Item{}).Error; err != nil {
			return err
		}
		if err := tx.Where("artwork_id = ?", a.ID).Delete(&collection.Interaction{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&a).Error; err != nil {
			return err
		}
		if img != nil {
			return tx.Delete(img).Error
		}
		return nil
	})
	if err != nil {
		respondLookup(c, err)
		return
	}

	if img != nil {
		uploads.Discard(ctx, h.Store, *img)
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ------------------------------
// POST /api/artworks/:id/publish
// ------------------------------
func (h *Handler) PublishArtwork(c *gin.Context) {
	ctx := c.Request.Context()

	policy, ok := c.Get("policy")
	if !ok {
		apierr.Respond(c, apierr.Server, errors.New("publish route without capability guard"), nil)
		return
	}

	artist, ok := currentArtist(c)
	if !ok {
		return
	}

	now := h.Now()
	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a works.Artwork
		if err := artistArtworksQuery(tx, artist.ID).Where("id = ?", c.Param("id")).First(&a).Error; err != nil {
			return err
		}
		if a.IsPublished() {
			return nil
		}

		var published int64
		if err := artistArtworksQuery(tx, artist.ID).Where("status = ?", works.StatusPublished).Count(&published).Error; err != nil {
			return err
		}
		if !policy.(access.Policy).CanPublishMore(published) {
			return errPublishLimit
		}

		return tx.Model(&a).Updates(map[string]interface{}{
			"status":       works.StatusPublished,
			"published_at": now,
		}).Error
	})

	if err != nil {
		if errors.Is(err, errPublishLimit) {
			apierr.Message(c, apierr.Authorization, "You have reached the number of published artworks your plan allows")
			return
		}
		respondLookup(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": works.StatusPublished})
}

// ------------------------------
// POST /api/artworks/:id/unpublish
// ------------------------------
func (h *Handler) UnpublishArtwork(c *gin.Context) {
	artist, ok := currentArtist(c)
	if !ok {
		return
	}

	res := artistArtworksQuery(database.DB.WithContext(c.Request.Context()), artist.ID).
		Where("id = ?", c.Param("id")).
		Updates(map[string]interface{}{
			"status":       works.StatusDraft,
			"published_at": nil,
		})
	if res.Error != nil {
		apierr.Respond(c, apierr.Database, res.Error, nil)
		return
	}
	if res.RowsAffected == 0 {
		apierr.Message(c, apierr.NotFound, "Artwork not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": works.StatusDraft})
}

// ------------------------------
// PUT /api/artworks/reorder
// ------------------------------
func (h *Handler) ReorderArtworks(c *gin.Context) {
	var req ReorderArtworksRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.ArtworkIDs) == 0 {
		apierr.Message(c, apierr.Validation, "artwork_ids required")
		return
	}

	artist, ok := currentArtist(c)
	if !ok {
		return
	}

	err := database.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var owned int64
		if err := artistArtworksQuery(tx, artist.ID).Where("id IN ?", req.ArtworkIDs).Count(&owned).Error; err != nil {
			return err
		}
		if owned != int64(len(req.ArtworkIDs)) {
			return errForeignIDs
		}
		for i, id := range req.ArtworkIDs {
			if err := artistArtworksQuery(tx, artist.ID).Where("id = ?", id).Update("sort_index", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errForeignIDs) {
			apierr.Message(c, apierr.Validation, "artwork_ids must list your own artworks once each")
			return
		}
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// isCollector reports whether the optional caller is a signed-in collector.
func isCollector(c *gin.Context) bool {
	return c.GetUint("user_id") != 0 && c.GetString("role") == users.RoleCollector
}
