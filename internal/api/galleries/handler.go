package galleries

import (
	"errors"
	"net/http"
	"strings"

	"kaleidorium/database"
	"kaleidorium/internal/api/artists"
	"kaleidorium/internal/apierr"
	"kaleidorium/internal/domain/profiles"
	"kaleidorium/internal/domain/works"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type artistSummary struct {
	ID                uint   `json:"id"`
	Slug              string `json:"slug"`
	DisplayName       string `json:"display_name"`
	PictureURL        string `json:"picture_url,omitempty"`
	PublishedArtworks int64  `json:"published_artworks"`
}

type publicGallery struct {
	profiles.Gallery
	Artists []artistSummary `json:"artists"`
}

// GET /api/galleries/:slug
func GetGallery(c *gin.Context) {
	db := database.DB.WithContext(c.Request.Context())

	var g profiles.Gallery
	if err := db.Preload("Logo").Where("slug = ?", c.Param("slug")).First(&g).Error; err != nil {
		respondLookup(c, err)
		return
	}

	list, err := artistsOf(db, g.ID)
	if err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}
	c.JSON(http.StatusOK, publicGallery{Gallery: g, Artists: list})
}

// PUT /api/galleries/me
func UpdateMe(c *gin.Context) {
	userID := c.GetUint("user_id")
	ctx := c.Request.Context()

	var in struct {
		Name     *string `json:"name"`
		Bio      *string `json:"bio"`
		Website  *string `json:"website"`
		Location *string `json:"location"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		apierr.Bind(c, err)
		return
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" || len(name) > 120 {
			apierr.Message(c, apierr.Validation, "Gallery name must be 1-120 characters")
			return
		}
		updates["name"] = name
	}
	if in.Bio != nil {
		updates["bio"] = strings.TrimSpace(*in.Bio)
	}
	if in.Location != nil {
		updates["location"] = strings.TrimSpace(*in.Location)
	}
	if in.Website != nil {
		w := strings.TrimSpace(*in.Website)
		if !artists.ValidWebsite(w) {
			apierr.Message(c, apierr.Validation, "Website must be an http(s) URL")
			return
		}
		updates["website"] = w
	}

	g, err := profiles.GalleryForUser(ctx, database.DB, userID)
	if err != nil {
		respondLookup(c, err)
		return
	}
	if len(updates) > 0 {
		if err := database.DB.WithContext(ctx).Model(&g).Updates(updates).Error; err != nil {
			apierr.Respond(c, apierr.Database, err, nil)
			return
		}
	}
	g, err = profiles.GalleryForUser(ctx, database.DB, userID)
	if err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}
	c.JSON(http.StatusOK, g)
}

// GET /api/galleries/me/artists
func ListMyArtists(c *gin.Context) {
	ctx := c.Request.Context()
	g, err := profiles.GalleryForUser(ctx, database.DB, c.GetUint("user_id"))
	if err != nil {
		respondLookup(c, err)
		return
	}
	list, err := artistsOf(database.DB.WithContext(ctx), g.ID)
	if err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"artists": list})
}

func artistsOf(db *gorm.DB, galleryID uint) ([]artistSummary, error) {
	var list []profiles.Artist
	if err := db.Preload("ProfilePicture").
		Where("gallery_id = ?", galleryID).
		Order("created_at ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return []artistSummary{}, nil
	}

	ids := make([]uint, len(list))
	for i, a := range list {
		ids[i] = a.ID
	}
	var counts []struct {
		ArtistID uint
		N        int64
	}
	if err := db.Model(&works.Artwork{}).
		Select("artist_id, COUNT(*) AS n").
		Where("artist_id IN ? AND status = ?", ids, works.StatusPublished).
		Group("artist_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	published := make(map[uint]int64, len(counts))
	for _, row := range counts {
		published[row.ArtistID] = row.N
	}

	out := make([]artistSummary, 0, len(list))
	for _, a := range list {
		s := artistSummary{ID: a.ID, Slug: a.Slug, DisplayName: a.DisplayName(), PublishedArtworks: published[a.ID]}
		if a.ProfilePicture != nil {
			s.PictureURL = a.ProfilePicture.PublicURL
		}
		out = append(out, s)
	}
	return out, nil
}

func respondLookup(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		apierr.Respond(c, apierr.NotFound, err, nil)
		return
	}
	apierr.Respond(c, apierr.Database, err, nil)
}
