package works

import (
	"errors"
	"net/http"
	"strconv"

	"kaleidorium/database"
	"kaleidorium/internal/apierr"
	"kaleidorium/internal/domain/discovery"
	"kaleidorium/internal/domain/profiles"
	"kaleidorium/internal/domain/works"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultSearchLimit = 24
	MaxSearchLimit     = 100

	DefaultDiscoverLimit = 20
	MaxDiscoverLimit     = 50

	// ranked discovery scores this many recent candidates
	discoverPool = 200
)

func clampLimit(v, def, max int) int {
	if v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}

// ------------------------------
// GET /api/search-artworks
// ------------------------------
func (h *Handler) Search(c *gin.Context) {
	var q SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		apierr.Bind(c, err)
		return
	}
	q.Limit = clampLimit(q.Limit, DefaultSearchLimit, MaxSearchLimit)

	db := database.DB.WithContext(c.Request.Context())

	var total int64
	if err := applySearch(publishedArtworksQuery(db), q).Count(&total).Error; err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	var list []works.Artwork
	if err := applySearch(publishedArtworksQuery(db), q).
		Preload("Image").
		Preload("Artist").
		Order("artworks.published_at DESC, artworks.created_at DESC").
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&list).Error; err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	c.JSON(http.StatusOK, SearchResponse{
		Results: toArtworkDTOs(list),
		Total:   total,
		Limit:   q.Limit,
		Offset:  q.Offset,
	})
}

// ------------------------------
// GET /api/discover (optional auth)
// ------------------------------
func (h *Handler) Discover(c *gin.Context) {
	ctx := c.Request.Context()
	limit, _ := strconv.Atoi(c.Query("limit"))
	limit = clampLimit(limit, DefaultDiscoverLimit, MaxDiscoverLimit)

	if !isCollector(c) {
		list, err := discovery.Candidates(ctx, database.DB, 0, limit)
		if err != nil {
			apierr.Respond(c, apierr.Database, err, nil)
			return
		}
		out := make([]DiscoverItemDTO, 0, len(list))
		for _, a := range list {
			out = append(out, DiscoverItemDTO{Artwork: ToArtworkDTO(a)})
		}
		c.JSON(http.StatusOK, gin.H{"artworks": out, "personalized": false})
		return
	}

	col, err := profiles.CollectorForUser(ctx, database.DB, c.GetUint("user_id"))
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	taste, err := discovery.LoadTaste(ctx, database.DB, col)
	if err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}
	candidates, err := discovery.Candidates(ctx, database.DB, col.ID, discoverPool)
	if err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	ranked := discovery.Rank(taste, candidates)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]DiscoverItemDTO, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, DiscoverItemDTO{Artwork: ToArtworkDTO(r.Artwork), Score: r.Score, Reason: r.Reason})
	}
	c.JSON(http.StatusOK, gin.H{"artworks": out, "personalized": !taste.Empty()})
}
