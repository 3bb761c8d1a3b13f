package collection

import (
	"errors"
	"net/http"
	"time"

	"kaleidorium/database"
	apiworks "kaleidorium/internal/api/works"
	"kaleidorium/internal/apierr"
	"kaleidorium/internal/domain/collection"
	"kaleidorium/internal/domain/profiles"
	"kaleidorium/internal/domain/works"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errNotPublished = errors.New("artwork not published")

func currentCollector(c *gin.Context) (profiles.Collector, bool) {
	col, err := profiles.CollectorForUser(c.Request.Context(), database.DB, c.GetUint("user_id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apierr.Message(c, apierr.Authorization, "A collector profile is required")
			return col, false
		}
		apierr.Respond(c, apierr.Database, err, nil)
		return col, false
	}
	return col, true
}

func publishedArtwork(tx *gorm.DB, id string) (works.Artwork, error) {
	var a works.Artwork
	if err := tx.First(&a, "id = ?", id).Error; err != nil {
		return a, err
	}
	if !a.IsPublished() {
		return a, errNotPublished
	}
	return a, nil
}

func respondArtworkErr(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, errNotPublished) {
		apierr.Message(c, apierr.NotFound, "Artwork not found")
		return
	}
	apierr.Respond(c, apierr.Database, err, nil)
}

// addItem saves the artwork to the collection and reports whether a new row
// was written.
func addItem(tx *gorm.DB, collectorID uint, artworkID string) (bool, error) {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&collection.Item{CollectorID: collectorID, ArtworkID: artworkID})
	return res.RowsAffected > 0, res.Error
}

// recordInteraction upserts the collector's action on an artwork and returns
// the action it replaced, "" for a first swipe.
func recordInteraction(tx *gorm.DB, collectorID uint, artworkID, action string) (string, error) {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&collection.Interaction{CollectorID: collectorID, ArtworkID: artworkID, Action: action})
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected > 0 {
		return "", nil
	}

	var it collection.Interaction
	if err := tx.Where("collector_id = ? AND artwork_id = ?", collectorID, artworkID).First(&it).Error; err != nil {
		return "", err
	}
	prev := it.Action
	if prev != action {
		if err := tx.Model(&it).Update("action", action).Error; err != nil {
			return "", err
		}
	}
	return prev, nil
}

// POST /api/artworks/:id/swipe
func Swipe(c *gin.Context) {
	var in struct {
		Action string `json:"action" binding:"required,oneof=like dislike skip"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		apierr.Bind(c, err)
		return
	}

	col, ok := currentCollector(c)
	if !ok {
		return
	}

	err := database.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		art, err := publishedArtwork(tx, c.Param("id"))
		if err != nil {
			return err
		}

		prev, err := recordInteraction(tx, col.ID, art.ID, in.Action)
		if err != nil {
			return err
		}

		switch {
		case in.Action == collection.ActionLike && prev != collection.ActionLike:
			if _, err := addItem(tx, col.ID, art.ID); err != nil {
				return err
			}
			return tx.Model(&works.Artwork{}).Where("id = ?", art.ID).
				UpdateColumn("likes_count", gorm.Expr("likes_count + 1")).Error
		case prev == collection.ActionLike && in.Action != collection.ActionLike:
			return tx.Model(&works.Artwork{}).Where("id = ? AND likes_count > 0", art.ID).
				UpdateColumn("likes_count", gorm.Expr("likes_count - 1")).Error
		}
		return nil
	})
	if err != nil {
		respondArtworkErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"artwork_id": c.Param("id"), "action": in.Action})
}

// GET /api/collection
func List(c *gin.Context) {
	col, ok := currentCollector(c)
	if !ok {
		return
	}

	var items []collection.Item
	if err := database.DB.WithContext(c.Request.Context()).
		Preload("Artwork.Image").
		Preload("Artwork.Artist").
		Where("collector_id = ?", col.ID).
		Order("created_at DESC").
		Find(&items).Error; err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	type entry struct {
		ArtworkID string               `json:"artwork_id"`
		SavedAt   time.Time            `json:"saved_at"`
		Artwork   *apiworks.ArtworkDTO `json:"artwork,omitempty"`
	}
	out := make([]entry, 0, len(items))
	for _, it := range items {
		e := entry{ArtworkID: it.ArtworkID, SavedAt: it.CreatedAt}
		if it.Artwork != nil {
			dto := apiworks.ToArtworkDTO(*it.Artwork)
			e.Artwork = &dto
		}
		out = append(out, e)
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

// POST /api/collection
func Add(c *gin.Context) {
	var in struct {
		ArtworkID string `json:"artwork_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		apierr.Bind(c, err)
		return
	}

	col, ok := currentCollector(c)
	if !ok {
		return
	}

	var created bool
	err := database.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		art, err := publishedArtwork(tx, in.ArtworkID)
		if err != nil {
			return err
		}
		created, err = addItem(tx, col.ID, art.ID)
		return err
	})
	if err != nil {
		respondArtworkErr(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"artwork_id": in.ArtworkID, "in_collection": true})
}

// DELETE /api/collection/:artwork_id
func Remove(c *gin.Context) {
	col, ok := currentCollector(c)
	if !ok {
		return
	}

	res := database.DB.WithContext(c.Request.Context()).
		Where("collector_id = ? AND artwork_id = ?", col.ID, c.Param("artwork_id")).
		Delete(&collection.Item{})
	if res.Error != nil {
		apierr.Respond(c, apierr.Database, res.Error, nil)
		return
	}
	if res.RowsAffected == 0 {
		apierr.Message(c, apierr.NotFound, "Artwork is not in your collection")
		return
	}
	c.JSON(http.StatusOK, gin.H{"artwork_id": c.Param("artwork_id"), "in_collection": false})
}
