package discovery

import (
	"context"

	"kaleidorium/internal/domain/collection"
	"kaleidorium/internal/domain/profiles"
	"kaleidorium/internal/domain/works"

	"gorm.io/gorm"
)

// history caps how many past swipes feed a taste profile
const history = 200

func PreferencesOf(c profiles.Collector) Preferences {
	return Preferences{
		Mediums:   c.PreferredMediums,
		Styles:    c.PreferredStyles,
		Interests: c.Interests,
		BudgetMin: c.BudgetMin,
		BudgetMax: c.BudgetMax,
	}
}

// LoadTaste builds the taste profile of a collector from their preferences
// and most recent likes and dislikes.
func LoadTaste(ctx context.Context, db *gorm.DB, c profiles.Collector) (TasteProfile, error) {
	liked, err := swiped(ctx, db, c.ID, collection.ActionLike)
	if err != nil {
		return TasteProfile{}, err
	}
	disliked, err := swiped(ctx, db, c.ID, collection.ActionDislike)
	if err != nil {
		return TasteProfile{}, err
	}
	return BuildTasteProfile(PreferencesOf(c), liked, disliked), nil
}

func swiped(ctx context.Context, db *gorm.DB, collectorID uint, action string) ([]works.Artwork, error) {
	var list []works.Artwork
	err := db.WithContext(ctx).
		Joins("JOIN interactions ON interactions.artwork_id = artworks.id").
		Where("interactions.collector_id = ? AND interactions.action = ?", collectorID, action).
		Order("interactions.updated_at DESC").
		Limit(history).
		Find(&list).Error
	return list, err
}

// Candidates returns up to limit recent published artworks the collector has
// not swiped yet. collectorID 0 means anonymous.
func Candidates(ctx context.Context, db *gorm.DB, collectorID uint, limit int) ([]works.Artwork, error) {
	q := db.WithContext(ctx).
		Preload("Image").
		Preload("Artist").
		Where("artworks.status = ?", works.StatusPublished)
	if collectorID != 0 {
		q = q.Where("artworks.id NOT IN (?)",
			db.Model(&collection.Interaction{}).Select("artwork_id").Where("collector_id = ?", collectorID))
	}
	var list []works.Artwork
	err := q.Order("artworks.published_at DESC, artworks.created_at DESC").Limit(limit).Find(&list).Error
	return list, err
}
