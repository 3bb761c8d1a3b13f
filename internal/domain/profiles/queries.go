package profiles

import (
	"context"

	"gorm.io/gorm"
)

// ArtistForUser loads the artist profile owned by userID.
func ArtistForUser(ctx context.Context, db *gorm.DB, userID uint) (Artist, error) {
	var a Artist
	err := db.WithContext(ctx).Preload("ProfilePicture").Where("user_id = ?", userID).First(&a).Error
	return a, err
}

// GalleryForUser loads the gallery profile owned by userID.
func GalleryForUser(ctx context.Context, db *gorm.DB, userID uint) (Gallery, error) {
	var g Gallery
	err := db.WithContext(ctx).Preload("Logo").Where("user_id = ?", userID).First(&g).Error
	return g, err
}

// CollectorForUser loads the collector profile owned by userID.
func CollectorForUser(ctx context.Context, db *gorm.DB, userID uint) (Collector, error) {
	var c Collector
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&c).Error
	return c, err
}
