package collection

import (
	"time"

	"kaleidorium/internal/domain/works"
)

// Item is an artwork saved to a collector's collection.
type Item struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CollectorID uint           `gorm:"not null;uniqueIndex:idx_collection_pair,priority:1" json:"-"`
	ArtworkID   string         `gorm:"type:uuid;not null;uniqueIndex:idx_collection_pair,priority:2;index" json:"artwork_id"`
	Artwork     *works.Artwork `gorm:"constraint:OnDelete:CASCADE;" json:"artwork,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (Item) TableName() string {
	return "collection"
}
