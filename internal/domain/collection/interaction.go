package collection

import (
	"time"

	"kaleidorium/internal/domain/works"
)

const (
	ActionLike    = "like"
	ActionDislike = "dislike"
	ActionSkip    = "skip"
)

// Interaction records the latest swipe of a collector on an artwork.
type Interaction struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CollectorID uint           `gorm:"not null;uniqueIndex:idx_interaction_pair,priority:1" json:"-"`
	ArtworkID   string         `gorm:"type:uuid;not null;uniqueIndex:idx_interaction_pair,priority:2;index" json:"artwork_id"`
	Artwork     *works.Artwork `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	Action      string         `gorm:"type:varchar(10);not null" json:"action"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func IsValidAction(a string) bool {
	switch a {
	case ActionLike, ActionDislike, ActionSkip:
		return true
	}
	return false
}
