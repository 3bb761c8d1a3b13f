package works

import (
	"time"

	"kaleidorium/internal/domain/media"
	"kaleidorium/internal/domain/profiles"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

type Artwork struct {
	ID string `gorm:"type:uuid;primaryKey" json:"id"`

	ArtistID  uint              `gorm:"not null;index:idx_artworks_artist_sort,priority:1" json:"artist_id"`
	Artist    *profiles.Artist  `gorm:"constraint:OnDelete:CASCADE;" json:"artist,omitempty"`
	GalleryID *uint             `gorm:"index" json:"gallery_id,omitempty"`
	Gallery   *profiles.Gallery `gorm:"constraint:OnDelete:SET NULL;" json:"-"`

	Title       string   `gorm:"not null" json:"title"`
	Description string   `json:"description,omitempty"`
	Medium      string   `gorm:"index" json:"medium,omitempty"`
	Dimensions  string   `json:"dimensions,omitempty"`
	Year        *int     `json:"year,omitempty"`
	Price       *float64 `gorm:"type:numeric(12,2);index" json:"price,omitempty"`
	Currency    string   `gorm:"type:varchar(3);not null;default:'EUR'" json:"currency"`

	ImageID *string      `gorm:"type:uuid" json:"-"`
	Image   *media.Image `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"image,omitempty"`

	Tags     []string `gorm:"type:text;serializer:json" json:"tags"`
	Styles   []string `gorm:"type:text;serializer:json" json:"styles"`
	Subjects []string `gorm:"type:text;serializer:json" json:"subjects"`
	Colors   []string `gorm:"type:text;serializer:json" json:"colors"`
	Mood     string   `json:"mood,omitempty"`

	Status     string `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	SortIndex  int    `gorm:"not null;default:0;index:idx_artworks_artist_sort,priority:2" json:"sort_index"`
	Sold       bool   `gorm:"not null;default:false" json:"sold"`
	LikesCount int    `gorm:"not null;default:0" json:"likes_count"`

	PublishedAt *time.Time `json:"published_at,omitempty"`
	TaggedAt    *time.Time `json:"tagged_at,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Artwork) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = StatusDraft
	}
	if a.Currency == "" {
		a.Currency = "EUR"
	}
	return nil
}

func (a Artwork) IsPublished() bool {
	return a.Status == StatusPublished
}
