package profiles

import (
	"time"

	"kaleidorium/internal/domain/media"
)

type Gallery struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"not null;uniqueIndex" json:"-"`
	Slug   string `gorm:"not null;uniqueIndex" json:"slug"`

	Name     string `gorm:"not null" json:"name"`
	Bio      string `json:"bio,omitempty"`
	Website  string `json:"website,omitempty"`
	Location string `json:"location,omitempty"`

	LogoID *string      `gorm:"type:uuid" json:"-"`
	Logo   *media.Image `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"logo,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
