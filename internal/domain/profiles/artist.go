package profiles

import (
	"time"

	"kaleidorium/internal/domain/media"
)

type Artist struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"not null;uniqueIndex" json:"-"`
	Slug   string `gorm:"not null;uniqueIndex" json:"slug"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio,omitempty"`
	Website   string `json:"website,omitempty"`
	Location  string `json:"location,omitempty"`

	ProfilePictureID *string      `gorm:"type:uuid" json:"-"`
	ProfilePicture   *media.Image `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"profile_picture,omitempty"`

	// GalleryID is set when the artist joined through a gallery invitation.
	GalleryID *uint    `gorm:"index" json:"gallery_id,omitempty"`
	Gallery   *Gallery `gorm:"constraint:OnDelete:SET NULL;" json:"-"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a Artist) DisplayName() string {
	return joinName(a.FirstName, a.LastName)
}
