package media

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	BucketArtworkImages   = "artwork-images"
	BucketProfilePictures = "profile-pictures"
)

// Image is a stored object plus the metadata needed to serve or delete it.
type Image struct {
	ID           string `gorm:"type:uuid;primaryKey" json:"id"`
	Bucket       string `gorm:"not null;index" json:"bucket"`
	ObjectKey    string `gorm:"not null" json:"object_key"`
	PublicURL    string `gorm:"not null" json:"url"`
	Backend      string `gorm:"type:varchar(20);not null" json:"-"`
	MimeType     string `json:"mime_type"`
	Size         int64  `json:"size"`
	OriginalName string `json:"original_name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *Image) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
