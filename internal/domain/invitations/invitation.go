package invitations

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRevoked  = "revoked"
	StatusExpired  = "expired"

	TTL = 7 * 24 * time.Hour
)

// Invitation lets a gallery (or an admin) bring an artist onto the platform.
type Invitation struct {
	ID    string `gorm:"type:uuid;primaryKey" json:"id"`
	// at most one pending invitation per address
	Email string `gorm:"not null;index;uniqueIndex:idx_invitations_pending_email,where:status = 'pending'" json:"email"`

	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Message   string `json:"message,omitempty"`

	Token           string `gorm:"not null;uniqueIndex" json:"-"`
	InvitedByUserID uint   `gorm:"not null;index" json:"-"`
	GalleryID       *uint  `gorm:"index" json:"gallery_id,omitempty"`

	Status     string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Status == "" {
		i.Status = StatusPending
	}
	return nil
}

// ExpireStale marks pending invitations for email that ran out before now,
// releasing the address for a new invitation.
func ExpireStale(tx *gorm.DB, email string, now time.Time) error {
	return tx.Model(&Invitation{}).
		Where("email = ? AND status = ? AND expires_at <= ?", email, StatusPending, now).
		Update("status", StatusExpired).Error
}

// Open reports whether the invitation can still be accepted.
func (i Invitation) Open(now time.Time) bool {
	return i.Status == StatusPending && now.Before(i.ExpiresAt)
}
