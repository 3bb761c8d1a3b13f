package users

import (
	"kaleidorium/internal/domain/plans"
	"time"
)

const (
	RoleCollector = "collector"
	RoleArtist    = "artist"
	RoleGallery   = "gallery"
	RoleAdmin     = "admin"
)

type User struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	Email        string  `gorm:"not null;uniqueIndex:idx_users_email" json:"email"`
	Password     *string `json:"-"`
	AuthProvider string  `gorm:"type:varchar(20);not null;default:'local'" json:"auth_provider"`
	GoogleSub    *string `gorm:"uniqueIndex:idx_users_google_sub" json:"-"`
	Role         string  `gorm:"type:varchar(20);not null;default:'collector';index" json:"role"`
	IsVerified   bool    `json:"is_verified"`

	PlanID *uint       `json:"plan_id,omitempty"`
	Plan   *plans.Plan `json:"plan,omitempty"`

	SubscriptionID           *string    `gorm:"column:subscription_id;uniqueIndex:idx_users_subscription_id" json:"-"`
	StripeCustomerID         *string    `gorm:"column:stripe_customer_id;uniqueIndex:idx_users_stripe_customer_id" json:"-"`
	StripeSubscriptionStatus *string    `gorm:"column:stripe_subscription_status" json:"-"`
	CurrentPeriodEnd         *time.Time `gorm:"column:current_period_end" json:"-"`

	TrialStartAt *time.Time `gorm:"column:trial_start_at" json:"-"`
	TrialEndAt   *time.Time `gorm:"column:trial_end_at" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsValidSignupRole reports whether a role may be chosen at registration.
func IsValidSignupRole(role string) bool {
	switch role {
	case RoleCollector, RoleArtist, RoleGallery:
		return true
	}
	return false
}
