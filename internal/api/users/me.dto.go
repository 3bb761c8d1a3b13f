package users

import "time"

type MeResponse struct {
	User    UserDTO     `json:"user"`
	Profile *ProfileDTO `json:"profile"`
	Billing BillingDTO  `json:"billing"`
	Access  AccessDTO   `json:"access"`
}

/* ---------- USER ---------- */

type UserDTO struct {
	ID           uint   `json:"id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	AuthProvider string `json:"auth_provider"`
	IsVerified   bool   `json:"is_verified"`
}

/* ---------- PROFILE ---------- */

type ProfileDTO struct {
	Kind              string  `json:"kind"` // artist|gallery|collector
	ID                uint    `json:"id"`
	Slug              string  `json:"slug,omitempty"`
	DisplayName       string  `json:"display_name"`
	PictureURL        *string `json:"picture_url,omitempty"`
	GalleryID         *uint   `json:"gallery_id,omitempty"`
	PublishedArtworks *int64  `json:"published_artworks,omitempty"`
}

/* ---------- BILLING ---------- */

type BillingDTO struct {
	Plan         *PlanDTO         `json:"plan"`
	Subscription *SubscriptionDTO `json:"subscription"`
	Trial        *TrialDTO        `json:"trial"`
}

type PlanDTO struct {
	ID            uint    `json:"id"`
	Key           string  `json:"key"`
	Tier          string  `json:"tier"`
	Interval      string  `json:"interval"`
	PriceEUR      float64 `json:"price_eur"`
	StripePriceID string  `json:"stripe_price_id"`
}

type SubscriptionDTO struct {
	Status           string     `json:"status"`
	CurrentPeriodEnd *time.Time `json:"current_period_end"`
}

type TrialDTO struct {
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
	DaysLeft int        `json:"days_left"`
}

/* ---------- ACCESS ---------- */

type AccessDTO struct {
	State        string     `json:"state"` // founding|trial|full|limited|locked
	Founding     bool       `json:"founding"`
	Capabilities []string   `json:"capabilities"`
	Limits       *LimitsDTO `json:"limits,omitempty"`
}

type LimitsDTO struct {
	MaxPublished int `json:"max_published"`
}
