package billing

import (
	"kaleidorium/internal/domain/plans"
	"kaleidorium/internal/domain/users"
	"time"
)

type Payment struct {
	ID                   uint        `gorm:"primaryKey" json:"id"`
	UserID               uint        `gorm:"index" json:"-"`
	User                 users.User  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	PlanID               *uint       `json:"plan_id,omitempty"`
	Plan                 *plans.Plan `json:"plan,omitempty"`
	StripeInvoiceID      string      `gorm:"uniqueIndex" json:"invoice_id"`
	StripeSubscriptionID *string     `json:"-"`
	AmountEUR            float64     `json:"amount_eur"`
	Currency             string      `json:"currency"`
	Status               string      `json:"status"`
	ReceiptURL           *string     `json:"receipt_url,omitempty"`
	CreatedAt            time.Time   `json:"created_at"`
}
