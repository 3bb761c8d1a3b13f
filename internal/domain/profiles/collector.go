package profiles

import "time"

// Collector holds the taste preferences used by discovery and recommendations.
type Collector struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;uniqueIndex" json:"-"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	PreferredMediums []string `gorm:"type:text;serializer:json" json:"preferred_mediums"`
	PreferredStyles  []string `gorm:"type:text;serializer:json" json:"preferred_styles"`
	Interests        []string `gorm:"type:text;serializer:json" json:"interests"`

	BudgetMin *float64 `json:"budget_min,omitempty"`
	BudgetMax *float64 `json:"budget_max,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c Collector) DisplayName() string {
	return joinName(c.FirstName, c.LastName)
}
