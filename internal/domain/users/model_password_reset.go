package users

import "time"

const (
	OTPLength      = 6
	OTPTTL         = 10 * time.Minute
	OTPMaxAttempts = 5
)

// PasswordResetOTP stores a bcrypt hash of a short numeric code mailed to the user.
type PasswordResetOTP struct {
	ID        uint       `gorm:"primaryKey"`
	Email     string     `gorm:"not null;index"`
	CodeHash  string     `gorm:"not null"`
	Attempts  int        `gorm:"not null;default:0"`
	ExpiresAt time.Time  `gorm:"not null"`
	UsedAt    *time.Time
	CreatedAt time.Time
}

func (PasswordResetOTP) TableName() string {
	return "password_reset_otps"
}

func (o PasswordResetOTP) Usable(now time.Time) bool {
	return o.UsedAt == nil && now.Before(o.ExpiresAt) && o.Attempts < OTPMaxAttempts
}
