package models

import (
	"time"
)

// OtpToken holds a one-time password for a password reset, keyed by email.
// A new request replaces any previous token for the same address.
type OtpToken struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	OTP       string    `gorm:"size:12;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
}

func (t *OtpToken) IsExpired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}
