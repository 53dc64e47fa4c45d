package models

import (
	"strings"
	"time"
)

const MinUserAge = 13

type User struct {
	ID           string `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	FirstName    string `json:"firstName" bson:"first_name" gorm:"not null"`
	LastName     string `json:"lastName" bson:"last_name" gorm:"not null"`
	Age          int    `json:"age" bson:"age" gorm:"not null"`
	Email        string `json:"email" bson:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string `json:"-" bson:"password_hash" gorm:"not null"`

	// Both reset fields are nil outside an open reset window.
	ResetToken          *string    `json:"-" bson:"reset_token" gorm:"type:text"`
	ResetTokenExpiresAt *time.Time `json:"-" bson:"reset_token_expires_at"`

	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// HasOpenReset reports whether a reset token is pending and unexpired at now.
func (u *User) HasOpenReset(now time.Time) bool {
	return u.ResetToken != nil && u.ResetTokenExpiresAt != nil && u.ResetTokenExpiresAt.After(now)
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) StampCreated(now time.Time) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
}
