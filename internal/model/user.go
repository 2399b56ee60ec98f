// Package model defines database models
package model

import "time"

// User is an account. It starts inactive with a VerificationToken and becomes
// active exactly once, when that token is presented back.
type User struct {
	ID                uint    `gorm:"primaryKey;autoIncrement"`
	Email             string  `gorm:"uniqueIndex;not null"`
	Username          string  `gorm:"uniqueIndex;not null"`
	HashedPassword    string  `gorm:"not null"`
	IsActive          bool    `gorm:"default:false;not null"`
	VerificationToken *string `gorm:"uniqueIndex"`
	CreatedAt         time.Time
	UpdatedAt         time.Time

	ResendRequest ResendRequest `gorm:"foreignKey:UserID"`
}

// Pending reports whether the account still waits for email verification
func (u *User) Pending() bool {
	return !u.IsActive && u.VerificationToken != nil
}
