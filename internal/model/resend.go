package model

import "time"

// ResendRequest keeps track of verification mail resends so a user can't
// flood an inbox
type ResendRequest struct {
	ID         uint `gorm:"primaryKey;autoIncrement"`
	UserID     uint `gorm:"uniqueIndex"`
	LastResend time.Time
	Count      int
}

// CooledDown reports whether another resend is allowed at now
func (r *ResendRequest) CooledDown(now time.Time, cooldown time.Duration) bool {
	return r.LastResend.IsZero() || now.Sub(r.LastResend) >= cooldown
}
