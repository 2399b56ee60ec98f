package model

import "gorm.io/gorm"

// EmailTaken reports whether any account uses email
func EmailTaken(db *gorm.DB, email string) (bool, error) {
	var n int64

	err := db.Model(&User{}).
		Where("email = ?", email).
		Count(&n).
		Error

	return n > 0, err
}

// UsernameTaken reports whether an account other than exceptID uses
// username. Pass 0 to check every account.
func UsernameTaken(db *gorm.DB, username string, exceptID uint) (bool, error) {
	var n int64

	q := db.Model(&User{}).Where("username = ?", username)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}

	err := q.Count(&n).Error
	return n > 0, err
}
