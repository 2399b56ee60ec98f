package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

type BcryptHash struct {
	Cost int
}

// NewBcrypt returns a bcrypt hasher. Non positive costs fall back to
// bcrypt.DefaultCost
func NewBcrypt(cost int) *BcryptHash {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}

	return &BcryptHash{Cost: cost}
}

func (b *BcryptHash) GenerateFromPassword(p string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(p), b.Cost)
	if err != nil {
		return "", err
	}

	return string(h), nil
}

// VerifyPasswd compares a password p with the stored bcrypt hash e. A
// mismatch is reported as ok == false with a nil error
func (b *BcryptHash) VerifyPasswd(p, e string) (ok bool, err error) {
	err = bcrypt.CompareHashAndPassword([]byte(e), []byte(p))
	if err == nil {
		return true, nil
	}

	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}

	return false, err
}
