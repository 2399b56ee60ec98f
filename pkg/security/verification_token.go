package security

import "bitwise74/portal-web/pkg/util"

const (
	tokenSize = 32
)

// NewVerificationToken returns a fresh single-use email verification token
func NewVerificationToken() (string, error) {
	return util.GenerateToken(tokenSize)
}
