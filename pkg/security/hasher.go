// Package security contains everything related to the security of user data
package security

import "fmt"

// Hasher hashes passwords and checks them against stored hashes. The
// encoded hash is opaque to callers.
type Hasher interface {
	GenerateFromPassword(p string) (string, error)
	VerifyPasswd(p, encoded string) (bool, error)
}

// NewHasher returns the Hasher registered under name
func NewHasher(name string, bcryptCost int) (Hasher, error) {
	switch name {
	case "bcrypt":
		return NewBcrypt(bcryptCost), nil
	case "argon2id":
		return NewArgon(), nil
	default:
		return nil, fmt.Errorf("unknown password hash %q", name)
	}
}
