package validators

import (
	"errors"
	"regexp"
	"unicode/utf8"
)

var (
	ErrUsernameEmpty   = errors.New("no username provided")
	ErrUsernameLength  = errors.New("username must be between 3 and 32 characters long")
	ErrUsernameInvalid = errors.New("username contains invalid characters")
)

var usernameRe = regexp.MustCompile(`^[\p{L}\p{N}_.-]+$`)

func UsernameValidator(u string) error {
	if u == "" {
		return ErrUsernameEmpty
	}

	if n := utf8.RuneCountInString(u); n < 3 || n > 32 {
		return ErrUsernameLength
	}

	if !usernameRe.MatchString(u) {
		return ErrUsernameInvalid
	}

	return nil
}
