package validator

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrInvalidEmail     = errors.New("invalid email")
	ErrInvalidUsername  = errors.New("invalid username")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrInvalidSlipImage = errors.New("invalid slip image reference")
	ErrCommentTooLong   = errors.New("comment too long")
)

var (
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
)

func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrInvalidPassword
	}
	return nil
}

// Slip images arrive as opaque storage references, not uploads; only
// sanity-check the shape.
func ValidateSlipImage(ref string) error {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" || len(trimmed) > 512 {
		return ErrInvalidSlipImage
	}
	return nil
}

func ValidateComment(comment string) error {
	if len(comment) > 500 {
		return ErrCommentTooLong
	}
	return nil
}
