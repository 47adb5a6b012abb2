// Package account handles student invitations, email verification by OTP,
// signup, login and profiles.
package account

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrAlreadyExists      = errors.New("account already exists")
	ErrNotFound           = errors.New("account not found")
	ErrNotAllowed         = errors.New("email not allowed, contact admin")
	ErrNotVerified        = errors.New("email not verified")
	ErrInvalidOTP         = errors.New("invalid otp")
	ErrOTPExpired         = errors.New("otp expired")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidInput       = errors.New("invalid input")
)

// User is a stored account. PasswordHash never leaves the service.
type User struct {
	ID           int64     `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"join_date"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t\r\n")
}
