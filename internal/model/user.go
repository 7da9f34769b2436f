package model

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// User is a registered buyer or seller. The email is the identity recorded
// as seller and highest bidder on auctions.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Name returns the display name, falling back to the email's local part.
func (u *User) Name() string {
	return DisplayName(u.DisplayName, u.Email)
}

// DisplayName returns name, or the local part of email when name is empty.
func DisplayName(name, email string) string {
	if name != "" {
		return name
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}

// Roles.
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
)

// ValidRole reports whether role is a known role.
func ValidRole(role string) bool {
	return role == RoleBuyer || role == RoleSeller
}

// CanSell reports whether role may list products.
func CanSell(role string) bool {
	return role == RoleSeller
}

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// ValidatePassword checks password strength requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// NormalizeEmail validates an email address and returns its bare,
// lower-cased form.
func NormalizeEmail(email string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return "", fmt.Errorf("invalid email address")
	}
	return strings.ToLower(addr.Address), nil
}
