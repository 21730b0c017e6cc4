package domain

import (
	"errors"
	"time"
)

const (
	RoleAdmin  = "admin"
	RoleVendor = "vendor"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access forbidden")
)

// ValidRole reports whether role may be assigned to an operator account.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleVendor
}

// User is an operator of the admin or vendor console.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	VendorID     string    `json:"vendor_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
