// Package user defines accounts and roles.
package user

import "time"

// Roles an account can hold.
const (
	RoleStudent    = "student"
	RoleCounsellor = "counsellor"
	RoleAdmin      = "admin"
)

// ValidRole reports whether role is one of the known account roles.
func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleCounsellor, RoleAdmin:
		return true
	}
	return false
}

// User is an account. Password holds the bcrypt hash and never serializes.
type User struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	Password      string    `json:"-"`
	Role          string    `json:"role"`
	Phone         string    `json:"phone,omitempty"`
	Experience    int       `json:"experience,omitempty"`
	Certification string    `json:"certification,omitempty"`
	Rating        float64   `json:"rating,omitempty"`
	IsAvailable   bool      `json:"is_available"`
	IsVerified    bool      `json:"is_verified"`
	CreatedAt     time.Time `json:"created_at"`
}
