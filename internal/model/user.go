package model

import "strings"

// User is the authenticated caller as carried by the bearer token.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

var staffRoles = map[string]bool{
	"admin":         true,
	"administrador": true,
	"administrator": true,
	"cajero":        true,
	"cashier":       true,
	"staff":         true,
}

// IsStaff reports whether the user may manage orders, reservations and complaints.
func (u *User) IsStaff() bool {
	return u != nil && staffRoles[strings.ToLower(u.Role)]
}
