// Package auth holds the session core: password hashing, stateless session
// tokens and the path-prefix route guard.
package auth

import (
	"fmt"

	"github.com/google/uuid"
)

// Role is the closed set of account roles carried in session tokens.
type Role string

const (
	RoleStandard Role = "standard"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStandard, RoleAdmin:
		return true
	}
	return false
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Identity is what a successful sign-in yields and what clients see.
type Identity struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Avatar string    `json:"avatar"`
	Role   Role      `json:"role"`
}
