package domain

import "strings"

// Role is a closed enumeration; anything outside it is rejected at the
// door by ParseRole rather than falling through string comparisons.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RolePatient:
		return RolePatient, nil
	case RoleDoctor:
		return RoleDoctor, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", ErrUnknownRole
	}
}

// Identity is the verified {id, role} attached to a connection by the
// auth layer. A zero UserID means the connection is unauthenticated
// (insecure mode) and the join payload supplies the identity instead.
type Identity struct {
	UserID string
	Name   string
	Role   Role
}

func (i Identity) Verified() bool { return i.UserID != "" }
