// Package session keeps the authenticated identity of the CLI user across invocations.
package session

import (
	"fmt"
	"strings"
)

// Role is the authorization scope of an identity.
type Role string

const (
	RoleRecruiter Role = "recruiter"
	RoleCandidate Role = "candidate"
)

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleRecruiter, RoleCandidate:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

func (r Role) String() string { return string(r) }

// Identity is the decoded user. It is either fully populated or absent (nil).
type Identity struct {
	Subject string
	Role    Role
	UserID  int
}

// HasRole reports whether the identity's role is one of roles. An empty set matches any role.
func (i *Identity) HasRole(roles ...Role) bool {
	if i == nil {
		return false
	}
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if r == i.Role {
			return true
		}
	}
	return false
}
