package auth

// Package auth contains domain-level types for credentials, roles, and
// session state. It is pure and free of adapter concerns.

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of authorization roles known to the dashboard.
// Backend role labels are mapped through ParseRole so an unrecognized label
// is a detectable error rather than a silent fallback.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleEmployee   Role = "employee"
)

// roleRank orders roles for primary-role derivation. Higher wins.
var roleRank = map[Role]int{
	RoleEmployee:   0,
	RoleSupervisor: 1,
	RoleAdmin:      2,
}

// ParseRole maps a backend role label to a Role.
func ParseRole(label string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "admin", "administrator":
		return RoleAdmin, nil
	case "supervisor", "manager":
		return RoleSupervisor, nil
	case "employee", "operator":
		return RoleEmployee, nil
	default:
		return "", fmt.Errorf("unknown role label %q", label)
	}
}

// PrimaryRole returns the highest-ranked role in roles, and false when the
// slice holds no known role.
func PrimaryRole(roles []Role) (Role, bool) {
	best := Role("")
	found := false
	for _, r := range roles {
		rank, ok := roleRank[r]
		if !ok {
			continue
		}
		if !found || rank > roleRank[best] {
			best = r
			found = true
		}
	}
	return best, found
}

// Credential is the opaque bearer token proving an authenticated identity,
// together with its client-computed expiry and persistence preference.
type Credential struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Remember  bool      `json:"remember"`
}

// Expired reports whether the credential's expiry has passed at now.
func (c Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// User is the authenticated principal, normalized from the backend identity
// and profile lookups.
type User struct {
	ID         string
	Email      string
	FirstName  string
	LastName   string
	AvatarPath string
	Roles      []Role
	Primary    Role
}

// HasRole reports whether the user carries r.
func (u User) HasRole(r Role) bool {
	for _, have := range u.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the user carries at least one of roles.
// An empty allow-list matches nothing.
func (u User) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if u.HasRole(r) {
			return true
		}
	}
	return false
}

// DisplayName returns the user's name for chrome rendering, falling back to
// the email when name fields are empty.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// State is the session tri-state. It leaves StateUninitialized exactly once
// per process and never returns to it.
type State int

const (
	StateUninitialized State = iota
	StateAuthenticated
	StateUnauthenticated
)

// String implements fmt.Stringer for logging.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}
