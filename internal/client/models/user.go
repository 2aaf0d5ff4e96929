// Package models defines the canonical client-side data model of escrow-agent.
// Wire shapes are normalized into these types at the API client boundary;
// nothing else in the client sees the server's field naming.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrEmptyUpdate = errors.New("nothing to update")
	ErrUnknownRole = errors.New("unknown role")
)

// Role is a single capability a user may hold.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// Roles is the raw role string as issued by the server. A user may hold
// several roles at once, in which case they are comma-joined:
// "buyer, seller, admin".
type Roles string

// Has reports whether role is one of the comma-separated members of r.
// Membership is exact per member and case-insensitive; "buyer" does not
// match a "buyers" member.
func (r Roles) Has(role Role) bool {
	want := strings.TrimSpace(string(role))
	if want == "" {
		return false
	}
	for _, member := range strings.Split(string(r), ",") {
		if strings.EqualFold(strings.TrimSpace(member), want) {
			return true
		}
	}
	return false
}

// List returns the individual members of r in issue order.
func (r Roles) List() []Role {
	var out []Role
	for _, member := range strings.Split(string(r), ",") {
		if m := strings.TrimSpace(member); m != "" {
			out = append(out, Role(strings.ToLower(m)))
		}
	}
	return out
}

// User is the profile of the logged-in caller.
type User struct {
	ID        int64
	Username  string
	Role      Roles
	CreatedAt time.Time
}

// ProfileUpdate carries the profile fields to change. Empty fields are left
// as they are on the server.
type ProfileUpdate struct {
	Username string
	Password string
	Role     Roles
}

// IsEmpty reports whether u changes nothing.
func (u ProfileUpdate) IsEmpty() bool {
	return u.Username == "" && u.Password == "" && u.Role == ""
}

// Validate rejects an empty update and roles outside the known set.
func (u ProfileUpdate) Validate() error {
	if u.IsEmpty() {
		return ErrEmptyUpdate
	}
	if u.Role == "" {
		return nil
	}
	members := u.Role.List()
	if len(members) == 0 {
		return fmt.Errorf("%w: %q", ErrUnknownRole, u.Role)
	}
	for _, m := range members {
		if m != RoleBuyer && m != RoleSeller && m != RoleAdmin {
			return fmt.Errorf("%w: %q", ErrUnknownRole, m)
		}
	}
	return nil
}

// Credential is the bearer token plus the role resolved for it.
type Credential struct {
	Token string
	Role  Roles
}

// IsZero reports whether c holds no token.
func (c Credential) IsZero() bool {
	return c.Token == ""
}
