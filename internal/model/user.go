package model

import (
	"strings"
	"time"
)

// Role is the single authorization role held by a credential.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleArtist   Role = "artist"
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
)

// ParseRole normalises a raw role name.  The boolean is false for
// unknown values.
func ParseRole(raw string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(raw))); r {
	case RoleAdmin, RoleArtist, RoleCustomer, RoleStaff:
		return r, true
	}
	return "", false
}

// Home returns the dashboard path a caller with this role lands on
// when they are sent away from a page they may not see.
func (r Role) Home() string {
	switch r {
	case RoleAdmin:
		return "/admin"
	case RoleArtist:
		return "/artist"
	case RoleCustomer:
		return "/customer"
	}
	return "/"
}

// AccountStatus is the administrative state of a credential.
type AccountStatus string

const (
	StatusActive    AccountStatus = "active"
	StatusInactive  AccountStatus = "inactive"
	StatusSuspended AccountStatus = "suspended"
)

// ParseStatus normalises a raw status value.
func ParseStatus(raw string) (AccountStatus, bool) {
	switch s := AccountStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusActive, StatusInactive, StatusSuspended:
		return s, true
	}
	return "", false
}

// User represents one account as stored in the `users` table.  The
// role is a single nullable column; a NULL role resolves to
// customer (see EffectiveRole).
//
// Fields:
//
//	ID             – primary key identifier.
//	Name           – display name.
//	Email          – unique, lower-cased email address.
//	PasswordHash   – bcrypt digest.
//	Role           – assigned role, nil when never assigned.
//	Status         – active, inactive or suspended.
//	FailedAttempts – consecutive failed logins since the last success.
//	LastLoginAt    – last successful login (nullable).
//	ArtistID       – linked artist profile, nil for non-artists.
//	CreatedAt      – timestamp of creation.
//	UpdatedAt      – timestamp of last update.
type User struct {
	ID             uint64        // users.id
	Name           string        // users.name
	Email          string        // users.email
	PasswordHash   string        // users.password_hash
	Role           *Role         // users.role (nullable)
	Status         AccountStatus // users.status
	FailedAttempts uint32        // users.failed_attempts
	LastLoginAt    *time.Time    // users.last_login_at (nullable)
	ArtistID       *uint64       // artists.id joined on artists.user_id
	CreatedAt      time.Time     // users.created_at
	UpdatedAt      time.Time     // users.updated_at
}

// EffectiveRole returns the assigned role or customer when none is set.
func (u User) EffectiveRole() Role {
	if u.Role == nil || *u.Role == "" {
		return RoleCustomer
	}
	return *u.Role
}

// NormalizeEmail trims and lower-cases an email address.  Every lookup
// and insert goes through it so the unique index is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Artist is an artist profile row.  Its ID is the owned-resource id
// embedded in artist session tokens.
type Artist struct {
	ID           uint64  // artists.id
	UserID       *uint64 // artists.user_id (nullable for catalog-only artists)
	Name         string  // artists.name
	ContactEmail string  // artists.contact_email
	Bio          string  // artists.bio
}
