package token

import "time"

// Role identifies what kind of caller a session belongs to
type Role string

const (
	RoleLearner       Role = "learner"
	RoleInstructor    Role = "instructor"
	RoleAdministrator Role = "administrator"
)

// IsValid checks if the role is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleLearner, RoleInstructor, RoleAdministrator:
		return true
	default:
		return false
	}
}

// IsStaff reports whether the role is instructor or administrator
func (r Role) IsStaff() bool {
	return r == RoleInstructor || r == RoleAdministrator
}

// SessionType records the provenance of a session
type SessionType string

const (
	// SessionTypePlatform is a session minted from a learning-platform launch
	SessionTypePlatform SessionType = "platform"
	// SessionTypeStaff is an instructor/administrator login
	SessionTypeStaff SessionType = "staff"
	// SessionTypeSynthetic is a stand-alone demo login; nothing it does is persisted
	SessionTypeSynthetic SessionType = "synthetic"
)

// Claims is the verified content of a session token. Role and SessionType
// are fixed at issuance; holders cannot change them, only the issuer can
// mint a token with different claims.
type Claims struct {
	SessionID        string
	UserID           string
	Email            string
	Role             Role
	SessionType      SessionType
	PlatformLaunched bool
	Permissions      []string
	IssuedAt         time.Time
	ExpiresAt        time.Time
}
