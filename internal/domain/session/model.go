package session

import (
	"time"

	"github.com/karowl/simportal/internal/database"
	"github.com/karowl/simportal/internal/domain/token"
	"github.com/lib/pq"
)

// Status is the lifecycle state of a session row
type Status string

const (
	StatusActive     Status = "active"
	StatusExpired    Status = "expired"
	StatusTerminated Status = "terminated"
)

// Session is the audit row persisted for every login event. The row ID is
// the session ID embedded in the issued token. Rows transition to expired
// or terminated and are never resurrected.
type Session struct {
	database.BaseModel

	UserID           string            `gorm:"column:user_id;not null;index"`
	Email            string            `gorm:"column:email"`
	Role             token.Role        `gorm:"column:role;type:text;not null"`
	SessionType      token.SessionType `gorm:"column:session_type;type:text;not null"`
	PlatformLaunched bool              `gorm:"column:platform_launched;default:true"`
	Status           Status            `gorm:"column:status;type:text;default:'active';index"`
	ExpiresAt        time.Time         `gorm:"column:expires_at;not null"`
	LastActivityAt   time.Time         `gorm:"column:last_activity_at"`
	LoginCount       int               `gorm:"column:login_count;default:1"`
	Permissions      pq.StringArray    `gorm:"column:permissions;type:text[]"`

	IPAddress string `gorm:"column:ip_address;type:text"`
	UserAgent string `gorm:"column:user_agent;type:text"`
}

func (Session) TableName() string {
	return "sessions"
}

// Identity is the resolved caller identity handed to downstream components.
// Token claims win for role and permissions; the persisted row wins for
// timestamps and login count when it was reachable.
type Identity struct {
	Claims         token.Claims
	LoginCount     int
	CreatedAt      time.Time
	LastActivityAt time.Time

	// Degraded is set when the audit store could not be consulted and the
	// identity was built from token claims alone.
	Degraded bool
}
