package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/karowl/simportal/internal/cache"
	"github.com/karowl/simportal/internal/database"
	"github.com/karowl/simportal/internal/domain/token"
	"github.com/lib/pq"
)

var (
	// ErrInvalidSession is returned when the token or session row is invalid
	ErrInvalidSession = errors.New("invalid session")
	// ErrExpiredSession is returned when the session has expired
	ErrExpiredSession = errors.New("session expired")
)

// CreateInput describes a login event
type CreateInput struct {
	UserID           string
	Email            string
	Role             token.Role
	SessionType      token.SessionType
	PlatformLaunched bool
	Permissions      []string
	IPAddress        string
	UserAgent        string
}

// CreateResult is the issued credential for a new session
type CreateResult struct {
	SessionID uuid.UUID
	Token     string
	ExpiresAt time.Time
}

// Service interface for session operations
type Service interface {
	Create(input CreateInput) (*CreateResult, error)
	Validate(tokenString string) (*Identity, error)
	Refresh(tokenString string) (string, error)
	Terminate(sessionID uuid.UUID) error
	ExpireAllForUser(userID string) error
}

// revocationCache is the subset of the revocation cache the service
// consults; satisfied by *cache.SessionRevocationCache
type revocationCache interface {
	RevokeSession(ctx context.Context, sessionID string, ttl time.Duration) error
	IsSessionRevoked(ctx context.Context, sessionID string) (bool, error)
}

type service struct {
	repo            Repository
	codec           *token.Codec
	ttl             time.Duration
	revocationCache revocationCache
	now             func() time.Time
}

// NewService creates a session Service without a revocation cache
func NewService(repo Repository, codec *token.Codec, ttl time.Duration) Service {
	return &service{repo: repo, codec: codec, ttl: ttl, now: time.Now}
}

// NewServiceWithCache creates a Service with an optional revocation cache.
// A nil cache means terminations are only visible through the database.
func NewServiceWithCache(repo Repository, codec *token.Codec, ttl time.Duration, revocations *cache.SessionRevocationCache) Service {
	svc := &service{repo: repo, codec: codec, ttl: ttl, now: time.Now}
	if revocations != nil {
		svc.revocationCache = revocations
	}
	return svc
}

// Create allocates a fresh session ID, persists the audit row and issues a
// token carrying the same ID. A persistence failure is logged and swallowed:
// the token alone keeps the session usable, validation falls back to claims.
func (s *service) Create(input CreateInput) (*CreateResult, error) {
	now := s.now().UTC()
	sessionID := uuid.New()
	expiresAt := now.Add(s.ttl)

	sess := &Session{
		UserID:           input.UserID,
		Email:            input.Email,
		Role:             input.Role,
		SessionType:      input.SessionType,
		PlatformLaunched: input.PlatformLaunched,
		Status:           StatusActive,
		ExpiresAt:        expiresAt,
		LastActivityAt:   now,
		LoginCount:       s.nextLoginCount(input.UserID),
		Permissions:      pq.StringArray(input.Permissions),
		IPAddress:        input.IPAddress,
		UserAgent:        input.UserAgent,
	}
	sess.ID = sessionID

	if err := s.repo.Create(sess); err != nil {
		slog.Warn("Failed to persist session row, continuing with bearer token only",
			"error", err, "session_id", sessionID.String(), "user_id", input.UserID)
	}

	signed, err := s.codec.Issue(token.Claims{
		SessionID:        sessionID.String(),
		UserID:           input.UserID,
		Email:            input.Email,
		Role:             input.Role,
		SessionType:      input.SessionType,
		PlatformLaunched: input.PlatformLaunched,
		Permissions:      input.Permissions,
		IssuedAt:         now,
		ExpiresAt:        expiresAt,
	})
	if err != nil {
		return nil, err
	}

	return &CreateResult{SessionID: sessionID, Token: signed, ExpiresAt: expiresAt}, nil
}

// nextLoginCount is best-effort: a lookup failure never blocks a login
func (s *service) nextLoginCount(userID string) int {
	prev, err := s.repo.FindLatestByUserID(userID)
	if err != nil {
		if !database.IsNotFound(err) {
			slog.Warn("Failed to look up previous sessions for login count", "error", err, "user_id", userID)
		}
		return 1
	}
	return prev.LoginCount + 1
}

// Validate verifies the token and reconciles it with the persisted row.
// When the store cannot be reached the identity is built from the token
// claims alone so read-mostly traffic survives a degraded audit store, at
// the cost of server-side revocation for that call.
func (s *service) Validate(tokenString string) (*Identity, error) {
	claims, err := s.codec.Verify(tokenString)
	if err != nil {
		return nil, ErrInvalidSession
	}

	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return nil, ErrInvalidSession
	}

	if s.revocationRecorded(sessionID) {
		return nil, ErrInvalidSession
	}

	sess, err := s.repo.FindActiveByID(sessionID)
	if err != nil {
		if !database.IsNotFound(err) {
			slog.Warn("Session store unavailable, degrading to token-only identity",
				"error", err, "session_id", claims.SessionID, "email", claims.Email)
		}
		return &Identity{
			Claims:         *claims,
			LoginCount:     1,
			CreatedAt:      claims.IssuedAt,
			LastActivityAt: claims.IssuedAt,
			Degraded:       true,
		}, nil
	}

	now := s.now().UTC()
	if !sess.ExpiresAt.After(now) {
		if err := s.repo.MarkExpired(sessionID); err != nil {
			slog.Warn("Failed to mark session expired", "error", err, "session_id", claims.SessionID)
		}
		return nil, ErrExpiredSession
	}

	if err := s.repo.TouchActivity(sessionID, now); err != nil {
		slog.Warn("Failed to touch session activity", "error", err, "session_id", claims.SessionID)
	}

	// Row wins for timestamps, token wins for role and permissions
	merged := *claims
	merged.ExpiresAt = sess.ExpiresAt

	return &Identity{
		Claims:         merged,
		LoginCount:     sess.LoginCount,
		CreatedAt:      sess.CreatedAt,
		LastActivityAt: now,
	}, nil
}

// Refresh re-issues the credential when it is close to expiry. While more
// than half the session TTL remains the input token is returned unchanged.
func (s *service) Refresh(tokenString string) (string, error) {
	identity, err := s.Validate(tokenString)
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	if identity.Claims.ExpiresAt.Sub(now) > s.ttl/2 {
		return tokenString, nil
	}

	newExpiry := now.Add(s.ttl)
	sessionID, err := uuid.Parse(identity.Claims.SessionID)
	if err != nil {
		return "", ErrInvalidSession
	}

	if err := s.repo.ExtendExpiry(sessionID, newExpiry); err != nil {
		slog.Warn("Failed to extend persisted session expiry", "error", err, "session_id", identity.Claims.SessionID)
	}

	claims := identity.Claims
	claims.IssuedAt = now
	claims.ExpiresAt = newExpiry

	return s.codec.Issue(claims)
}

// Terminate is idempotent and never errors on an unknown session
func (s *service) Terminate(sessionID uuid.UUID) error {
	var remaining time.Duration
	if sess, err := s.repo.FindByID(sessionID); err == nil {
		remaining = sess.ExpiresAt.Sub(s.now())
	}

	if err := s.repo.Terminate(sessionID); err != nil {
		return err
	}

	s.recordRevocation(sessionID, remaining)
	return nil
}

// ExpireAllForUser transitions every active session of a user to expired
// and records each in the revocation cache so outstanding bearer tokens
// stop validating immediately.
func (s *service) ExpireAllForUser(userID string) error {
	active, err := s.repo.ListActiveByUserID(userID)
	if err != nil {
		slog.Warn("Failed to list active sessions before expire-all", "error", err, "user_id", userID)
	}

	if err := s.repo.ExpireAllForUser(userID); err != nil {
		return err
	}

	for _, sess := range active {
		s.recordRevocation(sess.ID, sess.ExpiresAt.Sub(s.now()))
	}
	return nil
}

func (s *service) revocationRecorded(sessionID uuid.UUID) bool {
	if s.revocationCache == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	revoked, err := s.revocationCache.IsSessionRevoked(ctx, sessionID.String())
	if err != nil {
		slog.Warn("Failed to consult revocation cache", "error", err, "session_id", sessionID.String())
		return false
	}
	return revoked
}

func (s *service) recordRevocation(sessionID uuid.UUID, remaining time.Duration) {
	if s.revocationCache == nil {
		return
	}
	if remaining <= 0 {
		remaining = time.Hour
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.revocationCache.RevokeSession(ctx, sessionID.String(), remaining); err != nil {
		slog.Warn("Failed to record session revocation", "error", err, "session_id", sessionID.String())
	}
}
