package auth

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/karowl/simportal/internal/domain/session"
	"github.com/karowl/simportal/internal/domain/token"
	"github.com/karowl/simportal/internal/domain/user"
)

// LoginResult is handed to the HTTP layer after any successful sign-in
type LoginResult struct {
	Token       string
	SessionID   uuid.UUID
	ExpiresAt   time.Time
	Role        token.Role
	SessionType token.SessionType
	Landing     string
	DisplayName string
	Email       string
}

// Service composes accounts, launches and session issuance
type Service struct {
	users    user.Service
	sessions session.Service
	launches *LaunchVerifier
}

func NewService(users user.Service, sessions session.Service, launches *LaunchVerifier) *Service {
	return &Service{users: users, sessions: sessions, launches: launches}
}

// StaffLogin signs in an approved instructor or administrator account
func (s *Service) StaffLogin(email, password, userAgent, ip string) (*LoginResult, error) {
	u, err := s.users.Authenticate(email, password)
	if err != nil {
		return nil, err
	}

	res, err := s.sessions.Create(session.CreateInput{
		UserID:           u.ID.String(),
		Email:            u.Email,
		Role:             u.Role,
		SessionType:      token.SessionTypeStaff,
		PlatformLaunched: false,
		IPAddress:        ip,
		UserAgent:        userAgent,
	})
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:       res.Token,
		SessionID:   res.SessionID,
		ExpiresAt:   res.ExpiresAt,
		Role:        u.Role,
		SessionType: token.SessionTypeStaff,
		Landing:     landingFor(u.Role, token.SessionTypeStaff),
		DisplayName: u.DisplayName,
		Email:       u.Email,
	}, nil
}

// PlatformLaunch verifies a signed launch payload and mints a
// platform-provenance learner session
func (s *Service) PlatformLaunch(req *LaunchRequest, userAgent, ip string) (*LoginResult, error) {
	if err := s.launches.Verify(req); err != nil {
		slog.Warn("Rejected platform launch", "error", err, "email", req.Email)
		return nil, err
	}

	res, err := s.sessions.Create(session.CreateInput{
		UserID:           req.UserID,
		Email:            req.Email,
		Role:             token.RoleLearner,
		SessionType:      token.SessionTypePlatform,
		PlatformLaunched: true,
		IPAddress:        ip,
		UserAgent:        userAgent,
	})
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:       res.Token,
		SessionID:   res.SessionID,
		ExpiresAt:   res.ExpiresAt,
		Role:        token.RoleLearner,
		SessionType: token.SessionTypePlatform,
		Landing:     landingFor(token.RoleLearner, token.SessionTypePlatform),
		DisplayName: req.DisplayName,
		Email:       req.Email,
	}, nil
}

// DemoLogin mints a synthetic learner session with no account behind it.
// Nothing a demo session does is ever persisted by the training engine.
func (s *Service) DemoLogin(displayName, userAgent, ip string) (*LoginResult, error) {
	demoID := "demo-" + uuid.NewString()

	res, err := s.sessions.Create(session.CreateInput{
		UserID:           demoID,
		Email:            demoID + "@demo.invalid",
		Role:             token.RoleLearner,
		SessionType:      token.SessionTypeSynthetic,
		PlatformLaunched: false,
		IPAddress:        ip,
		UserAgent:        userAgent,
	})
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:       res.Token,
		SessionID:   res.SessionID,
		ExpiresAt:   res.ExpiresAt,
		Role:        token.RoleLearner,
		SessionType: token.SessionTypeSynthetic,
		Landing:     landingFor(token.RoleLearner, token.SessionTypeSynthetic),
		DisplayName: displayName,
	}, nil
}

// Register creates a pending staff account
func (s *Service) Register(req user.RegisterRequest) (*user.User, error) {
	return s.users.Register(req)
}

func landingFor(role token.Role, sessionType token.SessionType) string {
	if sessionType == token.SessionTypeSynthetic {
		return "/simulation?demo=1"
	}
	switch role {
	case token.RoleInstructor:
		return "/instructor"
	case token.RoleAdministrator:
		return "/admin"
	default:
		return "/simulation"
	}
}
