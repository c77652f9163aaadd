package auth

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/karowl/simportal/internal/config"
	"github.com/karowl/simportal/internal/domain/session"
	"github.com/karowl/simportal/internal/domain/user"
	"github.com/karowl/simportal/internal/utils"
)

type Handler struct {
	service  *Service
	sessions session.Service
	cfg      config.AuthConfig
}

func NewHandler(service *Service, sessions session.Service, cfg config.AuthConfig) *Handler {
	return &Handler{service: service, sessions: sessions, cfg: cfg}
}

// LoginRequest is the staff sign-in body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// DemoRequest is the stand-alone demo sign-in body
type DemoRequest struct {
	DisplayName string `json:"displayName"`
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, "invalid_body", fiber.StatusBadRequest)
	}

	res, err := h.service.StaffLogin(req.Email, req.Password, c.Get("User-Agent"), c.IP())
	if err != nil {
		return loginError(c, err)
	}

	h.setSessionCookie(c, res.Token, res.ExpiresAt)
	return utils.SuccessResponse(c, loginPayload(res), "Login successful")
}

func (h *Handler) Register(c *fiber.Ctx) error {
	var req user.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, "invalid_body", fiber.StatusBadRequest)
	}

	u, err := h.service.Register(req)
	if err != nil {
		if errors.Is(err, user.ErrEmailExists) || errors.Is(err, user.ErrWrongRole) {
			return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest)
		}
		slog.Error("Failed to register account", "error", err, "email", req.Email)
		return utils.ErrorResponse(c, utils.ErrStoreUnavailable.Message, utils.ErrStoreUnavailable.Status)
	}

	return utils.SuccessResponse(c, fiber.Map{
		"email":  u.Email,
		"role":   u.Role,
		"status": u.Status,
	}, "Account created, awaiting approval", fiber.StatusCreated)
}

func (h *Handler) Launch(c *fiber.Ctx) error {
	var req LaunchRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, "invalid_body", fiber.StatusBadRequest)
	}

	res, err := h.service.PlatformLaunch(&req, c.Get("User-Agent"), c.IP())
	if err != nil {
		if errors.Is(err, ErrInvalidLaunch) {
			return utils.ErrorResponse(c, utils.ErrUnauthenticated.Message, utils.ErrUnauthenticated.Status)
		}
		slog.Error("Failed to create launch session", "error", err, "email", req.Email)
		return utils.ErrorResponse(c, utils.ErrStoreUnavailable.Message, utils.ErrStoreUnavailable.Status)
	}

	h.setSessionCookie(c, res.Token, res.ExpiresAt)
	return utils.SuccessResponse(c, loginPayload(res), "Launch successful")
}

func (h *Handler) Demo(c *fiber.Ctx) error {
	var req DemoRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, "invalid_body", fiber.StatusBadRequest)
	}

	res, err := h.service.DemoLogin(req.DisplayName, c.Get("User-Agent"), c.IP())
	if err != nil {
		slog.Error("Failed to create demo session", "error", err)
		return utils.ErrorResponse(c, utils.ErrStoreUnavailable.Message, utils.ErrStoreUnavailable.Status)
	}

	h.setSessionCookie(c, res.Token, res.ExpiresAt)
	return utils.SuccessResponse(c, loginPayload(res), "Demo session started")
}

// Me returns the resolved identity for the current session
func (h *Handler) Me(c *fiber.Ctx) error {
	identity := GetIdentity(c)
	if identity == nil {
		return utils.ErrorResponse(c, utils.ErrUnauthenticated.Message, utils.ErrUnauthenticated.Status)
	}

	return utils.SuccessResponse(c, fiber.Map{
		"sessionId":        identity.Claims.SessionID,
		"userId":           identity.Claims.UserID,
		"email":            identity.Claims.Email,
		"role":             identity.Claims.Role,
		"sessionType":      identity.Claims.SessionType,
		"platformLaunched": identity.Claims.PlatformLaunched,
		"loginCount":       identity.LoginCount,
		"lastActivityAt":   identity.LastActivityAt,
	}, "Session valid")
}

// Refresh re-issues the session cookie when it nears expiry
func (h *Handler) Refresh(c *fiber.Ctx) error {
	raw := c.Cookies(h.cfg.CookieName)
	if raw == "" {
		return utils.ErrorResponse(c, utils.ErrUnauthenticated.Message, utils.ErrUnauthenticated.Status)
	}

	refreshed, err := h.sessions.Refresh(raw)
	if err != nil {
		return utils.ErrorResponse(c, utils.ErrUnauthenticated.Message, utils.ErrUnauthenticated.Status)
	}

	if refreshed != raw {
		h.setSessionCookie(c, refreshed, time.Now().Add(h.cfg.SessionTTL))
	}
	return utils.SuccessResponse(c, fiber.Map{"refreshed": refreshed != raw}, "Session refreshed")
}

// Logout terminates the session and clears the cookie. It is observably
// successful for the caller even when the credential is already invalid or
// the store is unreachable.
func (h *Handler) Logout(c *fiber.Ctx) error {
	if identity := GetIdentity(c); identity != nil {
		if sessionID, err := uuid.Parse(identity.Claims.SessionID); err == nil {
			if err := h.sessions.Terminate(sessionID); err != nil {
				slog.Warn("Failed to terminate session on logout",
					"error", err, "session_id", identity.Claims.SessionID)
			}
		}
	}

	h.clearSessionCookie(c)
	return utils.SuccessResponse(c, nil, "Logged out")
}

func (h *Handler) setSessionCookie(c *fiber.Ctx, tokenValue string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    tokenValue,
		HTTPOnly: true,
		Secure:   h.cfg.CookieSecure,
		Path:     "/",
		SameSite: h.cfg.CookieSameSite,
		Expires:  expires,
	})
}

func (h *Handler) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		HTTPOnly: true,
		Secure:   h.cfg.CookieSecure,
		Path:     "/",
		SameSite: h.cfg.CookieSameSite,
		Expires:  time.Now().Add(-time.Hour),
	})
}

// loginError keeps credential failures generic while approval and role
// failures stay specific enough for the UI to explain
func loginError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, user.ErrPendingApproval):
		return utils.ErrorResponse(c, "account_pending_approval", fiber.StatusForbidden)
	case errors.Is(err, user.ErrRejected):
		return utils.ErrorResponse(c, "account_rejected", fiber.StatusForbidden)
	case errors.Is(err, user.ErrWrongRole):
		return utils.ErrorResponse(c, "wrong_role", fiber.StatusForbidden)
	default:
		return utils.ErrorResponse(c, utils.ErrUnauthenticated.Message, utils.ErrUnauthenticated.Status)
	}
}

func loginPayload(res *LoginResult) fiber.Map {
	return fiber.Map{
		"sessionId":   res.SessionID,
		"role":        res.Role,
		"sessionType": res.SessionType,
		"landing":     res.Landing,
		"displayName": res.DisplayName,
		"email":       res.Email,
		"expiresAt":   res.ExpiresAt,
	}
}
