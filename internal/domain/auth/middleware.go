package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/karowl/simportal/internal/domain/session"
	"github.com/karowl/simportal/internal/utils"
)

const (
	// IdentityKey is the key used to store the identity in Fiber context
	IdentityKey = "identity"
)

// Resolver extracts a caller identity from the request's session cookie.
// An absent cookie and a corrupt, expired or revoked token are
// indistinguishable to callers: both resolve to nil. Downstream code must
// treat nil as "no identity" and nothing more specific.
type Resolver struct {
	sessions   session.Service
	cookieName string
}

func NewResolver(sessions session.Service, cookieName string) *Resolver {
	return &Resolver{sessions: sessions, cookieName: cookieName}
}

// Resolve returns the identity for the request, or nil
func (r *Resolver) Resolve(c *fiber.Ctx) *session.Identity {
	raw := c.Cookies(r.cookieName)
	if raw == "" {
		return nil
	}

	identity, err := r.sessions.Validate(raw)
	if err != nil {
		return nil
	}
	return identity
}

// RequireIdentity rejects unauthenticated requests with a uniform response
// that never reveals which verification step failed
func RequireIdentity(r *Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := r.Resolve(c)
		if identity == nil {
			return utils.ErrorResponse(c, utils.ErrUnauthenticated.Message, utils.ErrUnauthenticated.Status)
		}

		c.Locals(IdentityKey, identity)
		return c.Next()
	}
}

// OptionalIdentity stores the identity when one resolves and continues
// either way. Handlers behind it must treat a missing identity as an
// anonymous caller.
func OptionalIdentity(r *Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if identity := r.Resolve(c); identity != nil {
			c.Locals(IdentityKey, identity)
		}
		return c.Next()
	}
}

// GetIdentity extracts the identity from Fiber context
func GetIdentity(c *fiber.Ctx) *session.Identity {
	identity, ok := c.Locals(IdentityKey).(*session.Identity)
	if !ok {
		return nil
	}
	return identity
}
