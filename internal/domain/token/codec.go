package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

var (
	// ErrMalformed is returned when the token cannot be parsed at all
	ErrMalformed = errors.New("malformed token")
	// ErrSignatureMismatch is returned when the token signature does not verify
	ErrSignatureMismatch = errors.New("token signature mismatch")
	// ErrExpired is returned when the embedded expiry instant is not after now
	ErrExpired = errors.New("token expired")
)

// Codec signs and verifies session tokens. It is stateless: an injected
// secret and clock, nothing else. Expiry is the absolute instant embedded
// at issuance; verification only compares it against the clock.
type Codec struct {
	key    jwk.Key
	issuer string
	now    func() time.Time
}

// NewCodec creates a Codec from a shared secret
func NewCodec(secret []byte, issuer string) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}

	key, err := jwk.Import(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to import token secret: %w", err)
	}
	if err := key.Set(jwk.AlgorithmKey, jwa.HS256()); err != nil {
		return nil, fmt.Errorf("failed to set algorithm: %w", err)
	}

	return &Codec{key: key, issuer: issuer, now: time.Now}, nil
}

// WithClock overrides the codec's clock. Used by tests to pin "now".
func (c *Codec) WithClock(now func() time.Time) *Codec {
	c.now = now
	return c
}

// Issue produces a signed token embedding claims
func (c *Codec) Issue(claims Claims) (string, error) {
	builder := jwt.NewBuilder().
		Subject(claims.UserID).
		Issuer(c.issuer).
		IssuedAt(claims.IssuedAt).
		Expiration(claims.ExpiresAt).
		Claim("sid", claims.SessionID).
		Claim("email", claims.Email).
		Claim("role", string(claims.Role)).
		Claim("session_type", string(claims.SessionType)).
		Claim("platform_launched", claims.PlatformLaunched)

	if len(claims.Permissions) > 0 {
		builder = builder.Claim("permissions", claims.Permissions)
	}

	tok, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), c.key))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return string(signed), nil
}

// Verify checks the signature and expiry of tokenString and returns the
// embedded claims. Validation runs against the codec's own clock rather
// than the library's so the expiry boundary (exp <= now fails) is exact.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	tok, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.HS256(), c.key),
		jwt.WithValidate(false),
	)
	if err != nil {
		// Distinguish a bad signature from garbage input: if the token
		// parses without verification the structure was fine.
		if _, perr := jwt.Parse([]byte(tokenString), jwt.WithVerify(false), jwt.WithValidate(false)); perr == nil {
			return nil, ErrSignatureMismatch
		}
		return nil, ErrMalformed
	}

	exp, ok := tok.Expiration()
	if !ok || exp.IsZero() {
		return nil, ErrMalformed
	}
	if !exp.After(c.now()) {
		return nil, ErrExpired
	}

	return claimsFromToken(tok, exp)
}

// claimsFromToken maps the raw token payload onto typed Claims. Backward
// compatibility lives here and nowhere else: tokens minted before the
// platform_launched claim existed default to true, so an old platform
// session is never silently downgraded to a non-persisting one.
func claimsFromToken(tok jwt.Token, exp time.Time) (*Claims, error) {
	claims := &Claims{
		ExpiresAt:        exp,
		PlatformLaunched: true,
	}

	claims.UserID, _ = tok.Subject()
	claims.IssuedAt, _ = tok.IssuedAt()

	claims.SessionID = stringClaim(tok, "sid")
	claims.Email = stringClaim(tok, "email")
	claims.Role = Role(stringClaim(tok, "role"))
	claims.SessionType = SessionType(stringClaim(tok, "session_type"))

	var launched bool
	if err := tok.Get("platform_launched", &launched); err == nil {
		claims.PlatformLaunched = launched
	}

	var perms []string
	if err := tok.Get("permissions", &perms); err == nil {
		claims.Permissions = perms
	} else {
		var raw []any
		if err := tok.Get("permissions", &raw); err == nil {
			for _, p := range raw {
				if s, ok := p.(string); ok {
					claims.Permissions = append(claims.Permissions, s)
				}
			}
		}
	}

	if !claims.Role.IsValid() {
		return nil, ErrMalformed
	}

	return claims, nil
}

func stringClaim(tok jwt.Token, name string) string {
	var v string
	if err := tok.Get(name, &v); err == nil {
		return v
	}
	var raw any
	if err := tok.Get(name, &raw); err == nil {
		if s, ok := raw.(string); ok {
			return s
		}
	}
	return ""
}
