package token

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-for-codec"

func newTestCodec(t *testing.T) *Codec {
	codec, err := NewCodec([]byte(testSecret), "simportal-test")
	require.NoError(t, err)
	return codec
}

func baseClaims(now time.Time) Claims {
	return Claims{
		SessionID:        "3f1a9c6e-0000-4000-8000-000000000001",
		UserID:           "user-42",
		Email:            "learner@example.edu",
		Role:             RoleLearner,
		SessionType:      SessionTypePlatform,
		PlatformLaunched: true,
		Permissions:      []string{"training:write"},
		IssuedAt:         now,
		ExpiresAt:        now.Add(8 * time.Hour),
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Now().UTC()
	in := baseClaims(now)

	signed, err := codec.Issue(in)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	out, err := codec.Verify(signed)
	require.NoError(t, err)

	assert.Equal(t, in.SessionID, out.SessionID)
	assert.Equal(t, in.UserID, out.UserID)
	assert.Equal(t, in.Email, out.Email)
	assert.Equal(t, in.Role, out.Role)
	assert.Equal(t, in.SessionType, out.SessionType)
	assert.True(t, out.PlatformLaunched)
	assert.Equal(t, in.Permissions, out.Permissions)
	assert.WithinDuration(t, in.IssuedAt, out.IssuedAt, time.Second)
	assert.WithinDuration(t, in.ExpiresAt, out.ExpiresAt, time.Second)
}

func TestCodec_Verify_ExpiryBoundary(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Now().UTC().Truncate(time.Second)

	claims := baseClaims(now.Add(-time.Hour))
	claims.ExpiresAt = now

	signed, err := codec.Issue(claims)
	require.NoError(t, err)

	// exp exactly equal to "now" is expired, not valid
	codec.WithClock(func() time.Time { return now })
	_, err = codec.Verify(signed)
	assert.ErrorIs(t, err, ErrExpired)

	// one second before the boundary the token is still good
	codec.WithClock(func() time.Time { return now.Add(-time.Second) })
	_, err = codec.Verify(signed)
	assert.NoError(t, err)
}

func TestCodec_Verify_Expired(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Now().UTC()

	claims := baseClaims(now.Add(-2 * time.Hour))
	claims.ExpiresAt = now.Add(-time.Hour)

	signed, err := codec.Issue(claims)
	require.NoError(t, err)

	_, err = codec.Verify(signed)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestCodec_Verify_SignatureMismatch(t *testing.T) {
	codec := newTestCodec(t)
	other, err := NewCodec([]byte("a-completely-different-secret"), "simportal-test")
	require.NoError(t, err)

	signed, err := other.Issue(baseClaims(time.Now().UTC()))
	require.NoError(t, err)

	_, err = codec.Verify(signed)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestCodec_Verify_Malformed(t *testing.T) {
	codec := newTestCodec(t)

	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "garbage", input: "not-a-token"},
		{name: "truncated", input: "eyJhbGciOiJIUzI1NiJ9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Verify(tt.input)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

// Tokens minted before the platform_launched claim existed must default to
// true so an old platform session is not downgraded to non-persisting.
func TestCodec_Verify_MissingPlatformLaunchedDefaultsTrue(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Now().UTC()

	key, err := jwk.Import([]byte(testSecret))
	require.NoError(t, err)
	require.NoError(t, key.Set(jwk.AlgorithmKey, jwa.HS256()))

	tok, err := jwt.NewBuilder().
		Subject("user-42").
		Issuer("simportal-test").
		IssuedAt(now).
		Expiration(now.Add(time.Hour)).
		Claim("sid", "legacy-session").
		Claim("email", "legacy@example.edu").
		Claim("role", string(RoleLearner)).
		Claim("session_type", string(SessionTypePlatform)).
		Build()
	require.NoError(t, err)

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), key))
	require.NoError(t, err)

	claims, err := codec.Verify(string(signed))
	require.NoError(t, err)
	assert.True(t, claims.PlatformLaunched)
}

func TestCodec_Verify_MissingExpiryRejected(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Now().UTC()

	key, err := jwk.Import([]byte(testSecret))
	require.NoError(t, err)
	require.NoError(t, key.Set(jwk.AlgorithmKey, jwa.HS256()))

	// A well-signed token without an exp claim never validates
	tok, err := jwt.NewBuilder().
		Subject("user-42").
		Issuer("simportal-test").
		IssuedAt(now).
		Claim("sid", "no-expiry-session").
		Claim("email", "learner@example.edu").
		Claim("role", string(RoleLearner)).
		Claim("session_type", string(SessionTypePlatform)).
		Build()
	require.NoError(t, err)

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), key))
	require.NoError(t, err)

	_, err = codec.Verify(string(signed))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestCodec_Verify_UnknownRoleRejected(t *testing.T) {
	codec := newTestCodec(t)
	claims := baseClaims(time.Now().UTC())
	claims.Role = Role("superuser")

	signed, err := codec.Issue(claims)
	require.NoError(t, err)

	_, err = codec.Verify(signed)
	assert.ErrorIs(t, err, ErrMalformed)
}
