package services_test

import (
	"strings"
	"testing"
	"time"

	"wellness/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_jwt_secret_that_is_long_enough_0123"

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTokenService(t *testing.T, clock *fakeClock) *services.TokenService {
	t.Helper()
	tokens, err := services.NewTokenService(testSecret, clock.Now)
	require.NoError(t, err)
	return tokens
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	tokens := newTokenService(t, clock)

	token, err := tokens.Issue(42, "a@x.com")
	require.NoError(t, err)

	identity, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), identity.UserID)
	assert.Equal(t, "a@x.com", identity.Email)
}

func TestTokenService_Expired(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	tokens := newTokenService(t, clock)

	token, err := tokens.Issue(1, "a@x.com")
	require.NoError(t, err)

	clock.now = clock.now.Add(services.TokenTTL)
	_, err = tokens.Verify(token)
	assert.NoError(t, err, "token is still valid at its expiry second")

	clock.now = clock.now.Add(time.Second)
	_, err = tokens.Verify(token)
	assert.ErrorIs(t, err, services.ErrTokenExpired)
}

func TestTokenService_WrongSecret(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	tokens := newTokenService(t, clock)
	other, err := services.NewTokenService(strings.Repeat("x", services.MinSecretLength), clock.Now)
	require.NoError(t, err)

	token, err := other.Issue(1, "a@x.com")
	require.NoError(t, err)

	_, err = tokens.Verify(token)
	assert.ErrorIs(t, err, services.ErrTokenInvalid)
}

func TestTokenService_Malformed(t *testing.T) {
	tokens := newTokenService(t, &fakeClock{now: time.Now()})

	for _, raw := range []string{"", "garbage", "a.b"} {
		_, err := tokens.Verify(raw)
		assert.ErrorIs(t, err, services.ErrTokenMalformed, "token %q", raw)
	}
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	tokens := newTokenService(t, clock)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, services.Claims{
		Email: "a@x.com",
		StandardClaims: jwt.StandardClaims{
			Subject:   "1",
			ExpiresAt: clock.now.Add(time.Hour).Unix(),
		},
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tokens.Verify(token)
	assert.ErrorIs(t, err, services.ErrTokenInvalid)
}

func TestTokenService_MissingExpiry(t *testing.T) {
	tokens := newTokenService(t, &fakeClock{now: time.Now()})

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, services.Claims{
		StandardClaims: jwt.StandardClaims{Subject: "1"},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = tokens.Verify(token)
	assert.ErrorIs(t, err, services.ErrTokenExpired)
}

func TestNewTokenService_ShortSecret(t *testing.T) {
	_, err := services.NewTokenService("short", nil)
	assert.Error(t, err)
}
