package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"tasklist/internal/core/domain"
	"tasklist/pkg/auth"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const secret = "test-secret"

func TestJWT_IssueAndValidate(t *testing.T) {
	tokens := auth.NewJWT(secret)

	token, err := tokens.Issue("alice", 30*time.Minute)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	subject, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)
}

func TestJWT_ClaimsCarryIssueAndExpiry(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	tokens := auth.NewJWT(secret, auth.WithClock(func() time.Time { return now }))

	token, err := tokens.Issue("alice", 30*time.Minute)
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)

	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, now.Add(30*time.Minute).Unix(), claims.ExpiresAt.Unix())
}

func TestJWT_Expired(t *testing.T) {
	issuedAt := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer := auth.NewJWT(secret, auth.WithClock(func() time.Time { return issuedAt }))

	token, err := issuer.Issue("alice", time.Minute)
	require.NoError(t, err)

	later := auth.NewJWT(secret, auth.WithClock(func() time.Time { return issuedAt.Add(2 * time.Minute) }))

	_, err = later.Validate(token)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestJWT_Invalid(t *testing.T) {
	tokens := auth.NewJWT(secret)

	foreign, err := auth.NewJWT("other-secret").Issue("alice", time.Minute)
	require.NoError(t, err)

	noSubject, err := tokens.Issue("", time.Minute)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "alice"}).SignedString([]byte(secret))
	require.NoError(t, err)

	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	valid, err := tokens.Issue("alice", time.Minute)
	require.NoError(t, err)
	tampered := valid[:len(valid)-2] + "xx"

	for name, token := range map[string]string{
		"garbage":         "not-a-token",
		"empty":           "",
		"foreign secret":  foreign,
		"missing subject": noSubject,
		"missing expiry":  noExpiry,
		"wrong algorithm": wrongAlg,
		"tampered":        tampered,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := tokens.Validate(token)
			assert.ErrorIs(t, err, domain.ErrTokenInvalid)
		})
	}
}
