package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	svc := NewTokenService([]byte("secret"), 0)
	userID := uuid.New()

	tok, exp, err := svc.Issue(userID)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(DefaultTokenTTL), exp, time.Minute)

	got, err := svc.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := NewTokenService([]byte("secret"), DefaultTokenTTL).WithClock(func() time.Time { return issuedAt })

	tok, _, err := svc.Issue(uuid.New())
	require.NoError(t, err)

	later := svc.WithClock(func() time.Time { return issuedAt.Add(DefaultTokenTTL + time.Second) })
	_, err = later.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)

	// one second before expiry is still fine
	almost := svc.WithClock(func() time.Time { return issuedAt.Add(DefaultTokenTTL - time.Second) })
	_, err = almost.Verify(tok)
	assert.NoError(t, err)
}

func TestVerify_Invalid(t *testing.T) {
	t.Parallel()

	svc := NewTokenService([]byte("right"), time.Hour)
	other := NewTokenService([]byte("wrong"), time.Hour)

	foreign, _, err := other.Issue(uuid.New())
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: uuid.New().String(),
	}).SignedString([]byte("right"))
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("right"))
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   uuid.New().String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("right"))
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"garbage":      "not.a.token",
		"empty":        "",
		"wrong secret": foreign,
		"missing exp":  noExp,
		"bad subject":  badSubject,
		"wrong alg":    hs512,
	} {
		_, err := svc.Verify(tok)
		assert.ErrorIs(t, err, ErrTokenInvalid, name)
	}
}

func TestPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("secret1", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)
	assert.True(t, CheckPassword(hash, "secret1"))
	assert.False(t, CheckPassword(hash, "secret2"))

	again, err := HashPassword("secret1", 4)
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "hashes must be salted")
}
