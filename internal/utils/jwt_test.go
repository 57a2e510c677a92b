package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/venuebook/internal/autherr"
)

func newTestTokenService() *TokenService {
	return NewTokenService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
}

func TestTokenService_AccessToken(t *testing.T) {
	ts := newTestTokenService()
	id := uuid.New()

	token, err := ts.IssueAccessToken(id, "a@x.com", "venue_owner")
	require.NoError(t, err)

	claims, err := ts.Verify(token, AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id, claims.AccountID())
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "venue_owner", claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenService_RefreshTokenCarriesOnlyID(t *testing.T) {
	ts := newTestTokenService()
	id := uuid.New()

	token, err := ts.IssueRefreshToken(id)
	require.NoError(t, err)

	claims, err := ts.Verify(token, RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, id, claims.AccountID())
	assert.Empty(t, claims.Email)
	assert.Empty(t, claims.Role)
}

func TestTokenService_KindsAreNotInterchangeable(t *testing.T) {
	ts := newTestTokenService()
	id := uuid.New()

	access, err := ts.IssueAccessToken(id, "a@x.com", "venue_owner")
	require.NoError(t, err)
	refresh, err := ts.IssueRefreshToken(id)
	require.NoError(t, err)

	_, err = ts.Verify(access, RefreshToken)
	assert.ErrorIs(t, err, autherr.ErrTokenInvalid)

	_, err = ts.Verify(refresh, AccessToken)
	assert.ErrorIs(t, err, autherr.ErrTokenInvalid)
}

func TestTokenService_Expired(t *testing.T) {
	issuedAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	ts := newTestTokenService().WithClock(func() time.Time { return issuedAt })

	token, err := ts.IssueAccessToken(uuid.New(), "a@x.com", "venue_owner")
	require.NoError(t, err)

	later := ts.WithClock(func() time.Time { return issuedAt.Add(2 * time.Hour) })
	_, err = later.Verify(token, AccessToken)
	assert.ErrorIs(t, err, autherr.ErrTokenExpired)
}

func TestTokenService_Tampered(t *testing.T) {
	ts := newTestTokenService()

	_, err := ts.Verify("not.a.jwt", AccessToken)
	assert.ErrorIs(t, err, autherr.ErrTokenInvalid)

	other := NewTokenService("another-secret", "refresh-secret", time.Hour, time.Hour)
	forged, err := other.IssueAccessToken(uuid.New(), "a@x.com", "admin")
	require.NoError(t, err)

	_, err = ts.Verify(forged, AccessToken)
	assert.ErrorIs(t, err, autherr.ErrTokenInvalid)
}

func TestTokenService_RejectsNoneAlgorithm(t *testing.T) {
	ts := newTestTokenService()
	claims := &Claims{
		UserID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ts.Verify(unsigned, AccessToken)
	assert.ErrorIs(t, err, autherr.ErrTokenInvalid)
}
