package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/example/venuebook/internal/autherr"
)

// TokenKind selects the secret a token is signed and verified with.
type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

// Claims is the payload of access and refresh tokens. Refresh tokens carry
// only the account id.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
}

// TokenService signs and verifies access and refresh tokens. Each kind has its
// own secret, so a token of one kind never verifies as the other.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenService constructs a TokenService.
func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// WithClock returns a copy of the service that reads time from now.
func (ts *TokenService) WithClock(now func() time.Time) *TokenService {
	cp := *ts
	cp.now = now
	return &cp
}

// RefreshTTL is the lifetime of refresh tokens and of the cookie carrying them.
func (ts *TokenService) RefreshTTL() time.Duration {
	return ts.refreshTTL
}

// IssueAccessToken signs a token with the account id, email and role.
func (ts *TokenService) IssueAccessToken(userID uuid.UUID, email, role string) (string, error) {
	now := ts.now()
	claims := &Claims{
		UserID: userID.String(),
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.accessSecret)
}

// IssueRefreshToken signs a token carrying only the account id.
func (ts *TokenService) IssueRefreshToken(userID uuid.UUID) (string, error) {
	now := ts.now()
	claims := &Claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.refreshTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.refreshSecret)
}

// Verify validates signature and expiry. Failures are autherr.ErrTokenExpired
// or autherr.ErrTokenInvalid.
func (ts *TokenService) Verify(tokenString string, kind TokenKind) (*Claims, error) {
	secret := ts.accessSecret
	if kind == RefreshToken {
		secret = ts.refreshSecret
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(ts.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, autherr.ErrTokenExpired
		}
		return nil, autherr.ErrTokenInvalid
	}
	if !token.Valid {
		return nil, autherr.ErrTokenInvalid
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, autherr.ErrTokenInvalid
	}

	return claims, nil
}

// AccountID returns the account id embedded in the claims.
func (c *Claims) AccountID() uuid.UUID {
	id, _ := uuid.Parse(c.UserID)
	return id
}
