package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"journify/core/internal/models"
)

const refreshTokenType = "refresh"

var ErrInvalidToken = errors.New("invalid token")

// Claims is the verified payload of a Journify token. Access tokens carry
// the user's email; refresh tokens carry Type == "refresh" instead.
type Claims struct {
	Email string `json:"email,omitempty"`
	Type  string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) IsRefresh() bool {
	return c.Type == refreshTokenType
}

// TokenPair is the access/refresh pair issued on login, signup, and refresh.
type TokenPair struct {
	AuthToken    string
	RefreshToken string
}

// TokenIssuer signs and verifies HS512 session tokens. The injected clock
// drives both issue timestamps and expiry validation so tests can pin time.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      clockwork.Clock
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration, clock clockwork.Clock) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		clock:      clock,
	}
}

// IssuePair creates a fresh access/refresh token pair for user.
func (i *TokenIssuer) IssuePair(user *models.User) (TokenPair, error) {
	now := i.clock.Now()

	auth, err := i.sign(Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
	})
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign auth token: %w", err)
	}

	refresh, err := i.sign(Claims{
		Type: refreshTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.refreshTTL)),
		},
	})
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return TokenPair{AuthToken: auth, RefreshToken: refresh}, nil
}

func (i *TokenIssuer) sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(i.secret)
}

// Parse verifies the signature and expiry of tokenStr and returns its
// claims. Expired or tampered tokens return ErrInvalidToken.
func (i *TokenIssuer) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{},
		func(t *jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithTimeFunc(i.clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Valid reports whether tokenStr verifies and has not expired.
func (i *TokenIssuer) Valid(tokenStr string) bool {
	_, err := i.Parse(tokenStr)
	return err == nil
}

// TimeToExpiry returns the remaining lifetime of a verifiable token.
// The second return is false when the token does not verify.
func (i *TokenIssuer) TimeToExpiry(tokenStr string) (time.Duration, bool) {
	claims, err := i.Parse(tokenStr)
	if err != nil || claims.ExpiresAt == nil {
		return 0, false
	}
	return claims.ExpiresAt.Time.Sub(i.clock.Now()), true
}
