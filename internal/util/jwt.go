package util

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token kinds. An access token is never accepted where a refresh token is
// required and vice versa.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims binds a user id and a token kind to the standard JWT claims.
// The ID (jti) makes individual tokens revocable.
type Claims struct {
	UserID int    `json:"user_id"`
	Kind   string `json:"kind"`
	jwt.RegisteredClaims
}

// RemainingTTL is the time until the token expires, used as the TTL of a
// denylist entry so revocations age out with the token itself.
func (c *Claims) RemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return time.Until(c.ExpiresAt.Time)
}

// TokenManager signs and verifies HS256 token pairs. The secret and the
// two expirations are fixed at startup.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Generate mints a single token of the given kind for a user.
func (m *TokenManager) Generate(userID int, kind string) (string, error) {
	ttl := m.accessTTL
	if kind == TokenRefresh {
		ttl = m.refreshTTL
	}

	now := time.Now()
	claims := Claims{
		UserID: userID,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// GeneratePair mints the access+refresh pair issued on register and login.
func (m *TokenManager) GeneratePair(userID int) (access string, refresh string, err error) {
	access, err = m.Generate(userID, TokenAccess)
	if err != nil {
		return "", "", err
	}
	refresh, err = m.Generate(userID, TokenRefresh)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Parse verifies the signature, expiry and kind of a token and returns its
// claims.
func (m *TokenManager) Parse(tokenStr, wantKind string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID <= 0 || claims.Kind != wantKind {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ExtractToken pulls the bearer token out of the Authorization header.
func ExtractToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	parts := strings.Split(auth, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return parts[1]
}
