// Package auth issues and verifies the bearer tokens that carry actor
// identity and scopes into the lifecycle engine.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/config"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/record"
)

// Verification errors.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims represents the JWT claims.
type Claims struct {
	jwt.RegisteredClaims
	Role   string   `json:"role"`
	Scopes []string `json:"scopes"`
}

// Manager handles JWT operations.
type Manager struct {
	config *config.JWTConfig
}

// NewManager creates a new JWT manager.
func NewManager(cfg *config.JWTConfig) *Manager {
	return &Manager{config: cfg}
}

// Mint generates a signed access token for the given actor.
func (m *Manager) Mint(userID, role string, scopes []record.Scope) (string, error) {
	now := time.Now()

	scopeStrs := make([]string, len(scopes))
	for i, s := range scopes {
		scopeStrs[i] = string(s)
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.AccessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		Role:   role,
		Scopes: scopeStrs,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.config.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token string and resolves it into an
// actor context for the engine.
func (m *Manager) Verify(tokenString string) (record.ActorContext, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(m.config.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.config.Issuer),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return record.ActorContext{}, ErrExpiredToken
		}
		return record.ActorContext{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return record.ActorContext{}, ErrInvalidToken
	}

	scopes := make([]record.Scope, len(claims.Scopes))
	for i, s := range claims.Scopes {
		scopes[i] = record.Scope(s)
	}

	return record.ActorContext{
		UserID: claims.Subject,
		Role:   claims.Role,
		Scopes: scopes,
	}, nil
}
