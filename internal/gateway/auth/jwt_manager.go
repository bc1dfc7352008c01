package auth

import (
	"fmt"
	"strings"
	"time"

	jwtgo "github.com/golang-jwt/jwt/v5"
)

const (
	DefaultMaxTimeout = 15 * time.Second
	minSecretLength   = 32
)

type JWTTokenGenerator interface {
	// GenerateJWT generates a JWT token bound to the request method, path and body.
	GenerateJWT(methodAndPath string, body []byte, expiresAt time.Time) (string, error)
}

// JWTManager signs HS256 tokens with the secret shared between the session layer and the bridge host.
type JWTManager struct {
	secret     []byte
	MaxTimeout time.Duration
}

var _ JWTTokenGenerator = (*JWTManager)(nil)

func (m *JWTManager) GenerateJWT(methodAndPath string, body []byte, expiresAt time.Time) (string, error) {
	now := time.Now()
	if expiresAt.After(now.Add(m.MaxTimeout)) {
		expiresAt = now.Add(m.MaxTimeout)
	}

	claims := &customClaims{
		BodyHash:      HashBody(body),
		MethodAndPath: strings.TrimSpace(methodAndPath),
		RegisteredClaims: jwtgo.RegisteredClaims{
			IssuedAt:  jwtgo.NewNumericDate(now),
			ExpiresAt: jwtgo.NewNumericDate(expiresAt),
		},
	}
	token := jwtgo.NewWithClaims(jwtgo.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing JWT token with claims: %w", err)
	}

	return tokenString, nil
}

// NewJWTManager creates a token manager for the given shared secret.
func NewJWTManager(secret string, maxTimeout time.Duration) (*JWTManager, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("the JWT secret must be at least %d characters long", minSecretLength)
	}

	if maxTimeout <= 0 {
		maxTimeout = DefaultMaxTimeout
	}

	return &JWTManager{
		secret:     []byte(secret),
		MaxTimeout: maxTimeout,
	}, nil
}
