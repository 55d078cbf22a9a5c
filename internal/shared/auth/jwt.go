package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const (
	devSecret  = "dev-secret"
	defaultTTL = 24 * time.Hour
)

// Claims represents the identity contained in a JWT.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwtlib.RegisteredClaims
}

var (
	ErrInvalidToken = errors.New("invalid token")

	mu     sync.RWMutex
	secret = []byte(devSecret)
	ttl    = defaultTTL
)

// Configure sets the signing secret and token lifetime. Call on startup.
func Configure(signingSecret string, tokenTTL time.Duration) {
	mu.Lock()
	defer mu.Unlock()
	if s := strings.TrimSpace(signingSecret); s != "" {
		secret = []byte(s)
	} else {
		secret = []byte(devSecret)
	}
	if tokenTTL > 0 {
		ttl = tokenTTL
	} else {
		ttl = defaultTTL
	}
}

// SignJWT signs an HS256 token for the given user.
func SignJWT(userID, email, name string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", errors.New("sub is required")
	}
	mu.RLock()
	key, lifetime := secret, ttl
	mu.RUnlock()

	now := time.Now().UTC()
	claims := Claims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(lifetime)),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(key)
}

// VerifyJWT verifies a token and returns its claims.
func VerifyJWT(tokenStr string) (Claims, error) {
	mu.RLock()
	key := secret
	mu.RUnlock()

	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return *claims, nil
}
