// Package ownertoken implementa la sesión administrativa: una única
// credencial compartida de owner que se canjea por un JWT firmado con HMAC.
package ownertoken

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"paws-and-places/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrBadCredentials = errors.New("bad credentials")
	ErrTokenInvalid   = errors.New("token invalid")
)

const issuer = "paws-and-places"

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	password []byte
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

func NewService(ownerPassword, tokenSecret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Service{
		password: []byte(ownerPassword),
		secret:   []byte(tokenSecret),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Login compara la credencial en tiempo constante y emite el token de sesión.
func (s *Service) Login(password string) (string, error) {
	if len(s.password) == 0 {
		return "", ErrBadCredentials
	}
	if subtle.ConstantTimeCompare([]byte(password), s.password) != 1 {
		return "", ErrBadCredentials
	}

	now := s.now()
	claims := sessionClaims{
		Role: auth.RoleOwner,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   auth.RoleOwner,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify implementa auth.AuthVerifier.
func (s *Service) Verify(ctx context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenInvalid
	}

	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return auth.Claims{}, ErrTokenInvalid
	}

	return auth.Claims{
		Subject: claims.Subject,
		Role:    claims.Role,
	}, nil
}
