// Package auth handles sessions, passwords and the optional GitHub sign-in.
//
// HOW A SESSION WORKS:
// After a successful login the server signs a JWT whose Subject is the user's
// internal ID and puts it in an HttpOnly cookie. Every later request carries
// the cookie back; the Session middleware validates the signature and expiry
// and, if all is well, stores the user ID in the request context. Nothing is
// kept server-side, so logging out is just deleting the cookie.
//
// WHY A JWT AND NOT A RANDOM SESSION ID?
// A random ID needs a sessions table and a lookup on every request. A signed
// token carries its own proof. The price is that a stolen token stays valid
// until it expires, which is what SESSION_TTL bounds.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// issuer is written into every token and required on validation, so tokens
// minted by some other service sharing the secret are still rejected.
const issuer = "blog"

// MinSecretLength is the shortest signing secret NewTokenService accepts.
const MinSecretLength = 16

// ErrInvalidToken is returned for any token that must not be trusted.
var ErrInvalidToken = errors.New("auth: invalid session token")

// TokenService issues and checks session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService signing with secret (HMAC-SHA256).
// Tokens expire ttl after they are issued.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("auth: session secret must be at least %d characters", MinSecretLength)
	}
	if ttl <= 0 {
		return nil, errors.New("auth: session lifetime must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL is how long issued tokens stay valid. The session cookie uses the same
// lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Generate issues a token for userID.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.generate(userID, time.Now(), s.ttl)
}

func (s *TokenService) generate(userID string, now time.Time, ttl time.Duration) (string, error) {
	c := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		Issuer:    issuer,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate checks a token and returns the user ID it was issued for.
//
// WithValidMethods pins the algorithm to HS256. Without it, a token whose
// header says "alg": "none" could slip through libraries that trust the
// header.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	var c jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenStr, &c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || c.Subject == "" {
		return "", ErrInvalidToken
	}
	return c.Subject, nil
}
