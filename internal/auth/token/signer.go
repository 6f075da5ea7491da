// Package token issues and verifies the short lived access tokens handed to
// portal clients. Tokens are HS256 JWTs; verification is stateless.
package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinKeyBytes is the minimum decoded length of the HMAC secret.
const MinKeyBytes = 32

// Claims is the claim bundle carried by access tokens.
type Claims struct {
	Username  string `json:"username"`
	Role      string `json:"role"`
	StudentID string `json:"studentId,omitempty"`
	YearLevel int    `json:"yearLevel,omitempty"`
	AdminID   int64  `json:"adminId,omitempty"`
	Position  string `json:"position,omitempty"`
	jwt.RegisteredClaims
}

// Signer signs and verifies access tokens with a symmetric key.
type Signer struct {
	key    []byte
	issuer string
	now    func() time.Time
}

// NewSigner builds a Signer from a base64 encoded secret.
func NewSigner(secret, issuer string) (*Signer, error) {
	key, err := DecodeKey(secret)
	if err != nil {
		return nil, err
	}
	return &Signer{key: key, issuer: issuer, now: time.Now}, nil
}

// DecodeKey decodes a base64 (standard or URL alphabet) secret and enforces MinKeyBytes.
func DecodeKey(secret string) ([]byte, error) {
	secret = strings.TrimSpace(secret)
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		key, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(secret, "="))
		if err != nil {
			return nil, fmt.Errorf("token: decode secret: %w", err)
		}
	}
	if len(key) < MinKeyBytes {
		return nil, ErrKeyTooShort
	}
	return key, nil
}

// WithClock overrides the time source; used by tests.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	clone := *s
	clone.now = now
	return &clone
}

// Issue embeds subject and claims, stamps issuedAt and expiry and signs the result.
func (s *Signer) Issue(claims Claims, subject string, ttl time.Duration) (string, error) {
	now := s.now().UTC()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Verify checks signature, expiry and required fields and returns the claims.
func (s *Signer) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return s.key, nil
	}, opts...)
	if err != nil {
		return nil, classify(err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrMalformed
	}
	if claims.Subject == "" || claims.Role == "" {
		return nil, ErrMalformed
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
