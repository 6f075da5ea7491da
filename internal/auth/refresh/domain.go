// Package refresh manages the opaque, long lived refresh tokens exchanged
// for new access tokens. At most one token is active per account.
package refresh

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when no record matches a token hash.
var ErrNotFound = errors.New("refresh: token not found")

// Record is the persisted form of a refresh token. Only the hash of the
// opaque value is stored.
type Record struct {
	ID        string
	AccountID int64
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the record is past its expiry at now.
func (r Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Token is a freshly minted refresh token handed to the client.
type Token struct {
	Value     string
	AccountID int64
	ExpiresAt time.Time
}

// Store persists refresh token records.
type Store interface {
	// Replace stores rec as the single active token of rec.AccountID,
	// invalidating any previous token of that account.
	Replace(ctx context.Context, rec Record) error
	// FindByHash returns the record for a token hash or ErrNotFound.
	FindByHash(ctx context.Context, tokenHash string) (Record, error)
	// Rotate atomically swaps the record identified by oldHash for next.
	// It returns ErrNotFound when oldHash is no longer active.
	Rotate(ctx context.Context, oldHash string, next Record) error
	// DeleteByHash removes a record; deleting an absent hash is not an error.
	DeleteByHash(ctx context.Context, tokenHash string) error
}

const tokenBytes = 32

func newOpaqueToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashToken returns the storage hash of an opaque token value.
func HashToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
