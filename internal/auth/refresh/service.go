package refresh

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config tunes the refresh token lifecycle.
type Config struct {
	TTL time.Duration
	// Rotate replaces the presented token with a new one on every successful
	// redemption. When false a token stays valid until it expires or is deleted.
	Rotate bool
}

// Service implements create, redeem and delete over a Store.
type Service struct {
	store Store
	cfg   Config
	now   func() time.Time
}

// NewService constructs a Service.
func NewService(store Store, cfg Config) *Service {
	return &Service{store: store, cfg: cfg, now: time.Now}
}

// WithClock overrides the time source; used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	clone := *s
	clone.now = now
	return &clone
}

// Rotates reports whether redemption rotates the presented token.
func (s *Service) Rotates() bool {
	return s.cfg.Rotate
}

// Create mints a new token for accountID, replacing any prior one.
func (s *Service) Create(ctx context.Context, accountID int64) (Token, error) {
	value, rec, err := s.mint(accountID)
	if err != nil {
		return Token{}, err
	}
	if err := s.store.Replace(ctx, rec); err != nil {
		return Token{}, fmt.Errorf("refresh: store token: %w", err)
	}
	return Token{Value: value, AccountID: accountID, ExpiresAt: rec.ExpiresAt}, nil
}

// Redemption is the outcome of a successful Redeem.
type Redemption struct {
	AccountID int64
	// Rotated holds the replacement token when rotation is enabled.
	Rotated *Token
}

// Redeem validates a presented token. It returns ok=false, with a nil error,
// when the token is unknown, superseded or expired; err is reserved for
// storage failures.
func (s *Service) Redeem(ctx context.Context, presented string) (Redemption, bool, error) {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return Redemption{}, false, nil
	}
	hash := HashToken(presented)
	rec, err := s.store.FindByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Redemption{}, false, nil
		}
		return Redemption{}, false, fmt.Errorf("refresh: lookup: %w", err)
	}
	if rec.Expired(s.now()) {
		if err := s.store.DeleteByHash(ctx, hash); err != nil {
			return Redemption{}, false, fmt.Errorf("refresh: drop expired: %w", err)
		}
		return Redemption{}, false, nil
	}

	result := Redemption{AccountID: rec.AccountID}
	if !s.cfg.Rotate {
		return result, true, nil
	}

	value, next, err := s.mint(rec.AccountID)
	if err != nil {
		return Redemption{}, false, err
	}
	if err := s.store.Rotate(ctx, hash, next); err != nil {
		if errors.Is(err, ErrNotFound) {
			// Lost a race with a concurrent refresh or logout.
			return Redemption{}, false, nil
		}
		return Redemption{}, false, fmt.Errorf("refresh: rotate: %w", err)
	}
	result.Rotated = &Token{Value: value, AccountID: rec.AccountID, ExpiresAt: next.ExpiresAt}
	return result, true, nil
}

// Delete removes the presented token. Absent or blank tokens are a no-op.
func (s *Service) Delete(ctx context.Context, presented string) error {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return nil
	}
	if err := s.store.DeleteByHash(ctx, HashToken(presented)); err != nil {
		return fmt.Errorf("refresh: delete: %w", err)
	}
	return nil
}

func (s *Service) mint(accountID int64) (string, Record, error) {
	value, err := newOpaqueToken()
	if err != nil {
		return "", Record{}, fmt.Errorf("refresh: generate token: %w", err)
	}
	now := s.now().UTC()
	return value, Record{
		ID:        uuid.NewString(),
		AccountID: accountID,
		TokenHash: HashToken(value),
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.TTL),
	}, nil
}
