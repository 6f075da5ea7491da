package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisTxRetries = 3

// RedisStore implements Store on redis. Each token lives under a hash key
// with a TTL matching its expiry; a per-account key points at the active hash.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore creates a redis-backed refresh token store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "portal:refresh", now: time.Now}
}

type redisRecord struct {
	ID        string    `json:"id"`
	AccountID int64     `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *RedisStore) tokenKey(hash string) string {
	return s.prefix + ":token:" + hash
}

func (s *RedisStore) accountKey(accountID int64) string {
	return s.prefix + ":account:" + strconv.FormatInt(accountID, 10)
}

// Replace swaps the account pointer to rec, dropping the previous token.
func (s *RedisStore) Replace(ctx context.Context, rec Record) error {
	accountKey := s.accountKey(rec.AccountID)
	return s.retry(ctx, func(tx *redis.Tx) error {
		previous, err := tx.Get(ctx, accountKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		return s.write(ctx, tx, previous, rec)
	}, accountKey)
}

// FindByHash loads a record by token hash.
func (s *RedisStore) FindByHash(ctx context.Context, tokenHash string) (Record, error) {
	raw, err := s.client.Get(ctx, s.tokenKey(tokenHash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	var stored redisRecord
	if err := json.Unmarshal(raw, &stored); err != nil {
		return Record{}, err
	}
	return Record{
		ID:        stored.ID,
		AccountID: stored.AccountID,
		TokenHash: tokenHash,
		CreatedAt: stored.CreatedAt,
		ExpiresAt: stored.ExpiresAt,
	}, nil
}

// Rotate replaces oldHash with next if oldHash is still the account's active token.
func (s *RedisStore) Rotate(ctx context.Context, oldHash string, next Record) error {
	accountKey := s.accountKey(next.AccountID)
	return s.retry(ctx, func(tx *redis.Tx) error {
		active, err := tx.Get(ctx, accountKey).Result()
		if errors.Is(err, redis.Nil) || (err == nil && active != oldHash) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return s.write(ctx, tx, oldHash, next)
	}, accountKey, s.tokenKey(oldHash))
}

// DeleteByHash removes the token and, when it is the active one, the account pointer.
func (s *RedisStore) DeleteByHash(ctx context.Context, tokenHash string) error {
	rec, err := s.FindByHash(ctx, tokenHash)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	accountKey := s.accountKey(rec.AccountID)
	return s.retry(ctx, func(tx *redis.Tx) error {
		active, err := tx.Get(ctx, accountKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, s.tokenKey(tokenHash))
			if active == tokenHash {
				pipe.Del(ctx, accountKey)
			}
			return nil
		})
		return err
	}, accountKey)
}

func (s *RedisStore) write(ctx context.Context, tx *redis.Tx, previousHash string, rec Record) error {
	ttl := rec.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		ttl = time.Second
	}
	payload, err := json.Marshal(redisRecord{
		ID:        rec.ID,
		AccountID: rec.AccountID,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	})
	if err != nil {
		return err
	}
	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if previousHash != "" && previousHash != rec.TokenHash {
			pipe.Del(ctx, s.tokenKey(previousHash))
		}
		pipe.Set(ctx, s.tokenKey(rec.TokenHash), payload, ttl)
		pipe.Set(ctx, s.accountKey(rec.AccountID), rec.TokenHash, ttl)
		return nil
	})
	return err
}

func (s *RedisStore) retry(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error {
	var err error
	for i := 0; i < redisTxRetries; i++ {
		err = s.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

var _ Store = (*RedisStore)(nil)
