package refresh

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on the refresh_tokens table. The unique
// constraint on account_id serialises concurrent logins of one account.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed refresh token store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Replace upserts the account's single active token.
func (s *PostgresStore) Replace(ctx context.Context, rec Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (id, account_id, token_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_id) DO UPDATE
		SET id = EXCLUDED.id,
		    token_hash = EXCLUDED.token_hash,
		    created_at = EXCLUDED.created_at,
		    expires_at = EXCLUDED.expires_at
	`, rec.ID, rec.AccountID, rec.TokenHash, rec.CreatedAt, rec.ExpiresAt)
	return err
}

// FindByHash loads a record by token hash.
func (s *PostgresStore) FindByHash(ctx context.Context, tokenHash string) (Record, error) {
	var rec Record
	err := s.pool.QueryRow(ctx, `
		SELECT id, account_id, token_hash, created_at, expires_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`, tokenHash).Scan(&rec.ID, &rec.AccountID, &rec.TokenHash, &rec.CreatedAt, &rec.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Rotate overwrites the row for oldHash with next in a single statement. A
// concurrent writer that already replaced oldHash leaves no matching row, so the
// loser sees ErrNotFound instead of a serialization failure.
func (s *PostgresStore) Rotate(ctx context.Context, oldHash string, next Record) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE refresh_tokens
		SET id = $2, token_hash = $3, created_at = $4, expires_at = $5
		WHERE token_hash = $1 AND account_id = $6
	`, oldHash, next.ID, next.TokenHash, next.CreatedAt, next.ExpiresAt, next.AccountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByHash removes the record (idempotent).
func (s *PostgresStore) DeleteByHash(ctx context.Context, tokenHash string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE token_hash = $1`, tokenHash)
	return err
}

var _ Store = (*PostgresStore)(nil)
