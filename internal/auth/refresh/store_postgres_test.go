package refresh

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csps/portal/internal/platform/db"
)

// Runs against a migrated database when PORTAL_TEST_PG_DSN is set.
func newPostgresStore(t *testing.T) (*PostgresStore, int64) {
	t.Helper()
	dsn := os.Getenv("PORTAL_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("PORTAL_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	pool, err := db.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	var accountID int64
	err = pool.QueryRow(ctx, `
		INSERT INTO accounts (username, password_hash, role, first_name, last_name)
		VALUES ($1, 'x', 'STUDENT', 'Test', 'Account')
		RETURNING id`, "refresh-"+time.Now().Format("150405.000000000")).Scan(&accountID)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM accounts WHERE id = $1`, accountID)
	})
	return NewPostgresStore(pool), accountID
}

func TestPostgresStoreLifecycle(t *testing.T) {
	store, accountID := newPostgresStore(t)
	ctx := context.Background()
	svc := NewService(store, Config{TTL: time.Hour, Rotate: true})

	first, err := svc.Create(ctx, accountID)
	require.NoError(t, err)
	second, err := svc.Create(ctx, accountID)
	require.NoError(t, err)

	_, ok, err := svc.Redeem(ctx, first.Value)
	require.NoError(t, err)
	assert.False(t, ok, "replaced token must not redeem")

	redemption, ok, err := svc.Redeem(ctx, second.Value)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, redemption.Rotated)

	_, ok, err = svc.Redeem(ctx, second.Value)
	require.NoError(t, err)
	assert.False(t, ok, "rotated token must not redeem")

	require.NoError(t, svc.Delete(ctx, redemption.Rotated.Value))
	require.NoError(t, svc.Delete(ctx, redemption.Rotated.Value))
	_, err = store.FindByHash(ctx, HashToken(redemption.Rotated.Value))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStoreConcurrentRotationAdmitsOne(t *testing.T) {
	store, accountID := newPostgresStore(t)
	ctx := context.Background()
	svc := NewService(store, Config{TTL: time.Hour, Rotate: true})

	tok, err := svc.Create(ctx, accountID)
	require.NoError(t, err)

	const redeemers = 2
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		okCount int
		errs    []error
	)
	for i := 0; i < redeemers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := svc.Redeem(ctx, tok.Value)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
			}
			if ok {
				okCount++
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, errs)
	assert.Equal(t, 1, okCount)
}

func TestPostgresStoreRotateStaleHashIsNotFound(t *testing.T) {
	store, accountID := newPostgresStore(t)
	ctx := context.Background()

	err := store.Rotate(ctx, HashToken("never-issued"), Record{
		ID:        "6f1c8a52-6d0e-4f55-9d7e-3b0a3c1f2e10",
		AccountID: accountID,
		TokenHash: HashToken("next"),
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}
