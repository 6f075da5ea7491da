package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// MOCK STORE
// ============================================================================

type memoryStore struct {
	mu        sync.Mutex
	byHash    map[string]Record
	byAccount map[int64]string
	failWith  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{byHash: make(map[string]Record), byAccount: make(map[int64]string)}
}

func (m *memoryStore) Replace(ctx context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if prev, ok := m.byAccount[rec.AccountID]; ok {
		delete(m.byHash, prev)
	}
	m.byHash[rec.TokenHash] = rec
	m.byAccount[rec.AccountID] = rec.TokenHash
	return nil
}

func (m *memoryStore) FindByHash(ctx context.Context, tokenHash string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return Record{}, m.failWith
	}
	rec, ok := m.byHash[tokenHash]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (m *memoryStore) Rotate(ctx context.Context, oldHash string, next Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byAccount[next.AccountID] != oldHash {
		return ErrNotFound
	}
	delete(m.byHash, oldHash)
	m.byHash[next.TokenHash] = next
	m.byAccount[next.AccountID] = next.TokenHash
	return nil
}

func (m *memoryStore) DeleteByHash(ctx context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byHash[tokenHash]
	if !ok {
		return nil
	}
	delete(m.byHash, tokenHash)
	if m.byAccount[rec.AccountID] == tokenHash {
		delete(m.byAccount, rec.AccountID)
	}
	return nil
}

func (m *memoryStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byHash)
}

// ============================================================================
// TESTS
// ============================================================================

func TestCreateReplacesPreviousToken(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	svc := NewService(store, Config{TTL: 30 * 24 * time.Hour})

	first, err := svc.Create(ctx, 7)
	require.NoError(t, err)
	second, err := svc.Create(ctx, 7)
	require.NoError(t, err)
	assert.NotEqual(t, first.Value, second.Value)
	assert.Equal(t, 1, store.count())

	_, ok, err := svc.Redeem(ctx, first.Value)
	require.NoError(t, err)
	assert.False(t, ok, "superseded token must be unusable")

	got, ok, err := svc.Redeem(ctx, second.Value)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(7), got.AccountID)
}

func TestRedeemWithoutRotationKeepsTokenUsable(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryStore(), Config{TTL: time.Hour})

	tok, err := svc.Create(ctx, 3)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		got, ok, err := svc.Redeem(ctx, tok.Value)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, int64(3), got.AccountID)
		assert.Nil(t, got.Rotated)
	}
}

func TestRedeemWithRotationInvalidatesOldToken(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryStore(), Config{TTL: time.Hour, Rotate: true})

	tok, err := svc.Create(ctx, 3)
	require.NoError(t, err)

	got, ok, err := svc.Redeem(ctx, tok.Value)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, got.Rotated)
	assert.NotEqual(t, tok.Value, got.Rotated.Value)

	_, ok, err = svc.Redeem(ctx, tok.Value)
	require.NoError(t, err)
	assert.False(t, ok)

	again, ok, err := svc.Redeem(ctx, got.Rotated.Value)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(3), again.AccountID)
}

func TestRedeemExpiredReturnsNone(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	issuedAt := time.Now().Add(-31 * 24 * time.Hour)
	svc := NewService(store, Config{TTL: 30 * 24 * time.Hour}).WithClock(func() time.Time { return issuedAt })

	tok, err := svc.Create(ctx, 9)
	require.NoError(t, err)

	later := NewService(store, Config{TTL: 30 * 24 * time.Hour})
	_, ok, err := later.Redeem(ctx, tok.Value)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, store.count(), "expired record is dropped on detection")
}

func TestRedeemUnknownOrBlank(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryStore(), Config{TTL: time.Hour})

	_, ok, err := svc.Redeem(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = svc.Redeem(ctx, "   ")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedeemSurfacesStoreFailure(t *testing.T) {
	store := newMemoryStore()
	store.failWith = errors.New("connection refused")
	svc := NewService(store, Config{TTL: time.Hour})

	_, ok, err := svc.Redeem(context.Background(), "anything")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	svc := NewService(store, Config{TTL: time.Hour})

	tok, err := svc.Create(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, tok.Value))
	require.NoError(t, svc.Delete(ctx, tok.Value))
	require.NoError(t, svc.Delete(ctx, ""))

	_, ok, err := svc.Redeem(ctx, tok.Value)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConcurrentCreateLeavesSingleActiveToken(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	svc := NewService(store, Config{TTL: time.Hour})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, 5)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, store.count())
}
