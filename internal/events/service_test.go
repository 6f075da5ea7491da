package events

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csps/portal/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	mu     sync.Mutex
	nextID int64
	events map[int64]Event
	locks  int
}

func newMockRepository() *mockRepository {
	return &mockRepository{events: make(map[int64]Event)}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) LockDate(ctx context.Context, date Date) error {
	m.locks++
	return nil
}

func (m *mockRepository) sorted(filter func(Event) bool) []Event {
	var out []Event
	for _, e := range m.events {
		if filter(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *mockRepository) List(ctx context.Context) ([]Event, error) {
	return m.sorted(func(Event) bool { return true }), nil
}

func (m *mockRepository) ListByDate(ctx context.Context, date Date) ([]Event, error) {
	return m.sorted(func(e Event) bool { return e.Date == date }), nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Event, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (m *mockRepository) Overlaps(ctx context.Context, date Date, start, end ClockTime, excludeID int64) (bool, error) {
	for _, e := range m.events {
		if e.ID != excludeID && e.Date == date && e.StartTime < end && e.EndTime > start {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) Create(ctx context.Context, e Event) (int64, error) {
	m.nextID++
	e.ID = m.nextID
	m.events[e.ID] = e
	return e.ID, nil
}

func (m *mockRepository) Update(ctx context.Context, e Event) error {
	if _, ok := m.events[e.ID]; !ok {
		return ErrNotFound
	}
	m.events[e.ID] = e
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.events[id]; !ok {
		return ErrNotFound
	}
	delete(m.events, id)
	return nil
}

// ============================================================================
// FIXTURES
// ============================================================================

var fixedNow = time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)

func newTestService() (*Service, *mockRepository) {
	repo := newMockRepository()
	return NewService(repo).WithClock(func() time.Time { return fixedNow }), repo
}

func ptr[T any](v T) *T { return &v }

func validRequest(date Date, start, end ClockTime) EventRequest {
	return EventRequest{
		Name:        ptr("General Assembly"),
		Description: ptr("Start of semester assembly"),
		Location:    ptr("Main Hall"),
		Date:        ptr(date),
		StartTime:   ptr(start),
		EndTime:     ptr(end),
		Type:        ptr(TypeAcademic),
		Status:      ptr(StatusUpcoming),
	}
}

var tomorrow = Date{Year: 2025, Month: time.March, Day: 11}

// ============================================================================
// TESTS
// ============================================================================

func TestCreateEvent(t *testing.T) {
	svc, repo := newTestService()
	e, err := svc.Create(context.Background(), validRequest(tomorrow, NewClockTime(10, 0, 0), NewClockTime(12, 0, 0)))
	require.NoError(t, err)
	assert.Equal(t, int64(1), e.ID)
	assert.Equal(t, "General Assembly", e.Name)
	assert.Equal(t, fixedNow, e.CreatedAt)
	assert.Equal(t, 1, repo.locks)
}

func TestCreateEventValidation(t *testing.T) {
	yesterday := Date{Year: 2025, Month: time.March, Day: 9}
	today := DateOf(fixedNow)

	missing := validRequest(tomorrow, NewClockTime(10, 0, 0), NewClockTime(12, 0, 0))
	missing.Location = ptr("   ")

	cases := []struct {
		name string
		req  EventRequest
		msg  string
	}{
		{"missing field", missing, "All event fields are required"},
		{"past date", validRequest(yesterday, NewClockTime(10, 0, 0), NewClockTime(12, 0, 0)), "Event date cannot be in the past"},
		{"started today", validRequest(today, NewClockTime(8, 0, 0), NewClockTime(12, 0, 0)), "Event start time cannot be in the past for today's date"},
		{"reversed range", validRequest(tomorrow, NewClockTime(12, 0, 0), NewClockTime(10, 0, 0)), "Invalid Time Range"},
		{"empty range", validRequest(tomorrow, NewClockTime(10, 0, 0), NewClockTime(10, 0, 0)), "Invalid Time Range"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newTestService()
			_, err := svc.Create(context.Background(), tc.req)
			require.ErrorIs(t, err, shared.ErrValidation)
			assert.Equal(t, tc.msg, shared.UserSafeMessage(err))
		})
	}
}

func TestCreateEventLaterToday(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Create(context.Background(), validRequest(DateOf(fixedNow), NewClockTime(13, 0, 0), NewClockTime(14, 0, 0)))
	assert.NoError(t, err)
}

func TestCreateEventOverlap(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	_, err := svc.Create(ctx, validRequest(tomorrow, NewClockTime(10, 0, 0), NewClockTime(12, 0, 0)))
	require.NoError(t, err)

	_, err = svc.Create(ctx, validRequest(tomorrow, NewClockTime(11, 0, 0), NewClockTime(13, 0, 0)))
	require.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, "Event already exists with the same date and time", shared.UserSafeMessage(err))

	// Touching intervals do not overlap.
	_, err = svc.Create(ctx, validRequest(tomorrow, NewClockTime(12, 0, 0), NewClockTime(13, 0, 0)))
	assert.NoError(t, err)
}

func TestReplaceDoesNotConflictWithItself(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	created, err := svc.Create(ctx, validRequest(tomorrow, NewClockTime(10, 0, 0), NewClockTime(12, 0, 0)))
	require.NoError(t, err)

	req := validRequest(tomorrow, NewClockTime(10, 30, 0), NewClockTime(12, 30, 0))
	req.Name = ptr("Renamed Assembly")
	updated, err := svc.Replace(ctx, created.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Assembly", updated.Name)
	assert.Equal(t, NewClockTime(10, 30, 0), updated.StartTime)
}

func TestReplaceDetectsOverlapWithOthers(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	_, err := svc.Create(ctx, validRequest(tomorrow, NewClockTime(10, 0, 0), NewClockTime(12, 0, 0)))
	require.NoError(t, err)
	second, err := svc.Create(ctx, validRequest(tomorrow, NewClockTime(14, 0, 0), NewClockTime(15, 0, 0)))
	require.NoError(t, err)

	_, err = svc.Replace(ctx, second.ID, validRequest(tomorrow, NewClockTime(11, 0, 0), NewClockTime(15, 0, 0)))
	require.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, "Event already exists with the same date and time", shared.UserSafeMessage(err))
}

func TestReplaceRequiresAllFields(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Replace(context.Background(), 1, EventRequest{Name: ptr("Only name")})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestPatchAppliesSuppliedFields(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	created, err := svc.Create(ctx, validRequest(tomorrow, NewClockTime(10, 0, 0), NewClockTime(12, 0, 0)))
	require.NoError(t, err)

	patched, err := svc.Patch(ctx, created.ID, EventRequest{
		Location: ptr("Gymnasium"),
		Name:     ptr(""),
		Status:   ptr(StatusCancelled),
	})
	require.NoError(t, err)
	assert.Equal(t, "Gymnasium", patched.Location)
	assert.Equal(t, "General Assembly", patched.Name)
	assert.Equal(t, StatusCancelled, patched.Status)
	assert.Equal(t, created.StartTime, patched.StartTime)
}

func TestPatchValidatesMergedRange(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	created, err := svc.Create(ctx, validRequest(tomorrow, NewClockTime(10, 0, 0), NewClockTime(12, 0, 0)))
	require.NoError(t, err)

	_, err = svc.Patch(ctx, created.ID, EventRequest{EndTime: ptr(NewClockTime(9, 0, 0))})
	require.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, "Invalid Time Range", shared.UserSafeMessage(err))

	_, err = svc.Patch(ctx, created.ID, EventRequest{Date: ptr(Date{Year: 2024, Month: time.January, Day: 1})})
	require.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, "Event date cannot be in the past", shared.UserSafeMessage(err))
}

func TestEventNotFoundMessages(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Get(ctx, 42)
	require.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, "Event not found with id: 42", shared.UserSafeMessage(err))

	_, err = svc.Delete(ctx, 42)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Patch(ctx, 42, EventRequest{})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.ListByDate(ctx, tomorrow)
	require.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, "Event not found with date: 2025-03-11", shared.UserSafeMessage(err))
}

func TestDeleteReturnsEvent(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	created, err := svc.Create(ctx, validRequest(tomorrow, NewClockTime(10, 0, 0), NewClockTime(12, 0, 0)))
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)
	assert.Empty(t, repo.events)
}

func TestCivilTypes(t *testing.T) {
	c, err := ParseClockTime("09:05")
	require.NoError(t, err)
	assert.Equal(t, "09:05:00", c.String())

	c, err = ParseClockTime("23:59:30")
	require.NoError(t, err)
	assert.Equal(t, NewClockTime(23, 59, 30), c)

	_, err = ParseClockTime("25:00")
	assert.Error(t, err)

	d, err := ParseDate("2025-02-28")
	require.NoError(t, err)
	assert.Equal(t, "2025-02-28", d.String())
	assert.True(t, d.Before(tomorrow))

	_, err = ParseDate("28/02/2025")
	assert.Error(t, err)
}
