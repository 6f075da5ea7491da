package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/csps/portal/internal/platform/db"
)

// ErrNotFound is returned when no event matches.
var ErrNotFound = errors.New("event not found")

// Repository defines persistence operations for events.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	// LockDate serialises writers scheduling on the same day until the transaction ends.
	LockDate(ctx context.Context, date Date) error
	List(ctx context.Context) ([]Event, error)
	ListByDate(ctx context.Context, date Date) ([]Event, error)
	Get(ctx context.Context, id int64) (*Event, error)
	// Overlaps reports whether another event on date intersects [start, end).
	// excludeID skips the event being edited; pass 0 on create.
	Overlaps(ctx context.Context, date Date, start, end ClockTime, excludeID int64) (bool, error)
	Create(ctx context.Context, e Event) (int64, error)
	Update(ctx context.Context, e Event) error
	Delete(ctx context.Context, id int64) error
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool db.TxStarter
}

// NewRepository constructs a PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

// writeTxOptions uses ReadCommitted so statements issued after LockDate see
// events committed by the writer that held the lock before.
var writeTxOptions = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTxOptions(ctx, r.pool, writeTxOptions, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) LockDate(ctx context.Context, date Date) error {
	_, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('events'), $1)`, int32(date.Time().Unix()/86400))
	return err
}

const eventColumns = `id, name, description, location, event_date, start_time, end_time,
	event_type, event_status, created_at, updated_at`

func scanEvent(row pgx.Row) (Event, error) {
	var (
		e          Event
		day        time.Time
		start, end pgtype.Time
		kind, stat string
	)
	if err := row.Scan(&e.ID, &e.Name, &e.Description, &e.Location, &day, &start, &end,
		&kind, &stat, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return Event{}, err
	}
	e.Date = DateOf(day)
	e.StartTime = fromPgTime(start)
	e.EndTime = fromPgTime(end)
	e.Type = EventType(kind)
	e.Status = EventStatus(stat)
	return e, nil
}

func toPgTime(c ClockTime) pgtype.Time {
	return pgtype.Time{Microseconds: c.Duration().Microseconds(), Valid: true}
}

func fromPgTime(t pgtype.Time) ClockTime {
	return ClockTime(time.Duration(t.Microseconds) * time.Microsecond)
}

func toPgDate(d Date) pgtype.Date {
	return pgtype.Date{Time: d.Time(), Valid: true}
}

func (r *repository) query(ctx context.Context, sql string, args ...any) ([]Event, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *repository) List(ctx context.Context) ([]Event, error) {
	return r.query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY event_date, start_time, id`)
}

func (r *repository) ListByDate(ctx context.Context, date Date) ([]Event, error) {
	return r.query(ctx, `SELECT `+eventColumns+` FROM events WHERE event_date = $1 ORDER BY start_time, id`, toPgDate(date))
}

func (r *repository) Get(ctx context.Context, id int64) (*Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *repository) Overlaps(ctx context.Context, date Date, start, end ClockTime, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM events
			WHERE event_date = $1 AND start_time < $3 AND end_time > $2 AND id <> $4
		)`, toPgDate(date), toPgTime(start), toPgTime(end), excludeID).Scan(&exists)
	return exists, err
}

func (r *repository) Create(ctx context.Context, e Event) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO events (name, description, location, event_date, start_time, end_time,
			event_type, event_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		e.Name, e.Description, e.Location, toPgDate(e.Date), toPgTime(e.StartTime), toPgTime(e.EndTime),
		string(e.Type), string(e.Status), e.CreatedAt, e.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, e Event) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE events SET name = $2, description = $3, location = $4, event_date = $5,
			start_time = $6, end_time = $7, event_type = $8, event_status = $9, updated_at = $10
		WHERE id = $1`,
		e.ID, e.Name, e.Description, e.Location, toPgDate(e.Date), toPgTime(e.StartTime), toPgTime(e.EndTime),
		string(e.Type), string(e.Status), e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
