package merch

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/csps/portal/internal/platform/db"
)

var (
	ErrNotFound      = errors.New("merch not found")
	ErrAlreadyExists = errors.New("merch already exists")
)

const constraintName = "merch_name_key"

// Repository defines persistence operations for merch.
type Repository interface {
	List(ctx context.Context) ([]Merch, error)
	Get(ctx context.Context, id int64) (*Merch, error)
	ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error)
	Create(ctx context.Context, m Merch) (int64, error)
	Update(ctx context.Context, m Merch) error
	Delete(ctx context.Context, id int64) error
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db dbtx
}

// NewRepository constructs a PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const merchColumns = `id, name, description, merch_type, price, image_url, created_at, updated_at`

func scanMerch(row pgx.Row) (Merch, error) {
	var (
		m    Merch
		kind string
	)
	err := row.Scan(&m.ID, &m.Name, &m.Description, &kind, &m.Price, &m.ImageURL, &m.CreatedAt, &m.UpdatedAt)
	m.Type = MerchType(kind)
	return m, err
}

func (r *repository) List(ctx context.Context) ([]Merch, error) {
	rows, err := r.db.Query(ctx, `SELECT `+merchColumns+` FROM merch ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Merch
	for rows.Next() {
		m, err := scanMerch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (*Merch, error) {
	m, err := scanMerch(r.db.QueryRow(ctx, `SELECT `+merchColumns+` FROM merch WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *repository) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM merch WHERE lower(name) = lower($1) AND id <> $2)`,
		name, excludeID).Scan(&exists)
	return exists, err
}

func (r *repository) Create(ctx context.Context, m Merch) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO merch (name, description, merch_type, price, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		m.Name, m.Description, string(m.Type), m.Price, m.ImageURL, m.CreatedAt, m.UpdatedAt,
	).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err, constraintName) {
			return 0, ErrAlreadyExists
		}
		return 0, fmt.Errorf("insert merch: %w", err)
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, m Merch) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE merch SET name = $2, description = $3, merch_type = $4, price = $5,
			image_url = $6, updated_at = $7
		WHERE id = $1`,
		m.ID, m.Name, m.Description, string(m.Type), m.Price, m.ImageURL, m.UpdatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err, constraintName) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("update merch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM merch WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete merch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
