package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/csps/portal/internal/platform/db"
	"github.com/csps/portal/internal/shared"
)

// Constraint names from migrations/0001_accounts.sql.
const (
	constraintUsername      = "accounts_username_key"
	constraintStudentID     = "students_pkey"
	constraintAdminPosition = "admins_position_key"
)

// Repository defines persistence operations for the credential store.
type Repository interface {
	FindAccountByUsername(ctx context.Context, username string) (*Account, error)
	FindAccountByID(ctx context.Context, id int64) (*Account, error)
	FindStudentByAccountID(ctx context.Context, accountID int64) (*StudentProfile, error)
	FindAdminByAccountID(ctx context.Context, accountID int64) (*AdminProfile, error)
	FindStudentByID(ctx context.Context, studentID string) (*StudentProfile, error)
	FindAdminByID(ctx context.Context, adminID int64) (*AdminProfile, error)
	PositionTaken(ctx context.Context, position Position) (bool, error)
	CreateStudent(ctx context.Context, account Account, studentID string, yearLevel int) (*StudentProfile, error)
	CreateAdmin(ctx context.Context, account Account, position Position) (*AdminProfile, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{db: pool, pool: pool}
}

const accountColumns = `a.id, a.username, a.password_hash, a.role, a.first_name, a.last_name,
	a.middle_name, a.email, a.created_at, a.updated_at`

func scanAccount(row pgx.Row, extra ...any) (*Account, error) {
	var (
		acc  Account
		role string
	)
	dest := []any{&acc.ID, &acc.Username, &acc.PasswordHash, &role, &acc.FirstName, &acc.LastName,
		&acc.MiddleName, &acc.Email, &acc.CreatedAt, &acc.UpdatedAt}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	acc.Role = Role(role)
	return &acc, nil
}

// FindAccountByUsername fetches an account by its unique username.
func (r *PGRepository) FindAccountByUsername(ctx context.Context, username string) (*Account, error) {
	return scanAccount(r.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts a WHERE a.username = $1`, username))
}

// FindAccountByID fetches an account by id.
func (r *PGRepository) FindAccountByID(ctx context.Context, id int64) (*Account, error) {
	return scanAccount(r.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts a WHERE a.id = $1`, id))
}

func (r *PGRepository) findStudent(ctx context.Context, where string, arg any) (*StudentProfile, error) {
	var p StudentProfile
	acc, err := scanAccount(r.db.QueryRow(ctx,
		`SELECT `+accountColumns+`, s.student_id, s.year_level
		FROM students s JOIN accounts a ON a.id = s.account_id
		WHERE `+where, arg), &p.StudentID, &p.YearLevel)
	if err != nil {
		return nil, err
	}
	p.Account = *acc
	return &p, nil
}

func (r *PGRepository) findAdmin(ctx context.Context, where string, arg any) (*AdminProfile, error) {
	var (
		p        AdminProfile
		position string
	)
	acc, err := scanAccount(r.db.QueryRow(ctx,
		`SELECT `+accountColumns+`, ad.id, ad.position
		FROM admins ad JOIN accounts a ON a.id = ad.account_id
		WHERE `+where, arg), &p.AdminID, &position)
	if err != nil {
		return nil, err
	}
	p.Account = *acc
	p.Position = Position(position)
	return &p, nil
}

// FindStudentByAccountID loads the student profile bound to an account.
func (r *PGRepository) FindStudentByAccountID(ctx context.Context, accountID int64) (*StudentProfile, error) {
	return r.findStudent(ctx, "s.account_id = $1", accountID)
}

// FindAdminByAccountID loads the admin profile bound to an account.
func (r *PGRepository) FindAdminByAccountID(ctx context.Context, accountID int64) (*AdminProfile, error) {
	return r.findAdmin(ctx, "ad.account_id = $1", accountID)
}

// FindStudentByID loads a student profile by student id.
func (r *PGRepository) FindStudentByID(ctx context.Context, studentID string) (*StudentProfile, error) {
	return r.findStudent(ctx, "s.student_id = $1", studentID)
}

// FindAdminByID loads an admin profile by admin id.
func (r *PGRepository) FindAdminByID(ctx context.Context, adminID int64) (*AdminProfile, error) {
	return r.findAdmin(ctx, "ad.id = $1", adminID)
}

// PositionTaken reports whether an admin already holds position.
func (r *PGRepository) PositionTaken(ctx context.Context, position Position) (bool, error) {
	var taken bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM admins WHERE position = $1)`, string(position)).Scan(&taken)
	return taken, err
}

func insertAccount(ctx context.Context, tx pgx.Tx, account Account) (Account, error) {
	now := time.Now().UTC()
	err := tx.QueryRow(ctx, `
		INSERT INTO accounts (username, password_hash, role, first_name, last_name, middle_name, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING id, created_at, updated_at`,
		account.Username, account.PasswordHash, string(account.Role), account.FirstName,
		account.LastName, account.MiddleName, account.Email, now,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	return account, err
}

// CreateStudent inserts the account and its student profile in one transaction.
func (r *PGRepository) CreateStudent(ctx context.Context, account Account, studentID string, yearLevel int) (*StudentProfile, error) {
	account.Role = RoleStudent
	var profile StudentProfile
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		created, err := insertAccount(ctx, tx, account)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO students (student_id, year_level, account_id) VALUES ($1, $2, $3)`,
			studentID, yearLevel, created.ID); err != nil {
			return err
		}
		profile = StudentProfile{StudentID: studentID, YearLevel: yearLevel, Account: created}
		return nil
	})
	if err != nil {
		return nil, mapWriteError(err)
	}
	return &profile, nil
}

// CreateAdmin inserts the account and its admin profile in one transaction.
func (r *PGRepository) CreateAdmin(ctx context.Context, account Account, position Position) (*AdminProfile, error) {
	account.Role = RoleAdmin
	var profile AdminProfile
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		created, err := insertAccount(ctx, tx, account)
		if err != nil {
			return err
		}
		var adminID int64
		if err := tx.QueryRow(ctx,
			`INSERT INTO admins (position, account_id) VALUES ($1, $2) RETURNING id`,
			string(position), created.ID).Scan(&adminID); err != nil {
			return err
		}
		profile = AdminProfile{AdminID: adminID, Position: position, Account: created}
		return nil
	})
	if err != nil {
		return nil, mapWriteError(err)
	}
	return &profile, nil
}

func mapWriteError(err error) error {
	switch {
	case db.IsUniqueViolation(err, constraintUsername):
		return shared.Conflict("Username already exists")
	case db.IsUniqueViolation(err, constraintStudentID):
		return shared.Conflict("Student already exists")
	case db.IsUniqueViolation(err, constraintAdminPosition):
		return shared.Conflict("Position already taken")
	default:
		return fmt.Errorf("auth: write account: %w", err)
	}
}

var _ Repository = (*PGRepository)(nil)
