package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/csps/portal/internal/auth"
	"github.com/csps/portal/internal/shared"
)

// ProfileSource is the subset of the credential store the resolver reads.
type ProfileSource interface {
	FindAccountByUsername(ctx context.Context, username string) (*auth.Account, error)
	FindAccountByID(ctx context.Context, id int64) (*auth.Account, error)
	FindStudentByAccountID(ctx context.Context, accountID int64) (*auth.StudentProfile, error)
	FindAdminByAccountID(ctx context.Context, accountID int64) (*auth.AdminProfile, error)
}

// Resolver assembles principals from stored accounts and profiles.
type Resolver struct {
	source ProfileSource
}

// NewResolver constructs a Resolver.
func NewResolver(source ProfileSource) *Resolver {
	return &Resolver{source: source}
}

// Resolve loads the principal for username.
func (r *Resolver) Resolve(ctx context.Context, username string) (Principal, error) {
	account, err := r.source.FindAccountByUsername(ctx, username)
	if err != nil {
		return nil, accountError(err)
	}
	return r.fromAccount(ctx, account)
}

// ResolveAccount loads the principal for an account id.
func (r *Resolver) ResolveAccount(ctx context.Context, accountID int64) (Principal, error) {
	account, err := r.source.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, accountError(err)
	}
	return r.fromAccount(ctx, account)
}

func (r *Resolver) fromAccount(ctx context.Context, account *auth.Account) (Principal, error) {
	id := Identity{AccountID: account.ID, Username: account.Username}
	switch account.Role {
	case auth.RoleStudent:
		student, err := r.source.FindStudentByAccountID(ctx, account.ID)
		if err != nil {
			return nil, profileError(err, "Student not found")
		}
		return Student{Identity: id, StudentID: student.StudentID, YearLevel: student.YearLevel}, nil
	case auth.RoleAdmin:
		admin, err := r.source.FindAdminByAccountID(ctx, account.ID)
		if err != nil {
			return nil, profileError(err, "Admin not found")
		}
		return Admin{Identity: id, AdminID: admin.AdminID, Position: admin.Position}, nil
	default:
		return nil, fmt.Errorf("rbac: role not recognized: %q", account.Role)
	}
}

func accountError(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NotFound("Account not found")
	}
	return fmt.Errorf("rbac: load account: %w", err)
}

func profileError(err error, msg string) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NotFound(msg)
	}
	return fmt.Errorf("rbac: load profile: %w", err)
}
