package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/csps/portal/internal/auth/refresh"
	"github.com/csps/portal/internal/auth/token"
	"github.com/csps/portal/internal/shared"
)

// Options tunes the auth service.
type Options struct {
	AccessTTL  time.Duration
	BcryptCost int
}

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	signer   *token.Signer
	refresh  *refresh.Service
	opts     Options
	now      func() time.Time
	dummy    []byte
	dummyErr error
	once     sync.Once
}

// NewService constructs a new Service.
func NewService(repo Repository, signer *token.Signer, refresher *refresh.Service, opts Options) *Service {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 2 * time.Minute
	}
	return &Service{repo: repo, signer: signer, refresh: refresher, opts: opts, now: time.Now}
}

// AccessTTL returns the lifetime of issued access tokens.
func (s *Service) AccessTTL() time.Duration { return s.opts.AccessTTL }

// Login validates the identifier/password pair and opens a session.
// Unknown identifiers and wrong passwords fail identically.
func (s *Service) Login(ctx context.Context, identifier, password string) (*Session, error) {
	identifier = strings.TrimSpace(identifier)
	account, err := s.repo.FindAccountByUsername(ctx, identifier)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("auth: load account: %w", err)
		}
		s.burnComparison(password)
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}

	access, accessExp, err := s.IssueAccessToken(ctx, account)
	if err != nil {
		return nil, err
	}
	rt, err := s.refresh.Create(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     rt.Value,
		RefreshExpiresAt: rt.ExpiresAt,
	}, nil
}

// burnComparison spends a bcrypt comparison so unknown users take as long as wrong passwords.
func (s *Service) burnComparison(password string) {
	s.once.Do(func() {
		s.dummy, s.dummyErr = bcrypt.GenerateFromPassword([]byte("portal-dummy-password"), s.opts.BcryptCost)
	})
	if s.dummyErr != nil {
		return
	}
	_ = bcrypt.CompareHashAndPassword(s.dummy, []byte(password))
}

// Refresh exchanges a refresh token for a new access token. ok is false when
// the token is unknown, superseded or expired, or the account no longer exists.
func (s *Service) Refresh(ctx context.Context, presented string) (*Refreshed, bool, error) {
	redemption, ok, err := s.refresh.Redeem(ctx, presented)
	if err != nil || !ok {
		return nil, false, err
	}
	account, err := s.repo.FindAccountByID(ctx, redemption.AccountID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("auth: load account: %w", err)
	}
	access, accessExp, err := s.IssueAccessToken(ctx, account)
	if err != nil {
		return nil, false, err
	}
	out := &Refreshed{AccessToken: access, AccessExpiresAt: accessExp}
	if redemption.Rotated != nil {
		out.RefreshToken = redemption.Rotated.Value
		out.RefreshExpiresAt = redemption.Rotated.ExpiresAt
	}
	return out, true, nil
}

// Logout removes the refresh token server side. Absent tokens are a no-op.
func (s *Service) Logout(ctx context.Context, presented string) error {
	return s.refresh.Delete(ctx, presented)
}

// IssueAccessToken signs an access token carrying the account's role-specific claims.
func (s *Service) IssueAccessToken(ctx context.Context, account *Account) (string, time.Time, error) {
	claims := token.Claims{Username: account.Username, Role: string(account.Role)}
	switch account.Role {
	case RoleStudent:
		student, err := s.repo.FindStudentByAccountID(ctx, account.ID)
		if err != nil {
			return "", time.Time{}, profileError(err, "Student not found")
		}
		claims.StudentID = student.StudentID
		claims.YearLevel = student.YearLevel
	case RoleAdmin:
		admin, err := s.repo.FindAdminByAccountID(ctx, account.ID)
		if err != nil {
			return "", time.Time{}, profileError(err, "Admin not found")
		}
		claims.AdminID = admin.AdminID
		claims.Position = string(admin.Position)
	default:
		return "", time.Time{}, fmt.Errorf("auth: role not recognized: %q", account.Role)
	}
	expires := s.now().UTC().Add(s.opts.AccessTTL)
	signed, err := s.signer.Issue(claims, strconv.FormatInt(account.ID, 10), s.opts.AccessTTL)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// StudentProfile fetches a student by student id.
func (s *Service) StudentProfile(ctx context.Context, studentID string) (*StudentProfile, error) {
	p, err := s.repo.FindStudentByID(ctx, studentID)
	if err != nil {
		return nil, profileError(err, "Student not found")
	}
	return p, nil
}

// AdminProfile fetches an admin by admin id.
func (s *Service) AdminProfile(ctx context.Context, adminID int64) (*AdminProfile, error) {
	p, err := s.repo.FindAdminByID(ctx, adminID)
	if err != nil {
		return nil, profileError(err, "Admin not found")
	}
	return p, nil
}

// RegisterStudent creates a student account; the student id is the login username.
func (s *Service) RegisterStudent(ctx context.Context, in NewStudent) (*StudentProfile, error) {
	studentID := strings.TrimSpace(in.StudentID)
	if studentID == "" {
		return nil, shared.Validation("Student ID is required")
	}
	if in.YearLevel < 1 || in.YearLevel > 4 {
		return nil, shared.Validation("Year level must be between 1 and 4")
	}
	account, err := s.newAccount(NewAccount{
		Username:   studentID,
		Password:   in.Password,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		MiddleName: in.MiddleName,
		Email:      in.Email,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.CreateStudent(ctx, account, studentID, in.YearLevel)
}

// RegisterAdmin creates an admin account. Each position may be held by one admin.
func (s *Service) RegisterAdmin(ctx context.Context, in NewAdmin) (*AdminProfile, error) {
	position, ok := ParsePosition(string(in.Position))
	if !ok {
		return nil, shared.Validation("Invalid admin position")
	}
	taken, err := s.repo.PositionTaken(ctx, position)
	if err != nil {
		return nil, fmt.Errorf("auth: check position: %w", err)
	}
	if taken {
		return nil, shared.Conflict("Position already taken")
	}
	account, err := s.newAccount(in.NewAccount)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateAdmin(ctx, account, position)
}

const maxPasswordBytes = 72

func (s *Service) newAccount(in NewAccount) (Account, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return Account{}, shared.Validation("Username is required")
	}
	if len(in.Password) < 8 {
		return Account{}, shared.Validation("Password must be at least 8 characters")
	}
	// bcrypt only reads the first 72 bytes.
	if len(in.Password) > maxPasswordBytes {
		return Account{}, shared.Validation("Password must be at most 72 bytes")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.opts.BcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return Account{}, shared.Validation("Password must be at most 72 bytes")
	}
	if err != nil {
		return Account{}, fmt.Errorf("auth: hash password: %w", err)
	}
	return Account{
		Username:     username,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		MiddleName:   strings.TrimSpace(in.MiddleName),
		Email:        strings.TrimSpace(in.Email),
	}, nil
}

func profileError(err error, msg string) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NotFound(msg)
	}
	return fmt.Errorf("auth: load profile: %w", err)
}
