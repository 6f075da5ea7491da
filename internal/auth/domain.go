package auth

import (
	"strings"
	"time"
)

// Role is the broad account classification.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleAdmin   Role = "ADMIN"
)

// Position is an admin's office within the organization.
type Position string

const (
	PositionPresident              Position = "PRESIDENT"
	PositionVicePresidentInternal  Position = "VICE_PRESIDENT_INTERNAL"
	PositionVicePresidentExternal  Position = "VICE_PRESIDENT_EXTERNAL"
	PositionSecretary              Position = "SECRETARY"
	PositionTreasurer              Position = "TREASURER"
	PositionAuditor                Position = "AUDITOR"
	PositionPublicRelationsOfficer Position = "PUBLIC_RELATIONS_OFFICER"
	PositionRepresentative         Position = "REPRESENTATIVE"
	PositionDeveloper              Position = "DEVELOPER"
)

var executivePositions = map[Position]struct{}{
	PositionPresident:             {},
	PositionVicePresidentInternal: {},
	PositionVicePresidentExternal: {},
	PositionSecretary:             {},
	PositionTreasurer:             {},
	PositionAuditor:               {},
}

var allPositions = []Position{
	PositionPresident,
	PositionVicePresidentInternal,
	PositionVicePresidentExternal,
	PositionSecretary,
	PositionTreasurer,
	PositionAuditor,
	PositionPublicRelationsOfficer,
	PositionRepresentative,
	PositionDeveloper,
}

// ParsePosition normalises s and reports whether it names a known position.
func ParsePosition(s string) (Position, bool) {
	p := Position(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range allPositions {
		if p == known {
			return p, true
		}
	}
	return "", false
}

// IsExecutive reports whether p belongs to the executive board.
func (p Position) IsExecutive() bool {
	_, ok := executivePositions[p]
	return ok
}

// Account is a login identity owned by the credential store.
type Account struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         Role
	FirstName    string
	LastName     string
	MiddleName   string
	Email        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StudentProfile is the student-side record of an account.
type StudentProfile struct {
	StudentID string
	YearLevel int
	Account   Account
}

// AdminProfile is the admin-side record of an account.
type AdminProfile struct {
	AdminID  int64
	Position Position
	Account  Account
}

// NewAccount carries fields shared by both registration flows.
type NewAccount struct {
	Username   string
	Password   string
	FirstName  string
	LastName   string
	MiddleName string
	Email      string
}

// NewStudent is the input for RegisterStudent. The student id doubles as the username.
type NewStudent struct {
	StudentID  string
	YearLevel  int
	Password   string
	FirstName  string
	LastName   string
	MiddleName string
	Email      string
}

// NewAdmin is the input for RegisterAdmin.
type NewAdmin struct {
	NewAccount
	Position Position
}

// Session is the credential pair handed out on login.
type Session struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Refreshed is the result of exchanging a refresh token.
type Refreshed struct {
	AccessToken     string
	AccessExpiresAt time.Time
	// RefreshToken is set only when the refresh token was rotated.
	RefreshToken     string
	RefreshExpiresAt time.Time
}
