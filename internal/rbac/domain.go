package rbac

import (
	"strconv"

	"github.com/csps/portal/internal/auth"
	"github.com/csps/portal/internal/shared"
)

// Identity is the account behind a principal.
type Identity struct {
	AccountID int64
	Username  string
}

// Principal describes the authenticated actor. It is implemented only by
// Student and Admin; use a type switch to branch on the kind.
type Principal interface {
	Account() Identity
	Role() auth.Role
	// DomainID is the role-scoped identifier: the student id or the admin id.
	DomainID() string
	Authorities() []string
	sealed()
}

// Student is a principal backed by a student profile.
type Student struct {
	Identity
	StudentID string
	YearLevel int
}

func (s Student) Account() Identity { return s.Identity }
func (s Student) Role() auth.Role { return auth.RoleStudent }
func (s Student) DomainID() string { return s.StudentID }
func (s Student) sealed() {}
func (s Student) Authorities() []string {
	return []string{shared.AuthorityStudent}
}

// Admin is a principal backed by an admin profile.
type Admin struct {
	Identity
	AdminID  int64
	Position auth.Position
}

func (a Admin) Account() Identity { return a.Identity }
func (a Admin) Role() auth.Role { return auth.RoleAdmin }
func (a Admin) DomainID() string { return strconv.FormatInt(a.AdminID, 10) }
func (a Admin) sealed() {}

// Authorities lists ROLE_ADMIN, the position authority and, for executive
// positions, ROLE_ADMIN_EXECUTIVE.
func (a Admin) Authorities() []string {
	out := []string{shared.AuthorityAdmin}
	if a.Position != "" {
		out = append(out, shared.PositionAuthority(string(a.Position)))
	}
	if a.Position.IsExecutive() {
		out = append(out, shared.AuthorityAdminExecutive)
	}
	return out
}

// HasAuthority reports whether p holds any of the given authorities.
func HasAuthority(p Principal, authorities ...string) bool {
	if p == nil {
		return false
	}
	granted := p.Authorities()
	for _, want := range authorities {
		for _, have := range granted {
			if have == want {
				return true
			}
		}
	}
	return false
}

// HasRole reports whether p has one of roles.
func HasRole(p Principal, roles ...auth.Role) bool {
	if p == nil {
		return false
	}
	for _, role := range roles {
		if p.Role() == role {
			return true
		}
	}
	return false
}
