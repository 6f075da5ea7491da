package shared

// AuthorityPrefix is prepended to role and position names.
const AuthorityPrefix = "ROLE_"

// Authorities granted to resolved principals.
const (
	AuthorityStudent        = AuthorityPrefix + "STUDENT"
	AuthorityAdmin          = AuthorityPrefix + "ADMIN"
	AuthorityAdminExecutive = AuthorityAdmin + "_EXECUTIVE"
)

// PositionAuthority names the authority held by the admin in position.
func PositionAuthority(position string) string {
	return AuthorityAdmin + "_" + position
}
