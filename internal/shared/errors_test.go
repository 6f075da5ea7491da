package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorUnwrapsToKind(t *testing.T) {
	err := fmt.Errorf("merch: %w", Conflict("Merch already exists"))
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, "merch: Merch already exists", err.Error())
}

func TestMessageOr(t *testing.T) {
	assert.Equal(t, "Event not found with id: 3", MessageOr(NotFound("Event not found with id: 3"), "fallback"))
	assert.Equal(t, "fallback", MessageOr(ErrNotFound, "fallback"))
	assert.Equal(t, "fallback", MessageOr(&Error{Kind: ErrNotFound}, "fallback"))
}

func TestUserSafeMessageHidesInternalErrors(t *testing.T) {
	assert.Equal(t, GenericMessage, UserSafeMessage(errors.New("dial tcp 10.0.0.3:5432: connection refused")))
	assert.Equal(t, "Position already taken", UserSafeMessage(Conflict("Position already taken")))
}

func TestAuthorityNames(t *testing.T) {
	assert.Equal(t, "ROLE_STUDENT", AuthorityStudent)
	assert.Equal(t, "ROLE_ADMIN", AuthorityAdmin)
	assert.Equal(t, "ROLE_ADMIN_EXECUTIVE", AuthorityAdminExecutive)
	assert.Equal(t, "ROLE_ADMIN_TREASURER", PositionAuthority("TREASURER"))
}
