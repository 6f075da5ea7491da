package shared

import "errors"

var (
	// ErrUnauthenticated indicates a missing, invalid or expired credential.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden indicates the principal lacks the required role or position.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation indicates malformed input or a business rule violation.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a duplicate record or an already taken slot.
	ErrConflict = errors.New("conflict")
)

// Error pairs an error kind with a message that is safe to show to clients.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Kind }

// Validation builds an ErrValidation error carrying msg.
func Validation(msg string) error { return &Error{Kind: ErrValidation, Message: msg} }

// NotFound builds an ErrNotFound error carrying msg.
func NotFound(msg string) error { return &Error{Kind: ErrNotFound, Message: msg} }

// Conflict builds an ErrConflict error carrying msg.
func Conflict(msg string) error { return &Error{Kind: ErrConflict, Message: msg} }

// Unauthenticated builds an ErrUnauthenticated error carrying msg.
func Unauthenticated(msg string) error { return &Error{Kind: ErrUnauthenticated, Message: msg} }

// GenericMessage is shown for errors that carry no client-facing message.
const GenericMessage = "An unexpected error occurred"

// UserSafeMessage returns the client-facing message of err, or GenericMessage
// when err carries no explicit message.
func UserSafeMessage(err error) string {
	return MessageOr(err, GenericMessage)
}

// MessageOr returns the client-facing message of err, or fallback.
func MessageOr(err error, fallback string) string {
	var domainErr *Error
	if errors.As(err, &domainErr) && domainErr.Message != "" {
		return domainErr.Message
	}
	return fallback
}
