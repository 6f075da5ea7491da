package token

import "errors"

// Verification failures. Each kind is distinct so callers can tell a forged
// token from one that simply ran out of time.
var (
	ErrInvalidSignature = errors.New("token: invalid signature")
	ErrExpired          = errors.New("token: expired")
	ErrMalformed        = errors.New("token: malformed")

	// ErrKeyTooShort is returned when the signing secret decodes to fewer than MinKeyBytes.
	ErrKeyTooShort = errors.New("token: signing key too short")
)
