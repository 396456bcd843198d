package login

import "errors"

var (
	// ErrInvalidCredentials is the single user-facing failure for an unknown
	// email or a wrong password; the two cases are never distinguished.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidTOTP is returned for a missing, malformed, wrong or replayed
	// TOTP code. It is only ever surfaced after the password check passed.
	ErrInvalidTOTP = errors.New("invalid totp code")
)
