package session

import "errors"

// Session failure taxonomy. Transport maps all token-shaped failures to a
// uniform unauthorized response; the distinctions below exist for logs and
// tests only.
var (
	// ErrInvalidCredentials covers both unknown account and wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrRevokedOrUnknown marks a refresh token that verifies cryptographically
	// but has no live store record: rotated away, logged out, or swept.
	ErrRevokedOrUnknown = errors.New("refresh token revoked or unknown")

	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature invalid")

	// ErrSigning indicates secret/config failure while minting; treated as fatal
	// misconfiguration rather than a user error.
	ErrSigning = errors.New("token signing failed")

	// ErrUserNotFound is returned for introspection of a since-deleted account.
	ErrUserNotFound = errors.New("user not found")
)
