package token

import "errors"

// Errors for token validation and lifecycle failures. The HTTP layer maps
// ErrNotFound to 404 and the remaining rejections to 403.
var (
	// ErrNotFound indicates no token exists for the presented string or ID.
	ErrNotFound = errors.New("token: not found")

	// ErrExpired indicates the token's absolute deadline has passed.
	ErrExpired = errors.New("token: expired")

	// ErrExhausted indicates the token's usage quota is spent.
	ErrExhausted = errors.New("token: usage exhausted")

	// ErrRevoked indicates an administrator revoked the token.
	ErrRevoked = errors.New("token: revoked")

	// ErrForbidden indicates the token is in a state that does not permit
	// guest access.
	ErrForbidden = errors.New("token: forbidden")
)
