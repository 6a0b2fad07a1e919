package auth

import "errors"

var (
	// ErrInvalidToken covers signature mismatch, expiry, wrong issuer or
	// audience, and malformed structure. Callers must not distinguish
	// these cases when responding to the client.
	ErrInvalidToken = errors.New("auth: invalid token")

	ErrInvalidInput = errors.New("auth: invalid input")
)
