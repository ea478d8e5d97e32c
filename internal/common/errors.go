// Package common defines shared constants and sentinel errors used across
// the server and client layers of gophauth. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors. ErrorInvalidCredentials covers both an unknown
	// login and a wrong password; the two cases must stay indistinguishable.
	ErrorInvalidCredentials = errors.New("invalid credentials")
	ErrorInternal           = errors.New("internal error")

	// Token errors.
	ErrInvalidToken    = errors.New("invalid token")
	ErrTokenExpired    = errors.New("token expired")
	ErrMissingSecret   = errors.New("signing key is not configured")
	ErrMissingArgument = errors.New("missing argument")
)
