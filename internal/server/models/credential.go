// Package models holds the server-side records shared between repositories
// and services.
package models

// CredentialRecord is a stored identity together with its password hash.
// Services only read it; the repository owns it.
type CredentialRecord struct {
	UserID       int64  `json:"user_id"`
	Login        string `json:"login"`
	UserName     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}
