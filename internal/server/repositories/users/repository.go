// Package users provides credential record lookups.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository maps a login to at most one credential record.
//
// FindByLogin returns common.ErrorNotFound when no record exists; any other
// error means the store is unavailable. It never judges passwords.
type Repository interface {
	FindByLogin(ctx context.Context, login string) (*models.CredentialRecord, error)
}
