package users

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// InMemoryRepository is a read-only credential store built once from a
// fixed set of records. Lookups need no locking because the map is never
// written after construction.
type InMemoryRepository struct {
	byLogin map[string]models.CredentialRecord
}

// NewInMemoryRepository indexes records by login. Duplicate logins or user
// ids are rejected.
func NewInMemoryRepository(records ...models.CredentialRecord) (*InMemoryRepository, error) {
	byLogin := make(map[string]models.CredentialRecord, len(records))
	ids := make(map[int64]struct{}, len(records))

	for _, rec := range records {
		if rec.Login == "" {
			return nil, fmt.Errorf("user %d: empty login", rec.UserID)
		}
		if _, ok := byLogin[rec.Login]; ok {
			return nil, fmt.Errorf("duplicate login %q", rec.Login)
		}
		if _, ok := ids[rec.UserID]; ok {
			return nil, fmt.Errorf("duplicate user id %d", rec.UserID)
		}
		byLogin[rec.Login] = rec
		ids[rec.UserID] = struct{}{}
	}

	return &InMemoryRepository{byLogin: byLogin}, nil
}

// LoadInMemoryRepository reads a JSON array of credential records from path.
func LoadInMemoryRepository(path string) (*InMemoryRepository, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading users file: %w", err)
	}

	var records []models.CredentialRecord
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("parsing users file: %w", err)
	}

	return NewInMemoryRepository(records...)
}

// FindByLogin returns a copy so callers cannot mutate the stored record.
func (r *InMemoryRepository) FindByLogin(ctx context.Context, login string) (*models.CredentialRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, ok := r.byLogin[login]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &rec, nil
}
