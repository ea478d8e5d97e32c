package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByLogin(ctx context.Context, login string) (*models.CredentialRecord, error) {
	query :=
		`SELECT id, login, username, email, password_hash FROM users
		 WHERE login = $1
		 `

	rec := &models.CredentialRecord{}
	err := r.db.QueryRowContext(ctx, query, login).
		Scan(&rec.UserID, &rec.Login, &rec.UserName, &rec.Email, &rec.PasswordHash)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return rec, nil
}
