package repositories

import (
	"context"
	"strings"

	intdb "caravanas/internal/db"
	"caravanas/internal/domain"
	"caravanas/internal/domain/models"

	"github.com/jmoiron/sqlx"
)

type UserRepository struct {
	DB *sqlx.DB
}

func (r UserRepository) GetByEmail(ctx context.Context, email string) (models.Operator, error) {
	q, err := queryer(r.DB, nil)
	if err != nil {
		return models.Operator{}, err
	}
	var u models.Operator
	err = intdb.Get(ctx, q, &u, `
		SELECT id, nome, email, senha_hash, COALESCE(papel,'operador') AS papel, ativo
		FROM usuarios WHERE LOWER(email) = ? LIMIT 1`, strings.ToLower(strings.TrimSpace(email)))
	if intdb.IsNoRows(err) {
		return models.Operator{}, domain.NotFoundError{Resource: "usuário"}
	}
	return u, err
}
