package repositories

import (
	"errors"

	intconfig "caravanas/internal/config"
	intdb "caravanas/internal/db"

	"github.com/jmoiron/sqlx"
)

// ErrNoDB is returned when neither an explicit handle nor the shared
// connection is available.
var ErrNoDB = errors.New("banco de dados indisponível")

// queryer picks the transaction first, then the explicit DB, then the shared one.
func queryer(db *sqlx.DB, tx *sqlx.Tx) (intdb.Queryer, error) {
	if tx != nil {
		return tx, nil
	}
	if db != nil {
		return db, nil
	}
	if intconfig.DB != nil {
		return intconfig.DB, nil
	}
	return nil, ErrNoDB
}

// forUpdate appends a row lock; both supported dialects accept it.
func forUpdate(query string) string {
	return query + " FOR UPDATE"
}
