package services

import (
	"context"
	"strconv"

	intconfig "caravanas/internal/config"
	intdb "caravanas/internal/db"
	"caravanas/internal/repositories"

	"github.com/jmoiron/sqlx"
)

// BusLocker serializes writes per bus. lock.BusLocker implements it.
type BusLocker interface {
	Acquire(ctx context.Context, owner string, busIDs ...int64) (func(), error)
}

func sharedDB(db *sqlx.DB) (*sqlx.DB, error) {
	if db != nil {
		return db, nil
	}
	if intconfig.DB != nil {
		return intconfig.DB, nil
	}
	return nil, repositories.ErrNoDB
}

// inTx runs fn in a transaction on db (or the shared connection).
func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	conn, err := sharedDB(db)
	if err != nil {
		return err
	}
	return intdb.WithTx(ctx, conn, fn)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
