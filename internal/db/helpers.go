package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type Queryer = sqlx.ExtContext

// NullIfEmpty helps store optional strings as NULL.
func NullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// NullInt64 maps nil to NULL.
func NullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func IsPostgres(q Queryer) bool {
	switch q.DriverName() {
	case "postgres", "pgx", "pq":
		return true
	}
	return false
}

// InsertReturningID runs an INSERT written with '?' placeholders and returns
// the new primary key on both postgres (RETURNING) and mysql (LastInsertId).
func InsertReturningID(ctx context.Context, q Queryer, query string, args ...any) (int64, error) {
	if IsPostgres(q) {
		var id int64
		if err := q.QueryRowxContext(ctx, q.Rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := q.ExecContext(ctx, q.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Exec rebinds and executes, returning rows affected.
func Exec(ctx context.Context, q Queryer, query string, args ...any) (int64, error) {
	res, err := q.ExecContext(ctx, q.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func Get(ctx context.Context, q Queryer, dest any, query string, args ...any) error {
	return sqlx.GetContext(ctx, q, dest, q.Rebind(query), args...)
}

func Select(ctx context.Context, q Queryer, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, q, dest, q.Rebind(query), args...)
}

// In expands slice arguments ("id IN (?)") before rebinding.
func In(ctx context.Context, q Queryer, dest any, query string, args ...any) error {
	expanded, expandedArgs, err := sqlx.In(query, args...)
	if err != nil {
		return err
	}
	return Select(ctx, q, dest, expanded, expandedArgs...)
}

// WithTx runs fn inside a transaction, rolling back on error or panic.
func WithTx(ctx context.Context, conn *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("abrir transação: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func HasTable(ctx context.Context, q Queryer, table string) bool {
	schema := "DATABASE()"
	if IsPostgres(q) {
		schema = "current_schema()"
	}
	var name sql.NullString
	err := q.QueryRowxContext(ctx, q.Rebind(`
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = `+schema+`
		  AND table_name = ?
		LIMIT 1`), table).Scan(&name)
	if err != nil {
		return false
	}
	return name.Valid && name.String != ""
}

// IsUndefinedTable recognizes "relation does not exist" on postgres and
// "table doesn't exist" on mysql.
func IsUndefinedTable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "42P01"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1146
	}
	return false
}

func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
