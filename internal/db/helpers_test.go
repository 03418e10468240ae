package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

func TestIsUndefinedTable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{&pq.Error{Code: "42P01"}, true},
		{fmt.Errorf("listar receitas: %w", &pq.Error{Code: "42P01"}), true},
		{&pq.Error{Code: "23505"}, false},
		{&mysql.MySQLError{Number: 1146}, true},
		{&mysql.MySQLError{Number: 1062}, false},
		{errors.New("boom"), false},
		{nil, false},
	}
	for i, tc := range cases {
		if got := IsUndefinedTable(tc.err); got != tc.want {
			t.Fatalf("case %d: got %v want %v", i, got, tc.want)
		}
	}
}

func TestHasTable(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer mockDB.Close()
	q := sqlx.NewDb(mockDB, "postgres")

	mock.ExpectQuery(`table_schema = current_schema\(\)`).
		WithArgs("viagem_receitas").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("viagem_receitas"))
	mock.ExpectQuery(`FROM information_schema.tables`).
		WithArgs("viagem_despesas").
		WillReturnError(sql.ErrNoRows)

	if !HasTable(context.Background(), q, "viagem_receitas") {
		t.Fatalf("expected viagem_receitas to exist")
	}
	if HasTable(context.Background(), q, "viagem_despesas") {
		t.Fatalf("expected viagem_despesas to be missing")
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer mockDB.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	want := errors.New("falhou")
	got := WithTx(context.Background(), sqlx.NewDb(mockDB, "sqlmock"), func(*sqlx.Tx) error { return want })
	if !errors.Is(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestNullHelpers(t *testing.T) {
	if NullIfEmpty("") != nil || NullIfEmpty("x") != "x" {
		t.Fatalf("NullIfEmpty mismatch")
	}
	v := int64(3)
	if NullInt64(nil) != nil || NullInt64(&v) != int64(3) {
		t.Fatalf("NullInt64 mismatch")
	}
}
