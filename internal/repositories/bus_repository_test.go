package repositories

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func TestBusRepositoryListOccupancyFlagsFullBuses(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	cols := []string{"id", "viagem_id", "capacidade_onibus", "lugares_extras", "ocupacao"}
	mock.ExpectQuery(`FROM viagem_onibus o\s+WHERE o\.viagem_id = \?`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(10, 1, 40, 2, 42).
			AddRow(11, 1, 40, 0, 39).
			AddRow(12, 1, 40, 0, 41))

	repo := BusRepository{DB: sqlx.NewDb(db, "sqlmock")}
	got, err := repo.ListOccupancy(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d buses, want 3", len(got))
	}
	if !got[0].Full || got[0].Free != 0 {
		t.Fatalf("bus 10 should be full with no free seats, got %+v", got[0])
	}
	if got[1].Full || got[1].Free != 1 {
		t.Fatalf("bus 11 should have one free seat, got %+v", got[1])
	}
	if !got[2].Full || got[2].Free != 0 {
		t.Fatalf("an over-capacity bus reports full and zero free, got %+v", got[2])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
