package services

import (
	"testing"

	"caravanas/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

var passengerCols = []string{"id", "viagem_id", "cliente_id", "cliente_nome", "onibus_id", "grupo_nome", "grupo_cor", "valor", "desconto"}

func passengerRow(rows *sqlmock.Rows, id, busID int64, name, color string) *sqlmock.Rows {
	var bus any
	if busID > 0 {
		bus = busID
	}
	return rows.AddRow(id, 1, 100+id, "Cliente", bus, name, color, "200", "0")
}

var busCols = []string{"id", "viagem_id", "tipo_onibus", "numero_identificacao", "capacidade_onibus", "lugares_extras"}

func busFixture(base, extra int) models.Bus {
	return models.Bus{ID: 10, TripID: 1, BaseSeats: base, ExtraSeats: extra}
}
