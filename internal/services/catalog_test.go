package services

import (
	"context"
	"testing"

	"caravanas/internal/domain"
	"caravanas/internal/domain/models"
	"caravanas/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeClient(t *testing.T) {
	got, err := normalizeClient(models.ClientInput{
		Name: "  Ana   Souza ", CPF: "529.982.247-25", Phone: "(21) 99999-0000",
		Email: " Ana@Mail.COM ", State: "rj",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", got.Name)
	assert.Equal(t, "52998224725", got.CPF)
	assert.Equal(t, "21999990000", got.Phone)
	assert.Equal(t, "ana@mail.com", got.Email)
	assert.Equal(t, "RJ", got.State)

	_, err = normalizeClient(models.ClientInput{Name: " "})
	assert.True(t, domain.IsValidation(err))
	_, err = normalizeClient(models.ClientInput{Name: "Ana", CPF: "111.111.111-11"})
	assert.True(t, domain.IsValidation(err))
}

func TestUpdateBusCannotShrinkBelowOccupancy(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM viagem_passageiros WHERE onibus_id = \?`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(40))

	svc := CatalogService{Buses: repositories.BusRepository{DB: db}}
	_, err := svc.UpdateBus(context.Background(), 10, models.BusInput{BaseSeats: 36, ExtraSeats: 2})

	require.Error(t, err)
	assert.True(t, domain.IsCapacity(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBusRejectsInvalidCapacity(t *testing.T) {
	_, err := CatalogService{}.UpdateBus(context.Background(), 10, models.BusInput{BaseSeats: 0})
	assert.True(t, domain.IsValidation(err))
}

func TestBusGroupsOnlyCountsSeatedPassengers(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`FROM viagem_onibus WHERE id = \?`).WithArgs(11).
		WillReturnRows(sqlmock.NewRows(busCols).AddRow(11, 1, "Executivo", "B", 40, 0))
	rows := sqlmock.NewRows(passengerCols)
	passengerRow(rows, 1, 10, "Amigos", "azul")
	passengerRow(rows, 2, 11, "Amigos", "azul")
	passengerRow(rows, 3, 11, "Vizinhos", "verde")
	passengerRow(rows, 4, 0, "Vizinhos", "verde")
	mock.ExpectQuery(`WHERE p\.viagem_id = \?`).WithArgs(1).WillReturnRows(rows)

	svc := CatalogService{Buses: repositories.BusRepository{DB: db}, Passengers: repositories.PassengerRepository{DB: db}}
	groups, err := svc.BusGroups(context.Background(), 1, 11)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, 1, groups[0].Count)
	assert.Equal(t, 0, groups[1].Unassigned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBusGroupsRejectsBusFromAnotherTrip(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`FROM viagem_onibus WHERE id = \?`).WithArgs(11).
		WillReturnRows(sqlmock.NewRows(busCols).AddRow(11, 2, "Executivo", "B", 40, 0))

	svc := CatalogService{Buses: repositories.BusRepository{DB: db}}
	_, err := svc.BusGroups(context.Background(), 1, 11)
	assert.True(t, domain.IsNotFound(err))
}
