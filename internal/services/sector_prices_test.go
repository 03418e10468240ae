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

func TestComputeSectorTotalsFlamengoVasco(t *testing.T) {
	passengers := []models.TripPassenger{
		{Sector: "Norte"},
		{Sector: "Norte"},
		{Sector: "Sul"},
		{Sector: models.SectorNoTicket},
	}
	prices := []models.SectorPrice{
		{Sector: "Norte", CostPrice: d("50"), SalePrice: d("100")},
		{Sector: "Sul", CostPrice: d("80"), SalePrice: d("150")},
		{Sector: models.SectorNoTicket, CostPrice: d("10"), SalePrice: d("10")},
	}

	totals := ComputeSectorTotals(prices, CountPassengersBySector(passengers))

	assert.True(t, d("180").Equal(totals.TotalCost), totals.TotalCost.String())
	assert.True(t, d("350").Equal(totals.TotalSale))
	assert.True(t, d("170").Equal(totals.TotalProfit))
	assert.True(t, d("48.57").Equal(totals.MarginPct), totals.MarginPct.String())
	require.Len(t, totals.Lines, 2)
	assert.Equal(t, 2, totals.Lines[0].Passengers)
}

func TestComputeSectorTotalsEmpty(t *testing.T) {
	totals := ComputeSectorTotals(nil, map[string]int{"Norte": 3})
	assert.True(t, totals.TotalCost.IsZero())
	assert.True(t, totals.MarginPct.IsZero())
	assert.Empty(t, totals.Lines)
}

func TestValidateSectorPrices(t *testing.T) {
	_, err := validateSectorPrices([]models.SectorPriceInput{{Sector: "Norte", CostPrice: d("-1")}})
	assert.True(t, domain.IsValidation(err))

	_, err = validateSectorPrices([]models.SectorPriceInput{{Sector: "Norte"}, {Sector: "norte "}})
	assert.True(t, domain.IsValidation(err))

	out, err := validateSectorPrices([]models.SectorPriceInput{{Sector: " Sul"}, {Sector: "Leste"}})
	require.NoError(t, err)
	assert.Equal(t, "Leste", out[0].Sector)
	assert.Equal(t, "Sul", out[1].Sector)
}

func expectSectorSave(mock sqlmock.Sqlmock, expenseID, revenueID int64) {
	match := day(2024, 3, 20)
	mock.ExpectQuery(`FROM viagens WHERE id = \?`).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "adversario", "data_jogo"}).AddRow(1, "Vasco", match))
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM viagem_setores_precos`).WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO viagem_setores_precos`).WithArgs(1, "Norte", d("50"), d("100")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO viagem_setores_precos`).WithArgs(1, "Sul", d("80"), d("150")).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectQuery(`GROUP BY`).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"setor", "total"}).AddRow("Norte", 2).AddRow("Sul", 1).AddRow("", 4))

	expense := sqlmock.NewRows([]string{"id"})
	if expenseID > 0 {
		expense.AddRow(expenseID)
	}
	mock.ExpectQuery(`SELECT id FROM viagem_despesas`).WithArgs(1, models.AutoTicketSupplier).WillReturnRows(expense)
	if expenseID > 0 {
		mock.ExpectExec(`UPDATE viagem_despesas SET valor`).WithArgs(d("180"), match, expenseID).WillReturnResult(sqlmock.NewResult(0, 1))
	} else {
		mock.ExpectExec(`INSERT INTO viagem_despesas`).WillReturnResult(sqlmock.NewResult(7, 1))
	}

	revenue := sqlmock.NewRows([]string{"id"})
	if revenueID > 0 {
		revenue.AddRow(revenueID)
	}
	mock.ExpectQuery(`SELECT id FROM viagem_receitas`).WithArgs(1, models.AutoTicketRevenue).WillReturnRows(revenue)
	if revenueID > 0 {
		mock.ExpectExec(`UPDATE viagem_receitas SET valor`).WithArgs(d("350"), match, revenueID).WillReturnResult(sqlmock.NewResult(0, 1))
	} else {
		mock.ExpectExec(`INSERT INTO viagem_receitas`).WillReturnResult(sqlmock.NewResult(9, 1))
	}
	mock.ExpectCommit()
}

func TestSaveSectorPricesIsIdempotent(t *testing.T) {
	db, mock := newMockDB(t)
	svc := SectorPriceService{
		Trips:      repositories.TripRepository{DB: db},
		Passengers: repositories.PassengerRepository{DB: db},
		Finance:    repositories.FinanceRepository{DB: db},
		DB:         db,
	}
	in := []models.SectorPriceInput{
		{Sector: "Sul", CostPrice: d("80"), SalePrice: d("150")},
		{Sector: "Norte", CostPrice: d("50"), SalePrice: d("100")},
	}

	// first save inserts both marker rows, the second finds and updates them
	expectSectorSave(mock, 0, 0)
	expectSectorSave(mock, 7, 9)

	first, err := svc.SaveSectorPrices(context.Background(), 1, in)
	require.NoError(t, err)
	second, err := svc.SaveSectorPrices(context.Background(), 1, in)
	require.NoError(t, err)

	assert.True(t, first.TotalCost.Equal(second.TotalCost))
	assert.True(t, d("350").Equal(second.TotalSale))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSectorPricesRemovesMarkers(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM viagem_setores_precos`).WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM viagem_despesas`).WithArgs(1, models.AutoTicketSupplier).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM viagem_receitas`).WithArgs(1, models.AutoTicketRevenue).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := SectorPriceService{Finance: repositories.FinanceRepository{DB: db}, DB: db}
	require.NoError(t, svc.DeleteSectorPrices(context.Background(), 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}
