package services

import (
	"context"
	"testing"
	"time"

	"caravanas/internal/domain"
	"caravanas/internal/domain/models"
	"caravanas/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildScheduleRemainderOnLast(t *testing.T) {
	first := day(2024, 1, 31)
	plan, err := BuildSchedule(d("100"), 3, first, 1)
	require.NoError(t, err)
	require.Len(t, plan, 3)

	assert.True(t, d("33.33").Equal(plan[0].Amount))
	assert.True(t, d("33.33").Equal(plan[1].Amount))
	assert.True(t, d("33.34").Equal(plan[2].Amount))

	sum := decimal.Zero
	for _, in := range plan {
		sum = sum.Add(in.Amount)
		assert.Equal(t, 3, in.Total)
		assert.Nil(t, in.PaidAt)
	}
	assert.True(t, d("100").Equal(sum))

	assert.Equal(t, day(2024, 1, 31), plan[0].DueDate)
	assert.Equal(t, day(2024, 2, 29), plan[1].DueDate, "clamped to the end of February")
	assert.Equal(t, time.March, plan[2].DueDate.Month())
}

func TestBuildScheduleInterval(t *testing.T) {
	plan, err := BuildSchedule(d("90"), 2, day(2024, 1, 10), 2)
	require.NoError(t, err)
	assert.Equal(t, day(2024, 3, 10), plan[1].DueDate)
}

func TestBuildScheduleRejectsBadInput(t *testing.T) {
	_, err := BuildSchedule(d("100"), 0, day(2024, 1, 1), 1)
	assert.True(t, domain.IsValidation(err))
	_, err = BuildSchedule(d("-1"), 2, day(2024, 1, 1), 1)
	assert.True(t, domain.IsValidation(err))
}

func TestPaymentStatusFor(t *testing.T) {
	assert.Equal(t, models.PaymentStatusPending, PaymentStatusFor(d("300"), d("0")))
	assert.Equal(t, models.PaymentStatusPartial, PaymentStatusFor(d("300"), d("100")))
	assert.Equal(t, models.PaymentStatusPaid, PaymentStatusFor(d("300"), d("299.99")))
	assert.Equal(t, models.PaymentStatusPaid, PaymentStatusFor(d("300"), d("350")))
}

var installmentCols = []string{"id", "viagem_passageiro_id", "numero_parcela", "total_parcelas", "valor_parcela", "data_vencimento", "data_pagamento"}

func installmentsFor(db *sqlx.DB) InstallmentService {
	return InstallmentService{
		Installments: repositories.InstallmentRepository{DB: db},
		Passengers:   repositories.PassengerRepository{DB: db},
		DB:           db,
	}
}

// passenger 5 owes 200 and has paid 80 of it.
func expectPassengerLedger(mock sqlmock.Sqlmock, rows *sqlmock.Rows) {
	mock.ExpectQuery(`WHERE p\.id = \?`).WithArgs(5).
		WillReturnRows(passengerRow(sqlmock.NewRows(passengerCols), 5, 10, "", ""))
	mock.ExpectQuery(`FROM viagem_passageiros_parcelas WHERE viagem_passageiro_id = \?`).WithArgs(5).WillReturnRows(rows)
}

func paidRows(extra ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows(installmentCols).AddRow(1, 5, 1, 1, "80", day(2024, 1, 10), day(2024, 1, 10))
	for i, amount := range extra {
		rows.AddRow(2+i, 5, 2+i, 2+i, amount, day(2024, 2, 10), day(2024, 2, 10))
	}
	return rows
}

func TestAutoSettlePaysThePendingBalance(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	expectPassengerLedger(mock, paidRows())
	mock.ExpectQuery(`FROM viagem_passageiros_parcelas WHERE viagem_passageiro_id = \?`).WithArgs(5).WillReturnRows(paidRows())
	mock.ExpectExec(`INSERT INTO viagem_passageiros_parcelas`).
		WithArgs(5, 2, 2, d("120"), sqlmock.AnyArg(), sqlmock.AnyArg(), "pix", models.PaymentCategoryTrip, "Quitação automática").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec(`INSERT INTO historico_pagamentos_categorizado`).
		WithArgs(5, models.PaymentCategoryTrip, d("120"), "pix", sqlmock.AnyArg(), "Quitação automática").
		WillReturnResult(sqlmock.NewResult(1, 1))
	expectPassengerLedger(mock, paidRows("120"))
	mock.ExpectExec(`UPDATE viagem_passageiros SET status_pagamento = \?`).
		WithArgs(models.PaymentStatusPaid, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	fin, err := installmentsFor(db).AutoSettle(context.Background(), 5, "pix")
	require.NoError(t, err)
	assert.False(t, fin.HasPending)
	assert.True(t, d("200").Equal(fin.PaidToDate), fin.PaidToDate.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoSettleSettledPassengerWritesNothing(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	expectPassengerLedger(mock, paidRows("120"))
	mock.ExpectCommit()

	fin, err := installmentsFor(db).AutoSettle(context.Background(), 5, "pix")
	require.NoError(t, err)
	assert.False(t, fin.HasPending)
	assert.NoError(t, mock.ExpectationsWereMet())
}
