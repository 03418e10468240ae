package services

import (
	"context"
	"testing"

	"caravanas/internal/domain"
	"caravanas/internal/domain/models"
	"caravanas/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextCreditStatus(t *testing.T) {
	cases := []struct {
		name      string
		value     string
		available string
		refunded  bool
		want      string
	}{
		{"untouched", "500", "500", false, models.CreditAvailable},
		{"partly linked", "500", "200", false, models.CreditPartial},
		{"fully linked", "500", "0", false, models.CreditUsed},
		{"rounding leftover", "500", "0.01", false, models.CreditUsed},
		{"refunded wins", "500", "500", true, models.CreditRefunded},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NextCreditStatus(d(tc.value), d(tc.available), tc.refunded))
		})
	}
}

var creditCols = []string{"id", "cliente_id", "cliente_nome", "valor_credito", "tipo_credito", "data_pagamento", "forma_pagamento", "status", "saldo_disponivel", "observacoes"}

func creditsFor(db *sqlx.DB) CreditService {
	return CreditService{
		Credits: repositories.CreditRepository{DB: db},
		Trips:   repositories.TripRepository{DB: db},
		DB:      db,
	}
}

func expectLockedCredit(mock sqlmock.Sqlmock, status, value, available string) {
	mock.ExpectQuery(`FROM creditos WHERE id = \? FOR UPDATE`).WithArgs(3).
		WillReturnRows(sqlmock.NewRows(creditCols).
			AddRow(3, 1, "", value, "viagem", day(2024, 2, 1), "pix", status, available, ""))
}

func expectTrip(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`FROM viagens WHERE id = \?`).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "adversario", "data_jogo"}).AddRow(1, "Vasco", day(2024, 3, 20)))
}

func TestLinkToTripPartial(t *testing.T) {
	db, mock := newMockDB(t)
	expectTrip(mock)
	mock.ExpectBegin()
	expectLockedCredit(mock, models.CreditAvailable, "500", "500")
	mock.ExpectExec(`INSERT INTO credito_viagem_vinculacoes`).
		WithArgs(3, 1, d("200"), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectExec(`UPDATE creditos SET saldo_disponivel = \?, status = \? WHERE id = \?`).
		WithArgs(d("300"), models.CreditPartial, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, err := creditsFor(db).LinkToTrip(context.Background(), 3, 1, d("200"))
	require.NoError(t, err)
	assert.Equal(t, models.CreditPartial, c.Status)
	assert.True(t, d("300").Equal(c.Available))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkToTripUsesUpCredit(t *testing.T) {
	db, mock := newMockDB(t)
	expectTrip(mock)
	mock.ExpectBegin()
	expectLockedCredit(mock, models.CreditPartial, "500", "150")
	mock.ExpectExec(`INSERT INTO credito_viagem_vinculacoes`).WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectExec(`UPDATE creditos SET saldo_disponivel`).
		WithArgs(d("0"), models.CreditUsed, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, err := creditsFor(db).LinkToTrip(context.Background(), 3, 1, d("150"))
	require.NoError(t, err)
	assert.Equal(t, models.CreditUsed, c.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkToTripOverAvailable(t *testing.T) {
	db, mock := newMockDB(t)
	expectTrip(mock)
	mock.ExpectBegin()
	expectLockedCredit(mock, models.CreditPartial, "500", "100")
	mock.ExpectRollback()

	_, err := creditsFor(db).LinkToTrip(context.Background(), 3, 1, d("100.01"))
	assert.True(t, domain.IsInsufficientBalance(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefundZeroesAvailable(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	expectLockedCredit(mock, models.CreditPartial, "500", "300")
	mock.ExpectExec(`UPDATE creditos SET saldo_disponivel`).
		WithArgs(d("0"), models.CreditRefunded, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, err := creditsFor(db).Refund(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, models.CreditRefunded, c.Status)
	assert.True(t, c.Available.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefundRejectsUsedOrRefunded(t *testing.T) {
	for _, status := range []string{models.CreditUsed, models.CreditRefunded} {
		t.Run(status, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectBegin()
			expectLockedCredit(mock, status, "500", "0")
			mock.ExpectRollback()

			_, err := creditsFor(db).Refund(context.Background(), 3)
			assert.True(t, domain.IsConflict(err))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
