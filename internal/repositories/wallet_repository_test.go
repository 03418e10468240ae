package repositories

import (
	"context"
	"testing"

	"caravanas/internal/domain"
	"caravanas/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

func TestWalletRepositoryGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM cliente_carteira WHERE cliente_id = \?`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"cliente_id"}))

	repo := WalletRepository{DB: sqlx.NewDb(db, "sqlmock")}
	if _, err := repo.Get(context.Background(), 4, false); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestWalletRepositoryInsertTransactionPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO cliente_carteira_transacoes .* VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8, \$9\) RETURNING id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(31)))

	repo := WalletRepository{DB: sqlx.NewDb(db, "postgres")}
	id, err := repo.InsertTransaction(context.Background(), walletTxFixture())
	if err != nil {
		t.Fatalf("InsertTransaction returned error: %v", err)
	}
	if id != 31 {
		t.Fatalf("expected id 31, got %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestQueryerWithoutConnection(t *testing.T) {
	if _, err := (WalletRepository{}).Get(context.Background(), 1, false); err != ErrNoDB {
		t.Fatalf("expected ErrNoDB, got %v", err)
	}
}

func walletTxFixture() models.WalletTransaction {
	return models.WalletTransaction{
		ClientID:      1,
		Type:          models.WalletTxDeposit,
		Amount:        decimal.NewFromInt(100),
		BalanceBefore: decimal.Zero,
		BalanceAfter:  decimal.NewFromInt(100),
	}
}
