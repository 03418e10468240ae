package repositories

import (
	"context"
	"time"

	intdb "caravanas/internal/db"
	"caravanas/internal/domain"
	"caravanas/internal/domain/models"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const revenueColumns = `id, viagem_id, COALESCE(descricao,'') AS descricao, COALESCE(categoria,'') AS categoria,
	COALESCE(valor,0) AS valor, data_recebimento, COALESCE(status,'') AS status,
	COALESCE(forma_pagamento,'') AS forma_pagamento`

const expenseColumns = `id, viagem_id, COALESCE(fornecedor,'') AS fornecedor, COALESCE(categoria,'') AS categoria,
	COALESCE(descricao,'') AS descricao, COALESCE(valor,0) AS valor, data_despesa,
	COALESCE(status,'') AS status, COALESCE(forma_pagamento,'') AS forma_pagamento`

// FinanceRepository covers viagem_setores_precos, viagem_receitas and viagem_despesas.
type FinanceRepository struct {
	DB *sqlx.DB
	Tx *sqlx.Tx
}

func (r FinanceRepository) WithTx(tx *sqlx.Tx) FinanceRepository {
	r.Tx = tx
	return r
}

// OptionalTables reports which of the optional ledger tables exist.
func (r FinanceRepository) OptionalTables(ctx context.Context) map[string]bool {
	q, err := queryer(r.DB, r.Tx)
	out := map[string]bool{"viagem_receitas": false, "viagem_despesas": false, "viagem_setores_precos": false}
	if err != nil {
		return out
	}
	for table := range out {
		out[table] = intdb.HasTable(ctx, q, table)
	}
	return out
}

func (r FinanceRepository) ListSectorPrices(ctx context.Context, tripID int64) ([]models.SectorPrice, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return nil, err
	}
	out := []models.SectorPrice{}
	err = intdb.Select(ctx, q, &out, `
		SELECT id, viagem_id, setor, COALESCE(preco_custo,0) AS preco_custo, COALESCE(preco_venda,0) AS preco_venda
		FROM viagem_setores_precos WHERE viagem_id = ? ORDER BY setor`, tripID)
	return out, err
}

func (r FinanceRepository) DeleteSectorPrices(ctx context.Context, tripID int64) error {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return err
	}
	_, err = intdb.Exec(ctx, q, `DELETE FROM viagem_setores_precos WHERE viagem_id = ?`, tripID)
	return err
}

func (r FinanceRepository) InsertSectorPrice(ctx context.Context, p models.SectorPrice) error {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return err
	}
	_, err = intdb.Exec(ctx, q, `
		INSERT INTO viagem_setores_precos (viagem_id, setor, preco_custo, preco_venda)
		VALUES (?, ?, ?, ?)`, p.TripID, p.Sector, p.CostPrice, p.SalePrice)
	return err
}

// ListRevenues returns viagem_receitas rows of the given trips.
func (r FinanceRepository) ListRevenues(ctx context.Context, tripIDs []int64) ([]models.TripRevenue, error) {
	out := []models.TripRevenue{}
	if len(tripIDs) == 0 {
		return out, nil
	}
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return nil, err
	}
	err = intdb.In(ctx, q, &out, `SELECT `+revenueColumns+`
		FROM viagem_receitas WHERE viagem_id IN (?) ORDER BY data_recebimento, id`, tripIDs)
	return out, err
}

func (r FinanceRepository) CreateRevenue(ctx context.Context, rev models.TripRevenue) (int64, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return 0, err
	}
	return intdb.InsertReturningID(ctx, q, `
		INSERT INTO viagem_receitas (viagem_id, descricao, categoria, valor, data_recebimento, status, forma_pagamento)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rev.TripID, rev.Description, rev.Category, rev.Amount, rev.ReceivedAt, rev.Status, rev.PaymentMethod)
}

func (r FinanceRepository) DeleteRevenue(ctx context.Context, id int64) error {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return err
	}
	n, err := intdb.Exec(ctx, q, `DELETE FROM viagem_receitas WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFoundError{Resource: "receita"}
	}
	return nil
}

// FindRevenueByMarker returns the id of the revenue row with descricao = marker.
func (r FinanceRepository) FindRevenueByMarker(ctx context.Context, tripID int64, marker string) (int64, bool, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return 0, false, err
	}
	var id int64
	err = intdb.Get(ctx, q, &id, `SELECT id FROM viagem_receitas WHERE viagem_id = ? AND descricao = ? ORDER BY id LIMIT 1`, tripID, marker)
	if intdb.IsNoRows(err) {
		return 0, false, nil
	}
	return id, err == nil, err
}

func (r FinanceRepository) UpdateRevenueAmount(ctx context.Context, id int64, amount decimal.Decimal, at time.Time) error {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return err
	}
	_, err = intdb.Exec(ctx, q, `UPDATE viagem_receitas SET valor = ?, data_recebimento = ? WHERE id = ?`, amount, at, id)
	return err
}

func (r FinanceRepository) DeleteRevenueByMarker(ctx context.Context, tripID int64, marker string) error {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return err
	}
	_, err = intdb.Exec(ctx, q, `DELETE FROM viagem_receitas WHERE viagem_id = ? AND descricao = ?`, tripID, marker)
	return err
}

// ListExpenses returns viagem_despesas rows of the given trips.
func (r FinanceRepository) ListExpenses(ctx context.Context, tripIDs []int64) ([]models.TripExpense, error) {
	out := []models.TripExpense{}
	if len(tripIDs) == 0 {
		return out, nil
	}
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return nil, err
	}
	err = intdb.In(ctx, q, &out, `SELECT `+expenseColumns+`
		FROM viagem_despesas WHERE viagem_id IN (?) ORDER BY data_despesa, id`, tripIDs)
	return out, err
}

func (r FinanceRepository) CreateExpense(ctx context.Context, exp models.TripExpense) (int64, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return 0, err
	}
	return intdb.InsertReturningID(ctx, q, `
		INSERT INTO viagem_despesas (viagem_id, fornecedor, categoria, descricao, valor, data_despesa, status, forma_pagamento)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		exp.TripID, exp.Supplier, exp.Category, exp.Description, exp.Amount, exp.SpentAt, exp.Status, exp.PaymentMethod)
}

func (r FinanceRepository) DeleteExpense(ctx context.Context, id int64) error {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return err
	}
	n, err := intdb.Exec(ctx, q, `DELETE FROM viagem_despesas WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFoundError{Resource: "despesa"}
	}
	return nil
}

// FindExpenseByMarker returns the id of the expense row with fornecedor = marker.
func (r FinanceRepository) FindExpenseByMarker(ctx context.Context, tripID int64, marker string) (int64, bool, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return 0, false, err
	}
	var id int64
	err = intdb.Get(ctx, q, &id, `SELECT id FROM viagem_despesas WHERE viagem_id = ? AND fornecedor = ? ORDER BY id LIMIT 1`, tripID, marker)
	if intdb.IsNoRows(err) {
		return 0, false, nil
	}
	return id, err == nil, err
}

func (r FinanceRepository) UpdateExpenseAmount(ctx context.Context, id int64, amount decimal.Decimal, at time.Time) error {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return err
	}
	_, err = intdb.Exec(ctx, q, `UPDATE viagem_despesas SET valor = ?, data_despesa = ? WHERE id = ?`, amount, at, id)
	return err
}

func (r FinanceRepository) DeleteExpenseByMarker(ctx context.Context, tripID int64, marker string) error {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return err
	}
	_, err = intdb.Exec(ctx, q, `DELETE FROM viagem_despesas WHERE viagem_id = ? AND fornecedor = ?`, tripID, marker)
	return err
}
