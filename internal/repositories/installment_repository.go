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

const installmentColumns = `id, viagem_passageiro_id, numero_parcela, total_parcelas,
	COALESCE(valor_parcela,0) AS valor_parcela, data_vencimento, data_pagamento,
	COALESCE(forma_pagamento,'') AS forma_pagamento, COALESCE(categoria,'') AS categoria,
	COALESCE(observacoes,'') AS observacoes`

type InstallmentRepository struct {
	DB *sqlx.DB
	Tx *sqlx.Tx
}

func (r InstallmentRepository) WithTx(tx *sqlx.Tx) InstallmentRepository {
	r.Tx = tx
	return r
}

func (r InstallmentRepository) GetByID(ctx context.Context, id int64) (models.Installment, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return models.Installment{}, err
	}
	var in models.Installment
	err = intdb.Get(ctx, q, &in, `SELECT `+installmentColumns+` FROM viagem_passageiros_parcelas WHERE id = ?`, id)
	if intdb.IsNoRows(err) {
		return models.Installment{}, domain.NotFoundError{Resource: "parcela"}
	}
	return in, err
}

func (r InstallmentRepository) ListByPassenger(ctx context.Context, passengerID int64) ([]models.Installment, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return nil, err
	}
	out := []models.Installment{}
	err = intdb.Select(ctx, q, &out, `SELECT `+installmentColumns+`
		FROM viagem_passageiros_parcelas WHERE viagem_passageiro_id = ? ORDER BY numero_parcela, id`, passengerID)
	return out, err
}

// ListByPassengers loads installments for many passengers in one round trip.
func (r InstallmentRepository) ListByPassengers(ctx context.Context, passengerIDs []int64) (map[int64][]models.Installment, error) {
	out := map[int64][]models.Installment{}
	if len(passengerIDs) == 0 {
		return out, nil
	}
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return nil, err
	}
	rows := []models.Installment{}
	if err := intdb.In(ctx, q, &rows, `SELECT `+installmentColumns+`
		FROM viagem_passageiros_parcelas WHERE viagem_passageiro_id IN (?)
		ORDER BY viagem_passageiro_id, numero_parcela, id`, passengerIDs); err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.PassengerID] = append(out[row.PassengerID], row)
	}
	return out, nil
}

func (r InstallmentRepository) Create(ctx context.Context, in models.Installment) (int64, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return 0, err
	}
	return intdb.InsertReturningID(ctx, q, `
		INSERT INTO viagem_passageiros_parcelas
			(viagem_passageiro_id, numero_parcela, total_parcelas, valor_parcela, data_vencimento,
			 data_pagamento, forma_pagamento, categoria, observacoes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.PassengerID, in.Number, in.Total, in.Amount, in.DueDate,
		in.PaidAt, in.PaymentMethod, in.Category, in.Notes)
}

// MarkPaid stamps data_pagamento on an unpaid installment.
func (r InstallmentRepository) MarkPaid(ctx context.Context, id int64, paidAt time.Time, method string) error {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return err
	}
	n, err := intdb.Exec(ctx, q, `
		UPDATE viagem_passageiros_parcelas
		SET data_pagamento = ?, forma_pagamento = ?
		WHERE id = ? AND data_pagamento IS NULL`, paidAt, method, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ConflictError{Resource: "parcela", Msg: "parcela já paga ou inexistente"}
	}
	return nil
}

// DueInstallment is an unpaid installment joined with who owes it.
type DueInstallment struct {
	models.Installment
	ClientName  string    `db:"cliente_nome"`
	ClientPhone string    `db:"cliente_telefone"`
	Opponent    string    `db:"adversario"`
	MatchDate   time.Time `db:"data_jogo"`
}

// ListUnpaidDueBy returns unpaid installments with data_vencimento <= until.
func (r InstallmentRepository) ListUnpaidDueBy(ctx context.Context, until time.Time) ([]DueInstallment, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return nil, err
	}
	out := []DueInstallment{}
	err = intdb.Select(ctx, q, &out, `
		SELECT i.id, i.viagem_passageiro_id, i.numero_parcela, i.total_parcelas,
		       COALESCE(i.valor_parcela,0) AS valor_parcela, i.data_vencimento, i.data_pagamento,
		       COALESCE(i.forma_pagamento,'') AS forma_pagamento, COALESCE(i.categoria,'') AS categoria,
		       COALESCE(i.observacoes,'') AS observacoes,
		       COALESCE(c.nome,'') AS cliente_nome, COALESCE(c.telefone,'') AS cliente_telefone,
		       v.adversario, v.data_jogo
		FROM viagem_passageiros_parcelas i
		JOIN viagem_passageiros p ON p.id = i.viagem_passageiro_id
		JOIN viagens v ON v.id = p.viagem_id
		LEFT JOIN clientes c ON c.id = p.cliente_id
		WHERE i.data_pagamento IS NULL AND i.data_vencimento <= ?
		ORDER BY i.data_vencimento, i.id`, until)
	return out, err
}

const historyColumns = `id, viagem_passageiro_id, categoria, COALESCE(valor_pago,0) AS valor_pago,
	COALESCE(forma_pagamento,'') AS forma_pagamento, data_pagamento,
	COALESCE(observacoes,'') AS observacoes, created_at`

func (r InstallmentRepository) AddHistory(ctx context.Context, h models.PaymentHistory) (int64, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return 0, err
	}
	return intdb.InsertReturningID(ctx, q, `
		INSERT INTO historico_pagamentos_categorizado
			(viagem_passageiro_id, categoria, valor_pago, forma_pagamento, data_pagamento, observacoes)
		VALUES (?, ?, ?, ?, ?, ?)`,
		h.PassengerID, h.Category, h.Amount, h.PaymentMethod, h.PaidAt, h.Notes)
}

func (r InstallmentRepository) ListHistory(ctx context.Context, passengerID int64) ([]models.PaymentHistory, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return nil, err
	}
	out := []models.PaymentHistory{}
	err = intdb.Select(ctx, q, &out, `SELECT `+historyColumns+`
		FROM historico_pagamentos_categorizado WHERE viagem_passageiro_id = ?
		ORDER BY data_pagamento, id`, passengerID)
	return out, err
}

func (r InstallmentRepository) UpdateHistoryAmount(ctx context.Context, id int64, amount decimal.Decimal) error {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return err
	}
	n, err := intdb.Exec(ctx, q, `UPDATE historico_pagamentos_categorizado SET valor_pago = ? WHERE id = ?`, amount, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFoundError{Resource: "pagamento"}
	}
	return nil
}

func (r InstallmentRepository) DeleteHistory(ctx context.Context, id int64) error {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return err
	}
	n, err := intdb.Exec(ctx, q, `DELETE FROM historico_pagamentos_categorizado WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFoundError{Resource: "pagamento"}
	}
	return nil
}
