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

const ticketSelect = `
	SELECT i.id, i.cliente_id, COALESCE(c.nome,'') AS cliente_nome, i.viagem_id, i.jogo_data,
	       COALESCE(i.adversario,'') AS adversario, COALESCE(i.setor_estadio,'') AS setor_estadio,
	       COALESCE(i.preco_custo,0) AS preco_custo, COALESCE(i.preco_venda,0) AS preco_venda,
	       COALESCE(i.desconto,0) AS desconto, COALESCE(i.situacao_financeira,'pendente') AS situacao_financeira,
	       COALESCE(i.observacoes,'') AS observacoes, i.created_at
	FROM ingressos i
	LEFT JOIN clientes c ON c.id = i.cliente_id`

// TicketFilter narrows List; zero values are ignored.
type TicketFilter struct {
	ClientID int64
	TripID   int64
	Status   string
	Start    time.Time
	End      time.Time
}

type TicketRepository struct {
	DB *sqlx.DB
	Tx *sqlx.Tx
}

func (r TicketRepository) WithTx(tx *sqlx.Tx) TicketRepository {
	r.Tx = tx
	return r
}

func (r TicketRepository) GetByID(ctx context.Context, id int64) (models.Ticket, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return models.Ticket{}, err
	}
	var t models.Ticket
	err = intdb.Get(ctx, q, &t, ticketSelect+` WHERE i.id = ?`, id)
	if intdb.IsNoRows(err) {
		return models.Ticket{}, domain.NotFoundError{Resource: "ingresso"}
	}
	return t, err
}

func (r TicketRepository) List(ctx context.Context, f TicketFilter) ([]models.Ticket, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return nil, err
	}
	query := ticketSelect + ` WHERE 1=1`
	args := []any{}
	if f.ClientID > 0 {
		query += ` AND i.cliente_id = ?`
		args = append(args, f.ClientID)
	}
	if f.TripID > 0 {
		query += ` AND i.viagem_id = ?`
		args = append(args, f.TripID)
	}
	if f.Status != "" {
		query += ` AND i.situacao_financeira = ?`
		args = append(args, f.Status)
	}
	if !f.Start.IsZero() {
		query += ` AND i.jogo_data >= ?`
		args = append(args, f.Start)
	}
	if !f.End.IsZero() {
		query += ` AND i.jogo_data < ?`
		args = append(args, f.End.AddDate(0, 0, 1))
	}
	out := []models.Ticket{}
	err = intdb.Select(ctx, q, &out, query+` ORDER BY i.jogo_data DESC, i.id DESC`, args...)
	return out, err
}

func (r TicketRepository) Create(ctx context.Context, in models.TicketInput) (int64, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return 0, err
	}
	return intdb.InsertReturningID(ctx, q, `
		INSERT INTO ingressos
			(cliente_id, viagem_id, jogo_data, adversario, setor_estadio, preco_custo, preco_venda,
			 desconto, situacao_financeira, observacoes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ClientID, intdb.NullInt64(in.TripID), in.MatchDate, in.Opponent, in.Sector, in.CostPrice,
		in.SalePrice, in.Discount, models.TicketStatusPending, in.Notes)
}

func (r TicketRepository) SetStatus(ctx context.Context, id int64, status string) error {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return err
	}
	_, err = intdb.Exec(ctx, q, `UPDATE ingressos SET situacao_financeira = ? WHERE id = ?`, status, id)
	return err
}

func (r TicketRepository) Delete(ctx context.Context, id int64) error {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return err
	}
	if _, err := intdb.Exec(ctx, q, `DELETE FROM ingressos_pagamentos WHERE ingresso_id = ?`, id); err != nil {
		return err
	}
	n, err := intdb.Exec(ctx, q, `DELETE FROM ingressos WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFoundError{Resource: "ingresso"}
	}
	return nil
}

func (r TicketRepository) AddPayment(ctx context.Context, p models.TicketPayment) (int64, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return 0, err
	}
	return intdb.InsertReturningID(ctx, q, `
		INSERT INTO ingressos_pagamentos (ingresso_id, valor_pago, data_pagamento, forma_pagamento, observacoes)
		VALUES (?, ?, ?, ?, ?)`,
		p.TicketID, p.Amount, p.PaidAt, p.PaymentMethod, p.Notes)
}

func (r TicketRepository) ListPayments(ctx context.Context, ticketID int64) ([]models.TicketPayment, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return nil, err
	}
	out := []models.TicketPayment{}
	err = intdb.Select(ctx, q, &out, `
		SELECT id, ingresso_id, COALESCE(valor_pago,0) AS valor_pago, data_pagamento,
		       COALESCE(forma_pagamento,'') AS forma_pagamento, COALESCE(observacoes,'') AS observacoes
		FROM ingressos_pagamentos WHERE ingresso_id = ? ORDER BY data_pagamento, id`, ticketID)
	return out, err
}

func (r TicketRepository) SumPayments(ctx context.Context, ticketID int64) (decimal.Decimal, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return decimal.Zero, err
	}
	var sum decimal.Decimal
	err = intdb.Get(ctx, q, &sum, `SELECT COALESCE(SUM(valor_pago),0) FROM ingressos_pagamentos WHERE ingresso_id = ?`, ticketID)
	return sum, err
}
