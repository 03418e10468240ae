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

const creditSelect = `
	SELECT cr.id, cr.cliente_id, COALESCE(c.nome,'') AS cliente_nome, COALESCE(cr.valor_credito,0) AS valor_credito,
	       COALESCE(cr.tipo_credito,'') AS tipo_credito, cr.data_pagamento,
	       COALESCE(cr.forma_pagamento,'') AS forma_pagamento, cr.status,
	       COALESCE(cr.saldo_disponivel,0) AS saldo_disponivel, COALESCE(cr.observacoes,'') AS observacoes
	FROM creditos cr
	LEFT JOIN clientes c ON c.id = cr.cliente_id`

type CreditRepository struct {
	DB *sqlx.DB
	Tx *sqlx.Tx
}

func (r CreditRepository) WithTx(tx *sqlx.Tx) CreditRepository {
	r.Tx = tx
	return r
}

func (r CreditRepository) GetByID(ctx context.Context, id int64, lock bool) (models.Credit, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return models.Credit{}, err
	}
	query := creditSelect + ` WHERE cr.id = ?`
	if lock {
		// lock only the credit row; postgres refuses FOR UPDATE on the nullable side of a join
		query = `SELECT id, cliente_id, '' AS cliente_nome, COALESCE(valor_credito,0) AS valor_credito,
		       COALESCE(tipo_credito,'') AS tipo_credito, data_pagamento,
		       COALESCE(forma_pagamento,'') AS forma_pagamento, status,
		       COALESCE(saldo_disponivel,0) AS saldo_disponivel, COALESCE(observacoes,'') AS observacoes
		FROM creditos WHERE id = ?`
		query = forUpdate(query)
	}
	var c models.Credit
	err = intdb.Get(ctx, q, &c, query, id)
	if intdb.IsNoRows(err) {
		return models.Credit{}, domain.NotFoundError{Resource: "crédito"}
	}
	return c, err
}

func (r CreditRepository) List(ctx context.Context, clientID int64, status string) ([]models.Credit, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return nil, err
	}
	query := creditSelect + ` WHERE 1=1`
	args := []any{}
	if clientID > 0 {
		query += ` AND cr.cliente_id = ?`
		args = append(args, clientID)
	}
	if status != "" {
		query += ` AND cr.status = ?`
		args = append(args, status)
	}
	out := []models.Credit{}
	err = intdb.Select(ctx, q, &out, query+` ORDER BY cr.data_pagamento DESC, cr.id DESC`, args...)
	return out, err
}

func (r CreditRepository) Create(ctx context.Context, c models.Credit) (int64, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return 0, err
	}
	return intdb.InsertReturningID(ctx, q, `
		INSERT INTO creditos
			(cliente_id, valor_credito, tipo_credito, data_pagamento, forma_pagamento, status, saldo_disponivel, observacoes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ClientID, c.Value, c.Type, c.PaidAt, c.PaymentMethod, c.Status, c.Available, c.Notes)
}

func (r CreditRepository) UpdateBalance(ctx context.Context, id int64, available decimal.Decimal, status string) error {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return err
	}
	_, err = intdb.Exec(ctx, q, `UPDATE creditos SET saldo_disponivel = ?, status = ? WHERE id = ?`, available, status, id)
	return err
}

func (r CreditRepository) InsertLink(ctx context.Context, creditID, tripID int64, amount decimal.Decimal, at time.Time) (int64, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return 0, err
	}
	return intdb.InsertReturningID(ctx, q, `
		INSERT INTO credito_viagem_vinculacoes (credito_id, viagem_id, valor_utilizado, data_vinculacao)
		VALUES (?, ?, ?, ?)`, creditID, tripID, amount, at)
}

func (r CreditRepository) ListLinks(ctx context.Context, creditID int64) ([]models.CreditLink, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return nil, err
	}
	out := []models.CreditLink{}
	err = intdb.Select(ctx, q, &out, `
		SELECT id, credito_id, viagem_id, COALESCE(valor_utilizado,0) AS valor_utilizado, data_vinculacao
		FROM credito_viagem_vinculacoes WHERE credito_id = ? ORDER BY data_vinculacao, id`, creditID)
	return out, err
}
