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

const walletColumns = `cliente_id, COALESCE(saldo_atual,0) AS saldo_atual,
	COALESCE(total_depositado,0) AS total_depositado, COALESCE(total_usado,0) AS total_usado, updated_at`

const walletTxColumns = `id, cliente_id, tipo, COALESCE(valor,0) AS valor,
	COALESCE(saldo_anterior,0) AS saldo_anterior, COALESCE(saldo_posterior,0) AS saldo_posterior,
	COALESCE(descricao,'') AS descricao, COALESCE(forma_pagamento,'') AS forma_pagamento,
	viagem_id, COALESCE(cancelada,false) AS cancelada, created_at`

type WalletRepository struct {
	DB *sqlx.DB
	Tx *sqlx.Tx
}

func (r WalletRepository) WithTx(tx *sqlx.Tx) WalletRepository {
	r.Tx = tx
	return r
}

// Get returns the wallet; lock=true takes a row lock (needs a transaction).
func (r WalletRepository) Get(ctx context.Context, clientID int64, lock bool) (models.Wallet, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return models.Wallet{}, err
	}
	query := `SELECT ` + walletColumns + ` FROM cliente_carteira WHERE cliente_id = ?`
	if lock {
		query = forUpdate(query)
	}
	var w models.Wallet
	err = intdb.Get(ctx, q, &w, query, clientID)
	if intdb.IsNoRows(err) {
		return models.Wallet{}, domain.NotFoundError{Resource: "carteira"}
	}
	return w, err
}

func (r WalletRepository) Create(ctx context.Context, clientID int64) error {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return err
	}
	_, err = intdb.Exec(ctx, q, `
		INSERT INTO cliente_carteira (cliente_id, saldo_atual, total_depositado, total_usado, updated_at)
		VALUES (?, 0, 0, 0, ?)`, clientID, time.Now())
	return err
}

func (r WalletRepository) SaveBalance(ctx context.Context, w models.Wallet) error {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return err
	}
	_, err = intdb.Exec(ctx, q, `
		UPDATE cliente_carteira
		SET saldo_atual = ?, total_depositado = ?, total_usado = ?, updated_at = ?
		WHERE cliente_id = ?`,
		w.Balance, w.TotalDeposited, w.TotalUsed, time.Now(), w.ClientID)
	return err
}

func (r WalletRepository) InsertTransaction(ctx context.Context, t models.WalletTransaction) (int64, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return 0, err
	}
	return intdb.InsertReturningID(ctx, q, `
		INSERT INTO cliente_carteira_transacoes
			(cliente_id, tipo, valor, saldo_anterior, saldo_posterior, descricao, forma_pagamento, viagem_id, cancelada)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ClientID, t.Type, t.Amount, t.BalanceBefore, t.BalanceAfter, t.Description,
		t.PaymentMethod, intdb.NullInt64(t.TripID), false)
}

func (r WalletRepository) GetTransaction(ctx context.Context, id int64, lock bool) (models.WalletTransaction, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return models.WalletTransaction{}, err
	}
	query := `SELECT ` + walletTxColumns + ` FROM cliente_carteira_transacoes WHERE id = ?`
	if lock {
		query = forUpdate(query)
	}
	var t models.WalletTransaction
	err = intdb.Get(ctx, q, &t, query, id)
	if intdb.IsNoRows(err) {
		return models.WalletTransaction{}, domain.NotFoundError{Resource: "transação"}
	}
	return t, err
}

func (r WalletRepository) MarkCancelled(ctx context.Context, id int64) error {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return err
	}
	_, err = intdb.Exec(ctx, q, `UPDATE cliente_carteira_transacoes SET cancelada = ? WHERE id = ?`, true, id)
	return err
}

func (r WalletRepository) ListTransactions(ctx context.Context, clientID int64, page domain.Pagination) ([]models.WalletTransaction, int, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return nil, 0, err
	}
	page = page.Normalize()
	var total int
	if err := intdb.Get(ctx, q, &total, `SELECT COUNT(*) FROM cliente_carteira_transacoes WHERE cliente_id = ?`, clientID); err != nil {
		return nil, 0, err
	}
	out := []models.WalletTransaction{}
	err = intdb.Select(ctx, q, &out, `SELECT `+walletTxColumns+`
		FROM cliente_carteira_transacoes WHERE cliente_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, clientID, page.PageSize, page.Offset())
	return out, total, err
}

// WalletTxWithClient is a transaction plus the client's name, for reports.
type WalletTxWithClient struct {
	models.WalletTransaction
	ClientName string `db:"cliente_nome"`
}

// ListTransactionsInRange returns non-cancelled transactions created in [start, end].
func (r WalletRepository) ListTransactionsInRange(ctx context.Context, start, end time.Time, clientID int64) ([]WalletTxWithClient, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT t.id, t.cliente_id, t.tipo, COALESCE(t.valor,0) AS valor,
		       COALESCE(t.saldo_anterior,0) AS saldo_anterior, COALESCE(t.saldo_posterior,0) AS saldo_posterior,
		       COALESCE(t.descricao,'') AS descricao, COALESCE(t.forma_pagamento,'') AS forma_pagamento,
		       t.viagem_id, COALESCE(t.cancelada,false) AS cancelada, t.created_at,
		       COALESCE(c.nome,'') AS cliente_nome
		FROM cliente_carteira_transacoes t
		LEFT JOIN clientes c ON c.id = t.cliente_id
		WHERE COALESCE(t.cancelada,false) = false`
	args := []any{}
	if !start.IsZero() {
		query += ` AND t.created_at >= ?`
		args = append(args, start)
	}
	if !end.IsZero() {
		query += ` AND t.created_at < ?`
		args = append(args, end.AddDate(0, 0, 1))
	}
	if clientID > 0 {
		query += ` AND t.cliente_id = ?`
		args = append(args, clientID)
	}
	out := []WalletTxWithClient{}
	err = intdb.Select(ctx, q, &out, query+` ORDER BY t.created_at, t.id`, args...)
	return out, err
}

type journalTotals struct {
	Deposits    decimal.Decimal `db:"depositos"`
	Uses        decimal.Decimal `db:"usos"`
	Adjustments decimal.Decimal `db:"ajustes"`
}

// JournalTotals sums non-cancelled transactions by type.
func (r WalletRepository) JournalTotals(ctx context.Context, clientID int64) (deposits, uses, adjustments decimal.Decimal, err error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return
	}
	var t journalTotals
	err = intdb.Get(ctx, q, &t, `
		SELECT COALESCE(SUM(CASE WHEN tipo = 'deposito' THEN valor ELSE 0 END),0) AS depositos,
		       COALESCE(SUM(CASE WHEN tipo = 'uso' THEN valor ELSE 0 END),0) AS usos,
		       COALESCE(SUM(CASE WHEN tipo = 'ajuste' THEN valor ELSE 0 END),0) AS ajustes
		FROM cliente_carteira_transacoes
		WHERE cliente_id = ? AND COALESCE(cancelada,false) = false`, clientID)
	return t.Deposits, t.Uses, t.Adjustments, err
}
