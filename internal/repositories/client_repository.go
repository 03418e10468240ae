package repositories

import (
	"context"
	"strings"

	intdb "caravanas/internal/db"
	"caravanas/internal/domain"
	"caravanas/internal/domain/models"

	"github.com/jmoiron/sqlx"
)

const clientColumns = `id, nome, COALESCE(cpf,'') AS cpf, COALESCE(telefone,'') AS telefone,
	COALESCE(email,'') AS email, data_nascimento, COALESCE(endereco,'') AS endereco,
	COALESCE(cidade,'') AS cidade, COALESCE(estado,'') AS estado, created_at`

type ClientRepository struct {
	DB *sqlx.DB
	Tx *sqlx.Tx
}

func (r ClientRepository) WithTx(tx *sqlx.Tx) ClientRepository {
	r.Tx = tx
	return r
}

func (r ClientRepository) GetByID(ctx context.Context, id int64) (models.Client, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return models.Client{}, err
	}
	var c models.Client
	err = intdb.Get(ctx, q, &c, `SELECT `+clientColumns+` FROM clientes WHERE id = ?`, id)
	if intdb.IsNoRows(err) {
		return models.Client{}, domain.NotFoundError{Resource: "cliente"}
	}
	return c, err
}

// List searches by name (case-insensitive) or CPF digits.
func (r ClientRepository) List(ctx context.Context, search string, page domain.Pagination) ([]models.Client, int, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return nil, 0, err
	}
	page = page.Normalize()

	where := ""
	args := []any{}
	if s := strings.TrimSpace(search); s != "" {
		where = ` WHERE LOWER(nome) LIKE ? OR cpf LIKE ?`
		args = append(args, "%"+strings.ToLower(s)+"%", "%"+s+"%")
	}

	var total int
	if err := intdb.Get(ctx, q, &total, `SELECT COUNT(*) FROM clientes`+where, args...); err != nil {
		return nil, 0, err
	}

	out := []models.Client{}
	err = intdb.Select(ctx, q, &out,
		`SELECT `+clientColumns+` FROM clientes`+where+` ORDER BY nome LIMIT ? OFFSET ?`,
		append(args, page.PageSize, page.Offset())...)
	return out, total, err
}

func (r ClientRepository) Create(ctx context.Context, in models.ClientInput) (int64, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return 0, err
	}
	return intdb.InsertReturningID(ctx, q, `
		INSERT INTO clientes (nome, cpf, telefone, email, data_nascimento, endereco, cidade, estado)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(in.Name), intdb.NullIfEmpty(in.CPF), in.Phone, intdb.NullIfEmpty(in.Email),
		in.BirthDate, intdb.NullIfEmpty(in.Address), intdb.NullIfEmpty(in.City), intdb.NullIfEmpty(in.State))
}

func (r ClientRepository) Update(ctx context.Context, id int64, in models.ClientInput) error {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return err
	}
	n, err := intdb.Exec(ctx, q, `
		UPDATE clientes
		SET nome = ?, cpf = ?, telefone = ?, email = ?, data_nascimento = ?, endereco = ?, cidade = ?, estado = ?
		WHERE id = ?`,
		strings.TrimSpace(in.Name), intdb.NullIfEmpty(in.CPF), in.Phone, intdb.NullIfEmpty(in.Email),
		in.BirthDate, intdb.NullIfEmpty(in.Address), intdb.NullIfEmpty(in.City), intdb.NullIfEmpty(in.State), id)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFoundError{Resource: "cliente"}
	}
	return nil
}

func (r ClientRepository) Delete(ctx context.Context, id int64) error {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return err
	}
	n, err := intdb.Exec(ctx, q, `DELETE FROM clientes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFoundError{Resource: "cliente"}
	}
	return nil
}

// ExistsCPF reports whether another client already has the CPF.
func (r ClientRepository) ExistsCPF(ctx context.Context, cpf string, exceptID int64) (bool, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return false, err
	}
	var n int
	err = intdb.Get(ctx, q, &n, `SELECT COUNT(*) FROM clientes WHERE cpf = ? AND id <> ?`, cpf, exceptID)
	return n > 0, err
}
