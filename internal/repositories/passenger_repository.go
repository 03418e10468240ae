package repositories

import (
	"context"
	"strings"

	intdb "caravanas/internal/db"
	"caravanas/internal/domain"
	"caravanas/internal/domain/models"

	"github.com/jmoiron/sqlx"
)

const passengerSelect = `
	SELECT p.id, p.viagem_id, p.cliente_id,
	       COALESCE(c.nome,'') AS cliente_nome, COALESCE(c.telefone,'') AS cliente_telefone,
	       COALESCE(p.valor,0) AS valor, COALESCE(p.desconto,0) AS desconto,
	       COALESCE(p.status_pagamento,'') AS status_pagamento, p.onibus_id,
	       COALESCE(p.setor_maracana,'') AS setor_maracana, COALESCE(p.cidade_embarque,'') AS cidade_embarque,
	       p.grupo_nome, p.grupo_cor, COALESCE(p.observacoes,'') AS observacoes, p.created_at
	FROM viagem_passageiros p
	LEFT JOIN clientes c ON c.id = p.cliente_id`

// groupMatch compares the (grupo_nome, grupo_cor) tag after trimming.
const groupMatch = ` TRIM(p.grupo_nome) = ? AND COALESCE(TRIM(p.grupo_cor),'') = ?`

type PassengerRepository struct {
	DB *sqlx.DB
	Tx *sqlx.Tx
}

func (r PassengerRepository) WithTx(tx *sqlx.Tx) PassengerRepository {
	r.Tx = tx
	return r
}

func (r PassengerRepository) GetByID(ctx context.Context, id int64) (models.TripPassenger, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return models.TripPassenger{}, err
	}
	var p models.TripPassenger
	err = intdb.Get(ctx, q, &p, passengerSelect+` WHERE p.id = ?`, id)
	if intdb.IsNoRows(err) {
		return models.TripPassenger{}, domain.NotFoundError{Resource: "passageiro"}
	}
	return p, err
}

func (r PassengerRepository) ListByTrip(ctx context.Context, tripID int64) ([]models.TripPassenger, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return nil, err
	}
	out := []models.TripPassenger{}
	err = intdb.Select(ctx, q, &out, passengerSelect+` WHERE p.viagem_id = ? ORDER BY c.nome, p.id`, tripID)
	return out, err
}

// ListGroupMembers returns every passenger of the trip tagged with (name, color).
func (r PassengerRepository) ListGroupMembers(ctx context.Context, tripID int64, name, color string) ([]models.TripPassenger, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return nil, err
	}
	out := []models.TripPassenger{}
	err = intdb.Select(ctx, q, &out, passengerSelect+` WHERE p.viagem_id = ? AND`+groupMatch+` ORDER BY p.id`,
		tripID, strings.TrimSpace(name), strings.TrimSpace(color))
	return out, err
}

func (r PassengerRepository) Create(ctx context.Context, p models.TripPassenger) (int64, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return 0, err
	}
	status := p.PaymentStatus
	if status == "" {
		status = models.PaymentStatusPending
	}
	return intdb.InsertReturningID(ctx, q, `
		INSERT INTO viagem_passageiros
			(viagem_id, cliente_id, valor, desconto, status_pagamento, onibus_id, setor_maracana,
			 cidade_embarque, grupo_nome, grupo_cor, observacoes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.TripID, p.ClientID, p.Value, p.Discount, status, intdb.NullInt64(p.BusID), p.Sector,
		p.BoardingCity, p.GroupName, p.GroupColor, p.Notes)
}

// Update applies only the non-nil fields of in.
func (r PassengerRepository) Update(ctx context.Context, id int64, in models.PassengerUpdate) error {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return err
	}
	sets := []string{}
	args := []any{}
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if in.Value != nil {
		add("valor", *in.Value)
	}
	if in.Discount != nil {
		add("desconto", *in.Discount)
	}
	if in.Sector != nil {
		add("setor_maracana", strings.TrimSpace(*in.Sector))
	}
	if in.BoardingCity != nil {
		add("cidade_embarque", strings.TrimSpace(*in.BoardingCity))
	}
	if in.GroupName != nil {
		add("grupo_nome", intdb.NullIfEmpty(strings.TrimSpace(*in.GroupName)))
	}
	if in.GroupColor != nil {
		add("grupo_cor", intdb.NullIfEmpty(strings.TrimSpace(*in.GroupColor)))
	}
	if in.Notes != nil {
		add("observacoes", *in.Notes)
	}
	if len(sets) == 0 {
		return nil
	}
	n, err := intdb.Exec(ctx, q, `UPDATE viagem_passageiros SET `+strings.Join(sets, ", ")+` WHERE id = ?`, append(args, id)...)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFoundError{Resource: "passageiro"}
	}
	return nil
}

// SetBus assigns (or clears, when busID is nil) the passenger's bus.
func (r PassengerRepository) SetBus(ctx context.Context, id int64, busID *int64) error {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return err
	}
	n, err := intdb.Exec(ctx, q, `UPDATE viagem_passageiros SET onibus_id = ? WHERE id = ?`, intdb.NullInt64(busID), id)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFoundError{Resource: "passageiro"}
	}
	return nil
}

// MoveToBus reassigns several passengers at once and returns rows affected.
func (r PassengerRepository) MoveToBus(ctx context.Context, ids []int64, busID int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return 0, err
	}
	query, args, err := sqlx.In(`UPDATE viagem_passageiros SET onibus_id = ? WHERE id IN (?)`, busID, ids)
	if err != nil {
		return 0, err
	}
	return intdb.Exec(ctx, q, query, args...)
}

func (r PassengerRepository) SetGroup(ctx context.Context, id int64, name, color string) error {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return err
	}
	_, err = intdb.Exec(ctx, q, `UPDATE viagem_passageiros SET grupo_nome = ?, grupo_cor = ? WHERE id = ?`,
		intdb.NullIfEmpty(strings.TrimSpace(name)), intdb.NullIfEmpty(strings.TrimSpace(color)), id)
	return err
}

func (r PassengerRepository) SetPaymentStatus(ctx context.Context, id int64, status string) error {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return err
	}
	_, err = intdb.Exec(ctx, q, `UPDATE viagem_passageiros SET status_pagamento = ? WHERE id = ?`, status, id)
	return err
}

// Delete removes the passenger with its installments and history rows.
func (r PassengerRepository) Delete(ctx context.Context, id int64) error {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return err
	}
	if _, err := intdb.Exec(ctx, q, `DELETE FROM viagem_passageiros_parcelas WHERE viagem_passageiro_id = ?`, id); err != nil {
		return err
	}
	if _, err := intdb.Exec(ctx, q, `DELETE FROM historico_pagamentos_categorizado WHERE viagem_passageiro_id = ?`, id); err != nil {
		return err
	}
	n, err := intdb.Exec(ctx, q, `DELETE FROM viagem_passageiros WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFoundError{Resource: "passageiro"}
	}
	return nil
}

type sectorCount struct {
	Sector string `db:"setor"`
	Count  int    `db:"total"`
}

// CountBySector groups the trip's passengers by trimmed setor_maracana.
func (r PassengerRepository) CountBySector(ctx context.Context, tripID int64) (map[string]int, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return nil, err
	}
	rows := []sectorCount{}
	err = intdb.Select(ctx, q, &rows, `
		SELECT TRIM(COALESCE(setor_maracana,'')) AS setor, COUNT(*) AS total
		FROM viagem_passageiros
		WHERE viagem_id = ?
		GROUP BY TRIM(COALESCE(setor_maracana,''))`, tripID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Sector] += row.Count
	}
	return out, nil
}
