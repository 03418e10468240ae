package repositories

import (
	"context"

	intdb "caravanas/internal/db"
	"caravanas/internal/domain"
	"caravanas/internal/domain/models"

	"github.com/jmoiron/sqlx"
)

const busColumns = `id, viagem_id, COALESCE(tipo_onibus,'') AS tipo_onibus, COALESCE(empresa,'') AS empresa,
	COALESCE(numero_identificacao,'') AS numero_identificacao,
	COALESCE(capacidade_onibus,0) AS capacidade_onibus, COALESCE(lugares_extras,0) AS lugares_extras`

type BusRepository struct {
	DB *sqlx.DB
	Tx *sqlx.Tx
}

func (r BusRepository) WithTx(tx *sqlx.Tx) BusRepository {
	r.Tx = tx
	return r
}

func (r BusRepository) GetByID(ctx context.Context, id int64) (models.Bus, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return models.Bus{}, err
	}
	var b models.Bus
	err = intdb.Get(ctx, q, &b, `SELECT `+busColumns+` FROM viagem_onibus WHERE id = ?`, id)
	if intdb.IsNoRows(err) {
		return models.Bus{}, domain.NotFoundError{Resource: "ônibus"}
	}
	return b, err
}

func (r BusRepository) ListByTrip(ctx context.Context, tripID int64) ([]models.Bus, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return nil, err
	}
	out := []models.Bus{}
	err = intdb.Select(ctx, q, &out, `SELECT `+busColumns+` FROM viagem_onibus WHERE viagem_id = ? ORDER BY id`, tripID)
	return out, err
}

// ListOccupancy returns every bus of a trip with its passenger count.
func (r BusRepository) ListOccupancy(ctx context.Context, tripID int64) ([]models.BusOccupancy, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return nil, err
	}
	out := []models.BusOccupancy{}
	err = intdb.Select(ctx, q, &out, `
		SELECT o.id, o.viagem_id, COALESCE(o.tipo_onibus,'') AS tipo_onibus, COALESCE(o.empresa,'') AS empresa,
		       COALESCE(o.numero_identificacao,'') AS numero_identificacao,
		       COALESCE(o.capacidade_onibus,0) AS capacidade_onibus, COALESCE(o.lugares_extras,0) AS lugares_extras,
		       (SELECT COUNT(*) FROM viagem_passageiros p WHERE p.onibus_id = o.id) AS ocupacao
		FROM viagem_onibus o
		WHERE o.viagem_id = ?
		ORDER BY o.id`, tripID)
	for i := range out {
		out[i].Free = out[i].Capacity() - out[i].Occupancy
		if out[i].Free < 0 {
			out[i].Free = 0
		}
		out[i].Full = out[i].Occupancy >= out[i].Capacity()
	}
	return out, err
}

// Occupancy counts passengers whose onibus_id is busID.
func (r BusRepository) Occupancy(ctx context.Context, busID int64) (int, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return 0, err
	}
	var n int
	err = intdb.Get(ctx, q, &n, `SELECT COUNT(*) FROM viagem_passageiros WHERE onibus_id = ?`, busID)
	return n, err
}

func (r BusRepository) Create(ctx context.Context, tripID int64, in models.BusInput) (int64, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return 0, err
	}
	return intdb.InsertReturningID(ctx, q, `
		INSERT INTO viagem_onibus (viagem_id, tipo_onibus, empresa, numero_identificacao, capacidade_onibus, lugares_extras)
		VALUES (?, ?, ?, ?, ?, ?)`,
		tripID, in.Type, in.Company, in.Identifier, in.BaseSeats, in.ExtraSeats)
}

func (r BusRepository) Update(ctx context.Context, id int64, in models.BusInput) error {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return err
	}
	n, err := intdb.Exec(ctx, q, `
		UPDATE viagem_onibus
		SET tipo_onibus = ?, empresa = ?, numero_identificacao = ?, capacidade_onibus = ?, lugares_extras = ?
		WHERE id = ?`,
		in.Type, in.Company, in.Identifier, in.BaseSeats, in.ExtraSeats, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFoundError{Resource: "ônibus"}
	}
	return nil
}

// Delete removes the bus and unassigns its passengers.
func (r BusRepository) Delete(ctx context.Context, id int64) error {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return err
	}
	if _, err := intdb.Exec(ctx, q, `UPDATE viagem_passageiros SET onibus_id = NULL WHERE onibus_id = ?`, id); err != nil {
		return err
	}
	n, err := intdb.Exec(ctx, q, `DELETE FROM viagem_onibus WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFoundError{Resource: "ônibus"}
	}
	return nil
}
