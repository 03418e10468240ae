package repositories

import (
	"context"
	"time"

	intdb "caravanas/internal/db"
	"caravanas/internal/domain"
	"caravanas/internal/domain/models"

	"github.com/jmoiron/sqlx"
)

const tripColumns = `id, adversario, data_jogo, COALESCE(local_jogo,'') AS local_jogo,
	COALESCE(tipo,'') AS tipo, COALESCE(valor_padrao,0) AS valor_padrao,
	COALESCE(status,'') AS status, created_at`

type TripRepository struct {
	DB *sqlx.DB
	Tx *sqlx.Tx
}

func (r TripRepository) WithTx(tx *sqlx.Tx) TripRepository {
	r.Tx = tx
	return r
}

func (r TripRepository) GetByID(ctx context.Context, id int64) (models.Trip, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return models.Trip{}, err
	}
	var t models.Trip
	err = intdb.Get(ctx, q, &t, `SELECT `+tripColumns+` FROM viagens WHERE id = ?`, id)
	if intdb.IsNoRows(err) {
		return models.Trip{}, domain.NotFoundError{Resource: "viagem"}
	}
	return t, err
}

// ListByMatchDate returns trips whose data_jogo falls in [start, end]; zero
// bounds are open. The end bound covers the whole calendar day.
func (r TripRepository) ListByMatchDate(ctx context.Context, start, end time.Time) ([]models.Trip, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + tripColumns + ` FROM viagens WHERE 1=1`
	args := []any{}
	if !start.IsZero() {
		query += ` AND data_jogo >= ?`
		args = append(args, start)
	}
	if !end.IsZero() {
		query += ` AND data_jogo < ?`
		args = append(args, end.AddDate(0, 0, 1))
	}
	out := []models.Trip{}
	err = intdb.Select(ctx, q, &out, query+` ORDER BY data_jogo`, args...)
	return out, err
}

func (r TripRepository) Create(ctx context.Context, in models.TripInput) (int64, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return 0, err
	}
	return intdb.InsertReturningID(ctx, q, `
		INSERT INTO viagens (adversario, data_jogo, local_jogo, tipo, valor_padrao, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		in.Opponent, in.MatchDate, in.Venue, in.VenueType, in.DefaultPrice, in.Status)
}

func (r TripRepository) Update(ctx context.Context, id int64, in models.TripInput) error {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return err
	}
	n, err := intdb.Exec(ctx, q, `
		UPDATE viagens
		SET adversario = ?, data_jogo = ?, local_jogo = ?, tipo = ?, valor_padrao = ?, status = ?
		WHERE id = ?`,
		in.Opponent, in.MatchDate, in.Venue, in.VenueType, in.DefaultPrice, in.Status, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFoundError{Resource: "viagem"}
	}
	return nil
}

func (r TripRepository) Delete(ctx context.Context, id int64) error {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return err
	}
	n, err := intdb.Exec(ctx, q, `DELETE FROM viagens WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFoundError{Resource: "viagem"}
	}
	return nil
}
