package repositories

import (
	"context"
	"time"

	intdb "caravanas/internal/db"
	"caravanas/internal/domain/models"

	"github.com/jmoiron/sqlx"
)

type OutboxRepository struct {
	DB *sqlx.DB
	Tx *sqlx.Tx
}

func (r OutboxRepository) WithTx(tx *sqlx.Tx) OutboxRepository {
	r.Tx = tx
	return r
}

func (r OutboxRepository) Insert(ctx context.Context, m models.OutboxMessage) error {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return err
	}
	now := time.Now()
	_, err = intdb.Exec(ctx, q, `
		INSERT INTO outbox_eventos (message_key, topic, payload, status, retry_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)`,
		m.MessageKey, m.Topic, m.Payload, models.OutboxPending, now, now)
	return err
}

func (r OutboxRepository) FetchPending(ctx context.Context, limit int) ([]models.OutboxMessage, error) {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return nil, err
	}
	out := []models.OutboxMessage{}
	err = intdb.Select(ctx, q, &out, `
		SELECT id, message_key, topic, payload, status, retry_count, created_at, updated_at
		FROM outbox_eventos WHERE status = ? ORDER BY id LIMIT ?`, models.OutboxPending, limit)
	return out, err
}

func (r OutboxRepository) MarkSent(ctx context.Context, id int64) error {
	return r.setStatus(ctx, id, models.OutboxSent, false)
}

// RecordFailure bumps retry_count; the row becomes failed once maxRetries is reached.
func (r OutboxRepository) RecordFailure(ctx context.Context, m models.OutboxMessage, maxRetries int) error {
	if m.RetryCount+1 >= maxRetries {
		return r.setStatus(ctx, m.ID, models.OutboxFailed, true)
	}
	return r.setStatus(ctx, m.ID, models.OutboxPending, true)
}

func (r OutboxRepository) setStatus(ctx context.Context, id int64, status string, retry bool) error {
	q, err := queryer(r.DB, r.Tx)
	if err != nil {
		return err
	}
	query := `UPDATE outbox_eventos SET status = ?, updated_at = ?`
	if retry {
		query += `, retry_count = retry_count + 1`
	}
	_, err = intdb.Exec(ctx, q, query+` WHERE id = ?`, status, time.Now(), id)
	return err
}
