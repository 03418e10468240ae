package models

import "time"

const (
	OutboxPending = "pending"
	OutboxSent    = "sent"
	OutboxFailed  = "failed"
)

// OutboxMessage mirrors outbox_eventos.
type OutboxMessage struct {
	ID         int64     `db:"id"`
	MessageKey string    `db:"message_key"`
	Topic      string    `db:"topic"`
	Payload    []byte    `db:"payload"`
	Status     string    `db:"status"`
	RetryCount int       `db:"retry_count"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}
