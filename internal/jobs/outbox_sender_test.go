package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"caravanas/internal/domain/models"
	"caravanas/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

type fakePublisher struct {
	fail map[string]bool
	sent []string
}

func (p *fakePublisher) Publish(topic, key string, value []byte) error {
	if p.fail[key] {
		return errors.New("broker down")
	}
	p.sent = append(p.sent, key)
	return nil
}

var outboxCols = []string{"id", "message_key", "topic", "payload", "status", "retry_count", "created_at", "updated_at"}

func newOutbox(t *testing.T) (repositories.OutboxRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return repositories.OutboxRepository{DB: sqlx.NewDb(db, "sqlmock")}, mock
}

func TestOutboxSenderProcessPending(t *testing.T) {
	outbox, mock := newOutbox(t)
	now := time.Now()
	mock.ExpectQuery(`FROM outbox_eventos WHERE status = \?`).
		WithArgs(models.OutboxPending, 100).
		WillReturnRows(sqlmock.NewRows(outboxCols).
			AddRow(1, "k1", "caravanas.eventos", []byte(`{}`), models.OutboxPending, 0, now, now).
			AddRow(2, "k2", "caravanas.eventos", []byte(`{}`), models.OutboxPending, 0, now, now).
			AddRow(3, "k3", "caravanas.eventos", []byte(`{}`), models.OutboxPending, 4, now, now))
	mock.ExpectExec(`UPDATE outbox_eventos SET status = \?, updated_at = \? WHERE id = \?`).
		WithArgs(models.OutboxSent, sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`retry_count = retry_count \+ 1 WHERE id = \?`).
		WithArgs(models.OutboxPending, sqlmock.AnyArg(), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`retry_count = retry_count \+ 1 WHERE id = \?`).
		WithArgs(models.OutboxFailed, sqlmock.AnyArg(), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	pub := &fakePublisher{fail: map[string]bool{"k2": true, "k3": true}}
	sender := NewOutboxSender(outbox, pub, time.Second, 5)

	if got := sender.ProcessPending(context.Background()); got != 1 {
		t.Fatalf("expected 1 sent, got %d", got)
	}
	if len(pub.sent) != 1 || pub.sent[0] != "k1" {
		t.Fatalf("unexpected published keys %v", pub.sent)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOutboxSenderFetchFailure(t *testing.T) {
	outbox, mock := newOutbox(t)
	mock.ExpectQuery(`FROM outbox_eventos`).WillReturnError(errors.New("conn reset"))

	sender := NewOutboxSender(outbox, &fakePublisher{}, 0, 0)
	if got := sender.ProcessPending(context.Background()); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if sender.Interval != 2*time.Second || sender.MaxRetries != 5 {
		t.Fatalf("defaults not applied: %+v", sender)
	}
}

func TestOutboxSenderStop(t *testing.T) {
	outbox, _ := newOutbox(t)
	sender := NewOutboxSender(outbox, &fakePublisher{}, time.Hour, 1)
	done := make(chan struct{})
	go func() {
		sender.Start(context.Background())
		close(done)
	}()
	sender.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("sender did not stop")
	}
}
