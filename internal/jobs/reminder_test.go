package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"caravanas/internal/services"
)

type fakeReminders struct {
	results []services.SendResult
	err     error
	asOf    time.Time
	days    int
}

func (f *fakeReminders) SendReminders(_ context.Context, asOf time.Time, daysAhead int) ([]services.SendResult, error) {
	f.asOf, f.days = asOf, daysAhead
	return f.results, f.err
}

func TestReminderJobRunOnce(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)
	fake := &fakeReminders{results: []services.SendResult{{OK: true}, {OK: false, Error: "telefone inválido"}, {OK: true}}}
	job := NewReminderJob(fake, 0, 3)
	job.Now = func() time.Time { return fixed }

	sent, failed := job.RunOnce(context.Background())
	if sent != 2 || failed != 1 {
		t.Fatalf("got sent=%d failed=%d", sent, failed)
	}
	if !fake.asOf.Equal(fixed) || fake.days != 3 {
		t.Fatalf("unexpected call asOf=%v days=%d", fake.asOf, fake.days)
	}
	if job.Interval != 24*time.Hour {
		t.Fatalf("default interval not applied: %s", job.Interval)
	}
}

func TestReminderJobRunOnceError(t *testing.T) {
	job := NewReminderJob(&fakeReminders{err: errors.New("whatsapp não configurado")}, time.Hour, 1)
	if sent, failed := job.RunOnce(context.Background()); sent != 0 || failed != 0 {
		t.Fatalf("got sent=%d failed=%d", sent, failed)
	}
}
