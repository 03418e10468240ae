package jobs

import (
	"context"
	"log"
	"time"

	"caravanas/internal/services"
)

// Reminders is the part of WhatsAppService the job needs.
type Reminders interface {
	SendReminders(ctx context.Context, asOf time.Time, daysAhead int) ([]services.SendResult, error)
}

// ReminderJob periodically messages clients with installments coming due.
type ReminderJob struct {
	Sender    Reminders
	Interval  time.Duration
	DaysAhead int
	Now       func() time.Time

	stopCh chan struct{}
}

func NewReminderJob(sender Reminders, interval time.Duration, daysAhead int) *ReminderJob {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &ReminderJob{
		Sender:    sender,
		Interval:  interval,
		DaysAhead: daysAhead,
		Now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

func (j *ReminderJob) Start(ctx context.Context) {
	log.Printf("[ReminderJob] iniciado, intervalo=%s dias=%d", j.Interval, j.DaysAhead)

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[ReminderJob] contexto encerrado, saindo")
			return
		case <-j.stopCh:
			log.Println("[ReminderJob] parado")
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

func (j *ReminderJob) Stop() {
	close(j.stopCh)
}

// RunOnce sends the reminders due right now.
func (j *ReminderJob) RunOnce(ctx context.Context) (sent, failed int) {
	results, err := j.Sender.SendReminders(ctx, j.Now(), j.DaysAhead)
	if err != nil {
		log.Printf("[ReminderJob] falha ao enviar lembretes: %v", err)
		return 0, 0
	}
	for _, r := range results {
		if r.OK {
			sent++
		} else {
			failed++
		}
	}
	if len(results) > 0 {
		log.Printf("[ReminderJob] lembretes enviados=%d falhas=%d", sent, failed)
	}
	return sent, failed
}
