package jobs

import (
	"context"
	"log"
	"time"

	"caravanas/internal/domain/models"
	"caravanas/internal/events"
	"caravanas/internal/repositories"
)

// OutboxSender publishes pending outbox_eventos rows.
type OutboxSender struct {
	Outbox     repositories.OutboxRepository
	Publisher  events.Publisher
	Interval   time.Duration
	BatchSize  int
	MaxRetries int

	stopCh chan struct{}
}

func NewOutboxSender(outbox repositories.OutboxRepository, pub events.Publisher, interval time.Duration, maxRetries int) *OutboxSender {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &OutboxSender{
		Outbox:     outbox,
		Publisher:  pub,
		Interval:   interval,
		BatchSize:  100,
		MaxRetries: maxRetries,
		stopCh:     make(chan struct{}),
	}
}

func (s *OutboxSender) Start(ctx context.Context) {
	log.Println("[OutboxSender] iniciado")

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[OutboxSender] contexto encerrado, saindo")
			return
		case <-s.stopCh:
			log.Println("[OutboxSender] parado")
			return
		case <-ticker.C:
			s.ProcessPending(ctx)
		}
	}
}

func (s *OutboxSender) Stop() {
	close(s.stopCh)
}

// ProcessPending sends one batch and returns how many rows were published.
func (s *OutboxSender) ProcessPending(ctx context.Context) int {
	messages, err := s.Outbox.FetchPending(ctx, s.BatchSize)
	if err != nil {
		log.Printf("[OutboxSender] falha ao buscar mensagens: %v", err)
		return 0
	}
	sent := 0
	for _, msg := range messages {
		if s.send(ctx, msg) {
			sent++
		}
	}
	return sent
}

func (s *OutboxSender) send(ctx context.Context, msg models.OutboxMessage) bool {
	err := s.Publisher.Publish(msg.Topic, msg.MessageKey, msg.Payload)
	if err == nil {
		if err := s.Outbox.MarkSent(ctx, msg.ID); err != nil {
			log.Printf("[OutboxSender] falha ao marcar enviada: id=%d err=%v", msg.ID, err)
		}
		return true
	}

	log.Printf("[OutboxSender] falha ao publicar: id=%d topic=%s err=%v", msg.ID, msg.Topic, err)
	if err := s.Outbox.RecordFailure(ctx, msg, s.MaxRetries); err != nil {
		log.Printf("[OutboxSender] falha ao registrar tentativa: id=%d err=%v", msg.ID, err)
	}
	if msg.RetryCount+1 >= s.MaxRetries {
		log.Printf("[OutboxSender] limite de tentativas atingido, marcada como failed: id=%d", msg.ID)
	}
	return false
}
