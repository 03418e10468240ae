// Package events records domain events in the outbox table and publishes
// them to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"caravanas/internal/domain/models"
	"caravanas/internal/repositories"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	TypeInstallmentPaid   = "parcela.paga"
	TypePassengerEnrolled = "passageiro.inscrito"
	TypePassengerSettled  = "passageiro.quitado"
	TypeWalletMovement    = "carteira.movimento"
	TypeWalletCancelled   = "carteira.cancelamento"
	TypeCreditLinked      = "credito.vinculado"
	TypeCreditRefunded    = "credito.reembolsado"
	TypeTicketPaid        = "ingresso.pagamento"
	TypeBusAssigned       = "onibus.atribuicao"
	TypeSectorPricesSaved = "setores.precos_salvos"
)

// Envelope is the JSON body written to the outbox.
type Envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"tipo"`
	OccurredAt time.Time `json:"ocorrido_em"`
	Data       any       `json:"dados"`
}

// Recorder writes events into outbox_eventos inside the caller's transaction.
// A nil Recorder, or one without a topic, records nothing.
type Recorder struct {
	Topic string
}

func (r *Recorder) Record(ctx context.Context, tx *sqlx.Tx, eventType string, data any) error {
	if r == nil || r.Topic == "" {
		return nil
	}
	env := Envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return repositories.OutboxRepository{}.WithTx(tx).Insert(ctx, models.OutboxMessage{
		MessageKey: env.ID,
		Topic:      r.Topic,
		Payload:    payload,
	})
}
