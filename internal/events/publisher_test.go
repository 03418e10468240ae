package events

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
)

func TestKafkaPublisherPublish(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"tipo":"parcela.paga"}` {
			return errors.New("unexpected payload " + string(val))
		}
		return nil
	})
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	pub := KafkaPublisher{Producer: producer}
	if err := pub.Publish("caravanas.eventos", "k1", []byte(`{"tipo":"parcela.paga"}`)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := pub.Publish("caravanas.eventos", "k2", []byte(`{}`)); !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("expected ErrOutOfBrokers, got %v", err)
	}
	if err := producer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestKafkaPublisherWithoutProducer(t *testing.T) {
	if err := (KafkaPublisher{}).Publish("t", "k", nil); !errors.Is(err, ErrNoProducer) {
		t.Fatalf("expected ErrNoProducer, got %v", err)
	}
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	if err := r.Record(context.Background(), nil, TypeWalletMovement, nil); err != nil {
		t.Fatalf("nil recorder: %v", err)
	}
	if err := (&Recorder{}).Record(context.Background(), nil, TypeWalletMovement, nil); err != nil {
		t.Fatalf("recorder without topic: %v", err)
	}
}
