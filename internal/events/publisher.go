package events

import (
	"errors"

	"github.com/IBM/sarama"
)

var ErrNoProducer = errors.New("produtor kafka indisponível")

// Publisher sends one message to a topic.
type Publisher interface {
	Publish(topic, key string, value []byte) error
}

// KafkaPublisher wraps a sarama sync producer.
type KafkaPublisher struct {
	Producer sarama.SyncProducer
}

func (p KafkaPublisher) Publish(topic, key string, value []byte) error {
	if p.Producer == nil {
		return ErrNoProducer
	}
	_, _, err := p.Producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	})
	return err
}
