package config

import (
	"log"

	"github.com/IBM/sarama"
)

// ConnectKafka creates a sync producer, or nil when kafka is disabled.
func ConnectKafka(cfg KafkaConfig) sarama.SyncProducer {
	if !cfg.Enabled {
		log.Println("kafka desabilitado: eventos ficam apenas na tabela outbox")
		return nil
	}

	kc := sarama.NewConfig()
	kc.Producer.RequiredAcks = sarama.WaitForAll
	kc.Producer.Retry.Max = 3
	kc.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, kc)
	if err != nil {
		log.Printf("falha ao criar produtor kafka: %v (eventos ficam pendentes)", err)
		return nil
	}

	log.Printf("produtor kafka conectado: %v", cfg.Brokers)
	return producer
}
