package utils

import (
	"log"
	"time"

	"github.com/gather-app/gather-backend/config"
	"github.com/segmentio/kafka-go"
)

var KafkaWriter *kafka.Writer

// InitializeKafka prepares the shared writer for the domain event topic.
// Without KAFKA_BROKERS the writer stays nil and events are handled in-process.
func InitializeKafka(cfg *config.Config) {
	if len(cfg.KafkaBrokers) == 0 {
		log.Println("ℹ️ KAFKA_BROKERS not set, domain events handled in-process")
		return
	}

	KafkaWriter = &kafka.Writer{
		Addr:                   kafka.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	log.Printf("✅ Kafka writer ready for topic %s", cfg.KafkaTopic)
}

// NewKafkaReader returns a consumer-group reader on the configured topic.
func NewKafkaReader(cfg *config.Config) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.KafkaGroupID,
		Topic:    cfg.KafkaTopic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	})
}

// CloseKafka flushes the writer on shutdown.
func CloseKafka() {
	if KafkaWriter != nil {
		if err := KafkaWriter.Close(); err != nil {
			log.Printf("⚠️ Kafka writer close: %v", err)
		}
	}
}
