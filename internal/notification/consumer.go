package notification

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads activities from Kafka and hands them to the service.
type Consumer struct {
	Reader  messageReader
	Service *Service
}

func NewConsumer(r *kafka.Reader, svc *Service) *Consumer {
	return &Consumer{Reader: r, Service: svc}
}

// Run blocks until ctx is cancelled. Undecodable messages are committed and
// skipped; handler failures are logged and committed so one bad event never
// stalls the partition.
func (c *Consumer) Run(ctx context.Context) error {
	defer func() {
		if err := c.Reader.Close(); err != nil {
			log.Printf("⚠️ kafka reader close: %v", err)
		}
	}()

	log.Println("🎧 notification consumer started")
	for {
		msg, err := c.Reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				log.Println("🛑 notification consumer stopped")
				return nil
			}
			return err
		}

		var a Activity
		if err := json.Unmarshal(msg.Value, &a); err != nil {
			log.Printf("⚠️ skipping malformed activity at offset %d: %v", msg.Offset, err)
		} else if err := c.Service.HandleActivity(ctx, a); err != nil {
			log.Printf("❌ handle %s for event %s: %v", a.Type, a.EventID, err)
		}

		if err := c.Reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			log.Printf("⚠️ commit offset %d: %v", msg.Offset, err)
		}
	}
}
