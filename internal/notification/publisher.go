package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// Publisher hands domain activities to the notification pipeline.
type Publisher interface {
	Publish(ctx context.Context, a Activity) error
}

// NewPublisher writes to Kafka when a writer is configured and falls back to
// handling the activity in-process otherwise.
func NewPublisher(w *kafka.Writer, svc *Service) Publisher {
	if w != nil {
		return &KafkaPublisher{Writer: w}
	}
	return &DirectPublisher{Service: svc}
}

// KafkaPublisher keys messages by event id so one event's activities stay ordered.
type KafkaPublisher struct {
	Writer *kafka.Writer
}

func (p *KafkaPublisher) Publish(ctx context.Context, a Activity) error {
	if a.OccurredAt.IsZero() {
		a.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode activity: %w", err)
	}
	err = p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(a.EventID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(a.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", a.Type, err)
	}
	return nil
}

// DirectPublisher runs the handler in a goroutine detached from the request.
type DirectPublisher struct {
	Service *Service
}

func (p *DirectPublisher) Publish(ctx context.Context, a Activity) error {
	if p.Service == nil {
		return nil
	}
	if a.OccurredAt.IsZero() {
		a.OccurredAt = time.Now().UTC()
	}
	go func(ctx context.Context) {
		if err := p.Service.HandleActivity(ctx, a); err != nil {
			log.Printf("❌ handle %s for event %s: %v", a.Type, a.EventID, err)
		}
	}(context.WithoutCancel(ctx))
	return nil
}
