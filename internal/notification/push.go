package notification

import (
	"context"
	"fmt"
	"log"

	"firebase.google.com/go/v4/messaging"
)

// FCM allows at most 500 tokens per multicast
const fcmBatchSize = 500

// Pusher delivers push notifications and reports tokens FCM no longer knows.
type Pusher interface {
	Push(ctx context.Context, tokens []string, title, body string, data map[string]string) (stale []string, err error)
}

// FCMPusher sends through Firebase Cloud Messaging.
type FCMPusher struct {
	Client *messaging.Client
}

// NewFCMPusher returns nil when the messaging client is not initialized.
func NewFCMPusher(client *messaging.Client) Pusher {
	if client == nil {
		return nil
	}
	return &FCMPusher{Client: client}
}

func (f *FCMPusher) Push(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]string, error) {
	var stale []string
	failed := 0

	for i := 0; i < len(tokens); i += fcmBatchSize {
		end := i + fcmBatchSize
		if end > len(tokens) {
			end = len(tokens)
		}
		batch := tokens[i:end]

		resp, err := f.Client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens:       batch,
			Data:         data,
			Notification: &messaging.Notification{Title: title, Body: body},
			Android: &messaging.AndroidConfig{
				Priority: "high",
				Notification: &messaging.AndroidNotification{
					ChannelID:    "gather_notifications",
					DefaultSound: true,
				},
			},
			Webpush: &messaging.WebpushConfig{
				Notification: &messaging.WebpushNotification{
					Title: title,
					Body:  body,
					Icon:  "/icon-192x192.png",
				},
			},
		})
		if err != nil {
			log.Printf("❌ FCM multicast batch failed: %v", err)
			failed += len(batch)
			continue
		}

		for idx, r := range resp.Responses {
			if r.Success {
				continue
			}
			failed++
			if messaging.IsUnregistered(r.Error) || messaging.IsInvalidArgument(r.Error) {
				stale = append(stale, batch[idx])
			}
		}
		log.Printf("📲 FCM multicast: %d/%d delivered", resp.SuccessCount, len(batch))
	}

	if failed > 0 {
		return stale, fmt.Errorf("push failed for %d/%d tokens", failed, len(tokens))
	}
	return stale, nil
}
