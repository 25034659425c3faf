package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrRealtimeDisabled = errors.New("realtime notifications are not configured")

// UserChannel is the Redis pub/sub channel carrying one user's notifications.
func UserChannel(userID string) string {
	return "notifications:user:" + userID
}

type Service struct {
	Repo   *Repository
	Redis  *redis.Client
	Mailer Sender
	Push   Pusher
}

func NewService(repo *Repository, rdb *redis.Client, mailer Sender, push Pusher) *Service {
	return &Service{Repo: repo, Redis: rdb, Mailer: mailer, Push: push}
}

// ===========================
// 📨 Turn a domain activity into notifications
func (s *Service) HandleActivity(ctx context.Context, a Activity) error {
	ev, err := s.Repo.eventSummary(ctx, a.EventID)
	if errors.Is(err, ErrNotFound) {
		log.Printf("ℹ️ %s for deleted event %s dropped", a.Type, a.EventID)
		return nil
	}
	if err != nil {
		return err
	}

	notices, err := s.compose(ctx, a, ev)
	if err != nil {
		return err
	}
	return s.deliver(ctx, ev.ID, notices)
}

func (s *Service) compose(ctx context.Context, a Activity, ev *eventSummary) ([]notice, error) {
	var (
		to       []string
		title    string
		message  string
		category = CategoryMembership
	)

	switch a.Type {
	case ActivityMemberJoined:
		to = []string{ev.HostID}
		name := s.Repo.displayName(ctx, a.UserID)
		if a.Status == "approved" {
			title = "New member"
			message = fmt.Sprintf("%s joined %s via invite link", name, ev.Title)
		} else {
			title = "New join request"
			message = fmt.Sprintf("%s asked to join %s", name, ev.Title)
		}

	case ActivityMemberStatusChanged:
		if a.UserID == a.ActorID {
			// self-withdrawal goes to the host
			to = []string{ev.HostID}
			title = "Member left"
			message = fmt.Sprintf("%s left %s", s.Repo.displayName(ctx, a.UserID), ev.Title)
			break
		}
		to = []string{a.UserID}
		switch a.Status {
		case "approved":
			title = "Request approved"
			message = fmt.Sprintf("You're in! Your request to join %s was approved", ev.Title)
		case "rejected":
			title = "Request declined"
			message = fmt.Sprintf("Your request to join %s was declined", ev.Title)
		default:
			title = "Removed from event"
			message = fmt.Sprintf("You are no longer a member of %s", ev.Title)
		}

	case ActivityAnnouncementCreated:
		ids, err := s.Repo.approvedMemberIDs(ctx, ev.ID)
		if err != nil {
			return nil, fmt.Errorf("list approved members: %w", err)
		}
		for _, id := range ids {
			if id != a.ActorID {
				to = append(to, id)
			}
		}
		category = CategoryAnnouncement
		title = "New announcement in " + ev.Title
		message = a.Title

	default:
		log.Printf("⚠️ unknown activity type %q ignored", a.Type)
		return nil, nil
	}

	people, err := s.Repo.recipients(ctx, to)
	if err != nil {
		return nil, fmt.Errorf("load recipients: %w", err)
	}
	byID := make(map[string]recipient, len(people))
	for _, p := range people {
		byID[p.ID] = p
	}

	notices := make([]notice, 0, len(to))
	for _, id := range to {
		r, ok := byID[id]
		if !ok {
			r = recipient{ID: id}
		}
		notices = append(notices, notice{To: r, Title: title, Message: message, Category: category})
	}
	return notices, nil
}

func (s *Service) deliver(ctx context.Context, eventID string, notices []notice) error {
	if len(notices) == 0 {
		return nil
	}

	var firstErr error
	userIDs := make([]string, 0, len(notices))
	for _, n := range notices {
		item := &InAppNotification{
			UserID:    n.To.ID,
			EventID:   &eventID,
			Title:     n.Title,
			Message:   n.Message,
			Category:  n.Category,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.Repo.CreateInApp(ctx, item); err != nil {
			log.Printf("❌ in-app notification for %s: %v", n.To.ID, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		userIDs = append(userIDs, n.To.ID)
		s.publish(ctx, item)

		if s.Mailer != nil && n.To.Email != "" {
			if err := s.Mailer.Send(n.To.Email, n.Title, n.Message); err != nil {
				log.Printf("⚠️ email to %s failed: %v", n.To.Email, err)
			}
		}
	}

	if s.Push != nil && len(userIDs) > 0 {
		s.push(ctx, userIDs, notices[0], eventID)
	}
	return firstErr
}

func (s *Service) publish(ctx context.Context, item *InAppNotification) {
	if s.Redis == nil {
		return
	}
	payload, err := json.Marshal(item)
	if err != nil {
		return
	}
	if err := s.Redis.Publish(ctx, UserChannel(item.UserID), payload).Err(); err != nil {
		log.Printf("⚠️ redis publish for %s: %v", item.UserID, err)
	}
}

// push sends one multicast; every notice of an activity shares title and message.
func (s *Service) push(ctx context.Context, userIDs []string, n notice, eventID string) {
	tokens, err := s.Repo.TokensForUsers(ctx, userIDs)
	if err != nil {
		log.Printf("⚠️ load device tokens: %v", err)
		return
	}
	if len(tokens) == 0 {
		return
	}
	stale, err := s.Push.Push(ctx, tokens, n.Title, n.Message, map[string]string{
		"event_id": eventID,
		"category": n.Category,
	})
	if err != nil {
		log.Printf("⚠️ push: %v", err)
	}
	if len(stale) > 0 {
		if err := s.Repo.DeleteTokens(ctx, stale); err != nil {
			log.Printf("⚠️ drop stale tokens: %v", err)
		}
	}
}

// ===========================
// 🔔 Self-service
func (s *Service) ListMine(ctx context.Context, userID string, unreadOnly bool, limit int) ([]InAppNotification, error) {
	return s.Repo.ListInAppByUser(ctx, userID, unreadOnly, limit)
}

func (s *Service) MarkRead(ctx context.Context, id uint, userID string) error {
	return s.Repo.MarkInAppAsRead(ctx, id, userID)
}

func (s *Service) RegisterDevice(ctx context.Context, userID string, req RegisterDeviceRequest) (*DeviceToken, error) {
	platform := req.Platform
	if platform == "" {
		platform = "web"
	}
	t := &DeviceToken{UserID: userID, Token: strings.TrimSpace(req.Token), Platform: platform}
	if err := s.Repo.SaveDeviceToken(ctx, t); err != nil {
		return nil, fmt.Errorf("save device token: %w", err)
	}
	return t, nil
}

func (s *Service) RemoveDevice(ctx context.Context, userID, token string) error {
	return s.Repo.RemoveDeviceToken(ctx, userID, strings.TrimSpace(token))
}

// Subscribe opens the user's Redis channel for the websocket feed.
func (s *Service) Subscribe(ctx context.Context, userID string) (*redis.PubSub, error) {
	if s.Redis == nil {
		return nil, ErrRealtimeDisabled
	}
	sub := s.Redis.Subscribe(ctx, UserChannel(userID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	return sub, nil
}
