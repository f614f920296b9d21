package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"mindwave/internal/database"
	"mindwave/internal/models"
)

// PushService delivers Web Push notifications to subscribed clients.
// Subscriptions live in the local sqlite database. Endpoints that
// answer 404 or 410 are pruned on the spot.
type PushService struct {
	db         *database.DB
	publicKey  string
	privateKey string
	subscriber string
}

func NewPushService(db *database.DB, publicKey, privateKey, subscriber string) *PushService {
	if publicKey == "" || privateKey == "" {
		log.Println("⚠️  [PUSH] VAPID keys not set, push notifications disabled")
		return nil
	}
	return &PushService{
		db:         db,
		publicKey:  publicKey,
		privateKey: privateKey,
		subscriber: subscriber,
	}
}

// PublicKey returns the VAPID public key clients subscribe with.
func (s *PushService) PublicKey() string {
	if s == nil {
		return ""
	}
	return s.publicKey
}

// Subscribe registers or refreshes a client subscription. The endpoint
// is the natural key: resubscribing updates the existing row.
func (s *PushService) Subscribe(sub models.PushSubscription) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("push not configured")
	}
	if sub.Endpoint == "" || sub.P256DH == "" || sub.Auth == "" {
		return fmt.Errorf("incomplete subscription")
	}
	_, err := s.db.Exec(
		`INSERT INTO push_subscriptions (endpoint, p256dh, auth, user_agent)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(endpoint) DO UPDATE SET p256dh = excluded.p256dh, auth = excluded.auth, user_agent = excluded.user_agent`,
		sub.Endpoint, sub.P256DH, sub.Auth, sub.UserAgent,
	)
	return err
}

// Unsubscribe removes a subscription by endpoint.
func (s *PushService) Unsubscribe(endpoint string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("push not configured")
	}
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	return err
}

// Subscriptions returns all registered subscriptions.
func (s *PushService) Subscriptions() ([]models.PushSubscription, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("push not configured")
	}
	rows, err := s.db.Query(
		`SELECT id, endpoint, p256dh, auth, COALESCE(user_agent, ''), created_at FROM push_subscriptions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []models.PushSubscription
	for rows.Next() {
		var sub models.PushSubscription
		if err := rows.Scan(&sub.ID, &sub.Endpoint, &sub.P256DH, &sub.Auth, &sub.UserAgent, &sub.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// NotifyAll sends a notification to every subscriber. Failures log and
// continue; dead endpoints are removed. Returns the delivered count.
func (s *PushService) NotifyAll(ctx context.Context, title, body string) int {
	if s == nil {
		return 0
	}
	subs, err := s.Subscriptions()
	if err != nil {
		log.Printf("⚠️  [PUSH] Failed to load subscriptions: %v", err)
		return 0
	}

	payload, _ := json.Marshal(map[string]string{"title": title, "body": body})

	sent := 0
	for _, sub := range subs {
		if err := s.send(ctx, sub, payload); err != nil {
			log.Printf("⚠️  [PUSH] Delivery to subscription %d failed: %v", sub.ID, err)
			continue
		}
		sent++
	}
	if sent > 0 {
		log.Printf("🔔 [PUSH] Notified %d/%d subscribers: %s", sent, len(subs), title)
	}
	return sent
}

func (s *PushService) send(ctx context.Context, sub models.PushSubscription, payload []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             int((12 * time.Hour).Seconds()),
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		if err := s.Unsubscribe(sub.Endpoint); err == nil {
			log.Printf("🔔 [PUSH] Pruned dead subscription %d", sub.ID)
		}
		return fmt.Errorf("endpoint gone (HTTP %d)", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push endpoint returned HTTP %d", resp.StatusCode)
	}
	return nil
}
