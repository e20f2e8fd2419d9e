// Package notify delivers booking notifications through Firebase Cloud
// Messaging and keeps an inbox copy in the Realtime Database.
package notify

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"firebase.google.com/go/v4/messaging"

	"homeserve/internal/types"
)

// FCMNotifier resolves device tokens from RTDB /device_tokens/{type}/{id}
// and sends FCM messages. Admin notifications go to a topic.
type FCMNotifier struct {
	dbClient   *db.Client
	msgClient  *messaging.Client
	adminTopic string
}

func NewFCMNotifier(ctx context.Context, app *firebase.App, adminTopic string) (*FCMNotifier, error) {
	dbClient, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialising firebase RTDB client: %w", err)
	}
	msgClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialising firebase messaging client: %w", err)
	}
	return &FCMNotifier{dbClient: dbClient, msgClient: msgClient, adminTopic: adminTopic}, nil
}

// rtdbInboxEntry mirrors a notification stored under /notifications/{type}/{id}.
type rtdbInboxEntry struct {
	Type        string            `json:"type"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	ClickAction string            `json:"click_action,omitempty"`
	Read        bool              `json:"read"`
	CreatedAt   int64             `json:"created_at"`
}

func (n *FCMNotifier) Send(ctx context.Context, note Notification) error {
	msg := &messaging.Message{
		Data: withType(note.Metadata, note.Type),
		Notification: &messaging.Notification{
			Title: note.Title,
			Body:  note.Body,
		},
	}
	if note.ClickAction != "" {
		msg.Android = &messaging.AndroidConfig{
			Notification: &messaging.AndroidNotification{ClickAction: note.ClickAction},
		}
	}

	if note.RecipientType == RecipientAdmin {
		msg.Topic = n.adminTopic
	} else {
		if err := n.storeInbox(ctx, note); err != nil {
			log.Printf("[notify] inbox write for %s:%s failed: %v", note.RecipientType, note.RecipientID, err)
		}
		token, err := n.deviceToken(ctx, note.RecipientType, note.RecipientID)
		if err != nil {
			return err
		}
		msg.Token = token
	}

	messageID, err := n.msgClient.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("sending FCM %s to %s:%s: %w", note.Type, note.RecipientType, note.RecipientID, err)
	}
	log.Printf("[notify] %s sent to %s:%s, message_id=%s", note.Type, note.RecipientType, note.RecipientID, messageID)
	return nil
}

// SendBookingOffer sends a high-priority data message that expires with the offer.
func (n *FCMNotifier) SendBookingOffer(ctx context.Context, techID types.ID, o Offer) error {
	token, err := n.deviceToken(ctx, RecipientTechnician, techID)
	if err != nil {
		return err
	}
	ttl := time.Until(o.ExpiresAt)
	if ttl < 0 {
		ttl = 0
	}
	msg := &messaging.Message{
		Token: token,
		Data: map[string]string{
			"type":         TypeBookingOffer,
			"booking_id":   string(o.BookingID),
			"service_name": o.ServiceName,
			"earnings":     strconv.FormatInt(o.Earnings, 10),
			"currency":     o.Currency,
			"distance_km":  strconv.FormatFloat(o.DistanceKm, 'f', 2, 64),
			"address":      o.Address,
			"expires_at":   o.ExpiresAt.UTC().Format(time.RFC3339),
		},
		Notification: &messaging.Notification{
			Title: "New job request",
			Body:  fmt.Sprintf("%s nearby, accept before the offer expires", o.ServiceName),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			TTL:      &ttl,
		},
	}

	messageID, err := n.msgClient.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("sending FCM offer to technician %s: %w", techID, err)
	}
	log.Printf("[notify] offer for booking %s sent to tech:%s, message_id=%s", o.BookingID, techID, messageID)
	return nil
}

func (n *FCMNotifier) deviceToken(ctx context.Context, rt RecipientType, id types.ID) (string, error) {
	var token string
	ref := n.dbClient.NewRef(fmt.Sprintf("device_tokens/%s/%s", rt, id))
	if err := ref.Get(ctx, &token); err != nil {
		return "", fmt.Errorf("reading device token: %w", err)
	}
	if token == "" {
		return "", fmt.Errorf("%w for %s:%s", ErrNoDeviceToken, rt, id)
	}
	return token, nil
}

func (n *FCMNotifier) storeInbox(ctx context.Context, note Notification) error {
	ref := n.dbClient.NewRef(fmt.Sprintf("notifications/%s/%s", note.RecipientType, note.RecipientID))
	_, err := ref.Push(ctx, rtdbInboxEntry{
		Type:        note.Type,
		Title:       note.Title,
		Body:        note.Body,
		Metadata:    note.Metadata,
		ClickAction: note.ClickAction,
		CreatedAt:   time.Now().UnixMilli(),
	})
	return err
}

func withType(meta map[string]string, typ string) map[string]string {
	out := make(map[string]string, len(meta)+1)
	for k, v := range meta {
		out[k] = v
	}
	out["type"] = typ
	return out
}
