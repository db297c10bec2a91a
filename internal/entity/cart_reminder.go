package entity

import (
	"context"
	"time"
)

// CartReminder records an abandoned-cart nudge sent for a checkout session.
type CartReminder struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	SessionID string    `json:"session_id"`
	MessageID string    `json:"message_id,omitempty"`
	SentAt    time.Time `json:"sent_at"`
}

type CartReminderRepositoryInterface interface {
	// Reserve claims the (email, session) slot unless a reminder was recorded inside window.
	Reserve(ctx context.Context, r *CartReminder, window time.Duration) (bool, error)
	Release(ctx context.Context, id string) error
	SetMessageID(ctx context.Context, id, messageID string) error
}
