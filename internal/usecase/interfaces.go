package usecase

import (
	"context"
	"io"

	"github.com/xavierca1/quote-payments/internal/infra/integration/stripe"
	"github.com/xavierca1/quote-payments/internal/infra/mail"
)

type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, input stripe.CreateIntentInput) (*stripe.IntentOutput, error)
	RetrievePaymentIntent(ctx context.Context, id string) (*stripe.IntentOutput, error)
	ParseWebhookEvent(payload []byte, signature string) (*stripe.PaymentEvent, error)
}

// Notifier sends one transactional email. Staff kinds ignore the recipient
// and go to the configured staff addresses.
type Notifier interface {
	Send(ctx context.Context, kind mail.Kind, recipient string, data mail.TemplateData) (string, error)
}

// EventTracker never blocks the caller and never reports failures to it.
type EventTracker interface {
	Track(name, distinctID string, props map[string]any)
}

type DocumentStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}
