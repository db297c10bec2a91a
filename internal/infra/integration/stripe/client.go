package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	stripeapi "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/xavierca1/quote-payments/internal/infra/http/middleware"
	"github.com/xavierca1/quote-payments/internal/logger"
)

type Client struct {
	api           *client.API
	hasKey        bool
	webhookSecret string
	breaker       *gobreaker.CircuitBreaker
}

// NewClient builds the adapter. backends may be nil to use the public API.
func NewClient(secretKey, webhookSecret string, backends *stripeapi.Backends) *Client {
	api := &client.API{}
	api.Init(secretKey, backends)

	return &Client{
		api:           api,
		hasKey:        secretKey != "",
		webhookSecret: webhookSecret,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "stripe",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsSuccessful: func(err error) bool {
				return !countsAsFailure(err)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warnw("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

func (c *Client) CreatePaymentIntent(ctx context.Context, input CreateIntentInput) (*IntentOutput, error) {
	currency := strings.ToLower(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = string(stripeapi.CurrencyUSD)
	}

	params := &stripeapi.PaymentIntentParams{
		Amount:   stripeapi.Int64(input.Amount),
		Currency: stripeapi.String(currency),
		AutomaticPaymentMethods: &stripeapi.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripeapi.Bool(true),
		},
	}
	if input.ReceiptEmail != "" {
		params.ReceiptEmail = stripeapi.String(input.ReceiptEmail)
	}
	if input.Description != "" {
		params.Description = stripeapi.String(input.Description)
	}
	params.AddMetadata(MetadataQuoteID, input.QuoteID)
	params.Context = ctx

	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.api.PaymentIntents.New(params)
	})
	if err != nil {
		middleware.RecordIntegrationError("stripe")
		return nil, classifyError(err)
	}
	return toIntentOutput(res.(*stripeapi.PaymentIntent)), nil
}

func (c *Client) RetrievePaymentIntent(ctx context.Context, id string) (*IntentOutput, error) {
	params := &stripeapi.PaymentIntentParams{}
	params.Context = ctx

	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.api.PaymentIntents.Get(id, params)
	})
	if err != nil {
		middleware.RecordIntegrationError("stripe")
		return nil, classifyError(err)
	}
	return toIntentOutput(res.(*stripeapi.PaymentIntent)), nil
}

// ParseWebhookEvent verifies the signature and extracts the fields the
// fulfillment step needs. Unknown event types come back with only ID and Type.
func (c *Client) ParseWebhookEvent(payload []byte, signature string) (*PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &PaymentEvent{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil {
		return out, nil
	}

	switch out.Type {
	case EventCheckoutSessionCompleted:
		var session stripeapi.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out.PaymentStatus = string(session.PaymentStatus)
		out.QuoteID = session.Metadata[MetadataQuoteID]
		out.AmountTotal = session.AmountTotal
		if session.PaymentIntent != nil {
			out.PaymentIntentID = session.PaymentIntent.ID
		}
		out.CustomerEmail = session.CustomerEmail
		if out.CustomerEmail == "" && session.CustomerDetails != nil {
			out.CustomerEmail = session.CustomerDetails.Email
		}
	case EventPaymentIntentSucceeded:
		var intent stripeapi.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		out.PaymentStatus = string(intent.Status)
		out.QuoteID = intent.Metadata[MetadataQuoteID]
		out.PaymentIntentID = intent.ID
		out.AmountTotal = intent.AmountReceived
		out.CustomerEmail = intent.ReceiptEmail
	}
	return out, nil
}

// Configured reports whether both the API key and the signing secret are set.
func (c *Client) Configured() bool {
	return c.hasKey && c.webhookSecret != ""
}

func toIntentOutput(pi *stripeapi.PaymentIntent) *IntentOutput {
	return &IntentOutput{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		QuoteID:      pi.Metadata[MetadataQuoteID],
	}
}
