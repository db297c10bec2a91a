package stripe

// Webhook event types that can fulfil a quote.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventPaymentIntentSucceeded   = "payment_intent.succeeded"

	PaymentStatusPaid = "paid"

	MetadataQuoteID = "quote_id"

	// MinimumAmount is the smallest charge the processor accepts, in minor units.
	MinimumAmount int64 = 50
)

type CreateIntentInput struct {
	QuoteID      string
	Amount       int64
	Currency     string
	ReceiptEmail string
	Description  string
}

type IntentOutput struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
	QuoteID      string
}

// PaymentEvent is the verified subset of a webhook event the workflow reads.
type PaymentEvent struct {
	ID              string
	Type            string
	PaymentStatus   string
	QuoteID         string
	PaymentIntentID string
	AmountTotal     int64
	CustomerEmail   string
}

// Fulfillable reports whether the event confirms payment for a known quote.
func (e *PaymentEvent) Fulfillable() bool {
	if e.QuoteID == "" {
		return false
	}
	switch e.Type {
	case EventCheckoutSessionCompleted:
		return e.PaymentStatus == PaymentStatusPaid
	case EventPaymentIntentSucceeded:
		return true
	}
	return false
}
