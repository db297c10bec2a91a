package usecase

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

type CreateQuoteInput struct {
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	ServiceType string    `json:"service_type"`
	Price       PriceText `json:"price"`
	StaffID     string    `json:"-"`
}

// PriceText accepts a JSON number or a numeric string and keeps the raw
// text, so a malformed price is reported by validation, not by the decoder.
type PriceText string

func (p *PriceText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*p = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PriceText(s)
	default:
		*p = PriceText(data)
	}
	return nil
}

type CreateQuoteOutput struct {
	QuoteID   string `json:"quote_id"`
	QuoteLink string `json:"quote_link"`
	Status    string `json:"status"`
	EmailSent bool   `json:"email_sent"`
	Warning   string `json:"warning,omitempty"`
}

// QuoteView is the public projection behind the quote link.
type QuoteView struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	ServiceType string          `json:"service_type"`
	Price       decimal.Decimal `json:"price"`
	AmountCents int64           `json:"amount_cents"`
	Status      string          `json:"status"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
	Expired     bool            `json:"expired"`
}

type SendPaymentLinkOutput struct {
	QuoteLink string `json:"quote_link"`
	MessageID string `json:"message_id"`
}

type CreatePaymentIntentInput struct {
	QuoteID  string          `json:"-"`
	Amount   int64           `json:"amount"`
	Currency string          `json:"currency"`
	Services json.RawMessage `json:"services,omitempty"`
}

type CreatePaymentIntentOutput struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
}

type ProcessPaymentEventInput struct {
	Payload   []byte
	Signature string
}

type ProcessPaymentEventOutput struct {
	Received  bool  `json:"received"`
	OrderID   int64 `json:"order_id,omitempty"`
	Duplicate bool  `json:"duplicate,omitempty"`
}

type BackfillInput struct {
	RunSecret string
}

type BackfillRowError struct {
	OrderID int64  `json:"order_id"`
	Error   string `json:"error"`
}

type BackfillOutput struct {
	Scanned int                `json:"scanned"`
	Updated int                `json:"updated"`
	Failed  int                `json:"failed"`
	Errors  []BackfillRowError `json:"errors"`
}

type SendCartReminderInput struct {
	Email       string `json:"email"`
	SessionID   string `json:"session_id"`
	Name        string `json:"name"`
	ServiceType string `json:"service_type"`
	ResumeURL   string `json:"resume_url"`
}

type SendCartReminderOutput struct {
	Sent      bool   `json:"sent"`
	Skipped   bool   `json:"skipped"`
	MessageID string `json:"message_id,omitempty"`
}

type AttachDocumentInput struct {
	OrderID     int64
	FileName    string
	ContentType string
	Body        io.Reader
}

type AttachDocumentOutput struct {
	OrderID int64  `json:"order_id"`
	Path    string `json:"path"`
}
