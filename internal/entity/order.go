package entity

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var ErrOrderNotFound = errors.New("order not found")

const OrderStatusProcessing = "processing"

type Urgency string

const (
	UrgencyStandard Urgency = "standard"
	UrgencyRush     Urgency = "rush"
	UrgencyExpress  Urgency = "express"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyStandard, UrgencyRush, UrgencyExpress:
		return true
	}
	return false
}

// OrderServices is the free-form services descriptor stored in orders.services.
type OrderServices map[string]any

const ServicesOriginalQuoteKey = "original_quote_id"

func (s OrderServices) OriginalQuoteID() string {
	v, _ := s[ServicesOriginalQuoteKey].(string)
	return v
}

// Order is a paid unit of work tracked for service delivery.
type Order struct {
	ID              int64         `json:"id"`
	FirstName       string        `json:"first_name"`
	LastName        string        `json:"last_name"`
	Email           string        `json:"email"`
	Phone           string        `json:"phone,omitempty"`
	Services        OrderServices `json:"services"`
	Status          string        `json:"status"`
	TotalAmount     *int64        `json:"total_amount"`
	PaymentIntentID string        `json:"stripe_payment_intent_id,omitempty"`
	DocumentPaths   []string      `json:"document_paths"`
	Urgency         Urgency       `json:"urgency,omitempty"`
	QuoteID         *string       `json:"quote_id,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// SplitName breaks a full name on its first whitespace run.
func SplitName(full string) (first, last string) {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

// NewOrderFromQuote derives the order materialized when a quote is paid.
// Keys of the quote's services override are kept; the quote reference always wins.
func NewOrderFromQuote(q *Quote, paymentIntentID string) *Order {
	first, last := SplitName(q.Name)

	services := OrderServices{}
	if len(q.Services) > 0 {
		var override map[string]any
		if err := json.Unmarshal(q.Services, &override); err == nil {
			for k, v := range override {
				services[k] = v
			}
		}
	}
	if _, ok := services["service_type"]; !ok {
		services["service_type"] = q.ServiceType
	}
	services[ServicesOriginalQuoteKey] = q.ID

	if paymentIntentID == "" {
		paymentIntentID = q.PaymentIntentID
	}
	amount := q.PriceCents()
	quoteID := q.ID

	return &Order{
		FirstName:       first,
		LastName:        last,
		Email:           q.Email,
		Services:        services,
		Status:          OrderStatusProcessing,
		TotalAmount:     &amount,
		PaymentIntentID: paymentIntentID,
		DocumentPaths:   []string{},
		Urgency:         UrgencyStandard,
		QuoteID:         &quoteID,
		CreatedAt:       time.Now().UTC(),
	}
}

type OrderRepositoryInterface interface {
	// CreateFromQuote inserts o unless an order already exists for o.QuoteID.
	// created is false when the existing order is returned instead.
	CreateFromQuote(ctx context.Context, o *Order) (existing *Order, created bool, err error)
	FindByID(ctx context.Context, id int64) (*Order, error)
	// ListMissingAmounts pages through orders lacking a total, ordered by id,
	// starting after afterID.
	ListMissingAmounts(ctx context.Context, afterID int64, limit int) ([]*Order, error)
	SetTotalAmount(ctx context.Context, id int64, amount int64) error
	AppendDocumentPath(ctx context.Context, id int64, path string) error
	UpdateServices(ctx context.Context, id int64, services OrderServices) error
	UpdateUrgency(ctx context.Context, id int64, urgency Urgency) error
}
