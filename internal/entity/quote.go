package entity

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrQuoteNotFound  = errors.New("quote not found")
	ErrStatusConflict = errors.New("quote status changed concurrently")
)

// QuoteStatus keeps the wire values stored in quotes.status.
type QuoteStatus string

const (
	QuoteStatusPending        QuoteStatus = "Pending"
	QuoteStatusPendingPayment QuoteStatus = "pending_payment"
	QuoteStatusPaid           QuoteStatus = "Paid"
)

var quoteTransitions = map[QuoteStatus][]QuoteStatus{
	QuoteStatusPending:        {QuoteStatusPendingPayment},
	QuoteStatusPendingPayment: {QuoteStatusPendingPayment, QuoteStatusPaid},
}

func (s QuoteStatus) Valid() bool {
	switch s {
	case QuoteStatusPending, QuoteStatusPendingPayment, QuoteStatusPaid:
		return true
	}
	return false
}

// CanTransitionTo reports whether next is a legal successor of s.
// Paid is terminal; Paid -> Paid is handled by callers as a no-op.
func (s QuoteStatus) CanTransitionTo(next QuoteStatus) bool {
	for _, allowed := range quoteTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Service types offered on the quote form.
const (
	ServiceCertifiedTranslation = "Certified Translation"
	ServiceCredentialEvaluation = "Credential Evaluation"
	ServiceCourseByCourse       = "Course-by-Course Evaluation"
	ServiceDocumentByDocument   = "Document-by-Document Evaluation"
	ServiceExpertOpinion        = "Expert Opinion Letter"
	ServiceNotarization         = "Notarization"
)

var knownServiceTypes = []string{
	ServiceCertifiedTranslation,
	ServiceCredentialEvaluation,
	ServiceCourseByCourse,
	ServiceDocumentByDocument,
	ServiceExpertOpinion,
	ServiceNotarization,
}

func IsKnownServiceType(serviceType string) bool {
	for _, s := range knownServiceTypes {
		if s == serviceType {
			return true
		}
	}
	return false
}

func KnownServiceTypes() []string {
	out := make([]string, len(knownServiceTypes))
	copy(out, knownServiceTypes)
	return out
}

// Quote is a priced offer sent to a prospective client.
type Quote struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	ServiceType     string          `json:"service_type"`
	Price           decimal.Decimal `json:"price"`
	Status          QuoteStatus     `json:"status"`
	StaffID         string          `json:"staff_id,omitempty"`
	ExpiresAt       *time.Time      `json:"expires_at,omitempty"`
	PaymentIntentID string          `json:"stripe_payment_intent_id,omitempty"`
	Services        json.RawMessage `json:"services,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewQuote builds a Pending quote. A non-positive ttl leaves ExpiresAt empty.
func NewQuote(name, email, serviceType string, price decimal.Decimal, staffID string, ttl time.Duration) *Quote {
	now := time.Now().UTC()
	q := &Quote{
		ID:          uuid.New().String(),
		Name:        name,
		Email:       email,
		ServiceType: serviceType,
		Price:       price,
		Status:      QuoteStatusPending,
		StaffID:     staffID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if ttl > 0 {
		exp := now.Add(ttl)
		q.ExpiresAt = &exp
	}
	return q
}

func (q *Quote) Expired(now time.Time) bool {
	return q.ExpiresAt != nil && now.After(*q.ExpiresAt)
}

// PriceCents converts the major-unit price into integer minor units.
func (q *Quote) PriceCents() int64 {
	return q.Price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// PendingPaymentUpdate carries the fields written when a payment intent is issued.
type PendingPaymentUpdate struct {
	PaymentIntentID string
	Price           decimal.Decimal
	Services        json.RawMessage
}

type QuoteRepositoryInterface interface {
	Create(ctx context.Context, q *Quote) error
	FindByID(ctx context.Context, id string) (*Quote, error)
	MarkPendingPayment(ctx context.Context, id string, upd PendingPaymentUpdate) error
	// UpdateStatus only applies when the stored status still equals from.
	UpdateStatus(ctx context.Context, id string, from, to QuoteStatus) error
}
