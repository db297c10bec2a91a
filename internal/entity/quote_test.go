package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to QuoteStatus
		allowed  bool
	}{
		{QuoteStatusPending, QuoteStatusPendingPayment, true},
		{QuoteStatusPendingPayment, QuoteStatusPendingPayment, true},
		{QuoteStatusPendingPayment, QuoteStatusPaid, true},
		{QuoteStatusPending, QuoteStatusPaid, false},
		{QuoteStatusPaid, QuoteStatusPending, false},
		{QuoteStatusPaid, QuoteStatusPendingPayment, false},
		{QuoteStatusPaid, QuoteStatusPaid, false},
		{QuoteStatusPendingPayment, QuoteStatusPending, false},
	}

	for _, c := range cases {
		assert.Equal(t, c.allowed, c.from.CanTransitionTo(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestNewQuote(t *testing.T) {
	q := NewQuote("Jane Doe", "jane@x.com", ServiceCertifiedTranslation, decimal.RequireFromString("250.00"), "staff-1", time.Hour)

	assert.NotEmpty(t, q.ID)
	assert.Equal(t, QuoteStatusPending, q.Status)
	require.NotNil(t, q.ExpiresAt)
	assert.False(t, q.Expired(time.Now()))
	assert.True(t, q.Expired(time.Now().Add(2*time.Hour)))

	noTTL := NewQuote("Jane Doe", "jane@x.com", ServiceCertifiedTranslation, decimal.NewFromInt(1), "staff-1", 0)
	assert.Nil(t, noTTL.ExpiresAt)
	assert.False(t, noTTL.Expired(time.Now().Add(24*365*time.Hour)))
}

func TestQuotePriceCents(t *testing.T) {
	cases := map[string]int64{
		"250.00": 25000,
		"99":     9900,
		"19.995": 2000,
		"0.5":    50,
	}
	for price, want := range cases {
		q := &Quote{Price: decimal.RequireFromString(price)}
		assert.Equal(t, want, q.PriceCents(), price)
	}
}

func TestSplitName(t *testing.T) {
	first, last := SplitName("Jane Doe")
	assert.Equal(t, "Jane", first)
	assert.Equal(t, "Doe", last)

	first, last = SplitName("  Maria  de la   Cruz ")
	assert.Equal(t, "Maria", first)
	assert.Equal(t, "de la Cruz", last)

	first, last = SplitName("Prince")
	assert.Equal(t, "Prince", first)
	assert.Equal(t, "", last)
}

func TestNewOrderFromQuote(t *testing.T) {
	q := &Quote{
		ID:              "q-1",
		Name:            "Jane Doe",
		Email:           "jane@x.com",
		ServiceType:     ServiceCertifiedTranslation,
		Price:           decimal.RequireFromString("250.00"),
		PaymentIntentID: "pi_quote",
		Services:        json.RawMessage(`{"pages":3,"original_quote_id":"spoofed"}`),
	}

	o := NewOrderFromQuote(q, "pi_event")

	assert.Equal(t, "Jane", o.FirstName)
	assert.Equal(t, "Doe", o.LastName)
	assert.Equal(t, OrderStatusProcessing, o.Status)
	require.NotNil(t, o.TotalAmount)
	assert.Equal(t, int64(25000), *o.TotalAmount)
	assert.Equal(t, "pi_event", o.PaymentIntentID)
	require.NotNil(t, o.QuoteID)
	assert.Equal(t, "q-1", *o.QuoteID)
	assert.Equal(t, "q-1", o.Services.OriginalQuoteID())
	assert.Equal(t, float64(3), o.Services["pages"])
	assert.Equal(t, ServiceCertifiedTranslation, o.Services["service_type"])

	fallback := NewOrderFromQuote(q, "")
	assert.Equal(t, "pi_quote", fallback.PaymentIntentID)
}

func TestIsKnownServiceType(t *testing.T) {
	assert.True(t, IsKnownServiceType("Certified Translation"))
	assert.False(t, IsKnownServiceType("certified translation"))
	assert.False(t, IsKnownServiceType(""))
}
