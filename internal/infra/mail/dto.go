package mail

// Kind selects a fixed subject/body template.
type Kind string

const (
	KindQuoteConfirmation   Kind = "quote_confirmation"
	KindQuotePaymentLink    Kind = "quote_payment_link"
	KindOrderReceipt        Kind = "order_receipt"
	KindStaffNewOrderAlert  Kind = "staff_new_order_alert"
	KindStaffNewQuoteAlert  Kind = "staff_new_quote_alert"
	KindAbandonedCartResume Kind = "abandoned_cart_resume"
)

// IsStaff reports whether the kind is addressed to the staff list.
func (k Kind) IsStaff() bool {
	return k == KindStaffNewOrderAlert || k == KindStaffNewQuoteAlert
}

// TemplateData feeds every template; each kind reads the fields it needs.
type TemplateData struct {
	Name        string
	Email       string
	ServiceType string
	Amount      string
	QuoteID     string
	QuoteLink   string
	OrderID     int64
	ResumeURL   string
	ExpiresAt   string
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Staff    []string
}
