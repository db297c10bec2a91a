package mail

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"github.com/xavierca1/quote-payments/internal/infra/http/middleware"
	"github.com/xavierca1/quote-payments/internal/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	ErrUnknownKind      = errors.New("unknown notification kind")
	ErrNoRecipient      = errors.New("notification has no recipient")
	ErrNoStaffRecipient = errors.New("no staff recipients configured")
)

// Transport delivers a composed message. *gomail.Dialer satisfies it.
type Transport interface {
	DialAndSend(m ...*gomail.Message) error
}

type kindDef struct {
	file    string
	subject func(TemplateData) string
}

var kinds = map[Kind]kindDef{
	KindQuoteConfirmation: {"quote_confirmation.html", func(d TemplateData) string {
		return fmt.Sprintf("Your %s quote is ready", d.ServiceType)
	}},
	KindQuotePaymentLink: {"quote_payment_link.html", func(d TemplateData) string {
		return fmt.Sprintf("Complete your payment for %s", d.ServiceType)
	}},
	KindOrderReceipt: {"order_receipt.html", func(d TemplateData) string {
		return fmt.Sprintf("Payment received - order #%d", d.OrderID)
	}},
	KindStaffNewOrderAlert: {"staff_new_order_alert.html", func(d TemplateData) string {
		return fmt.Sprintf("New paid order #%d from %s", d.OrderID, d.Name)
	}},
	KindStaffNewQuoteAlert: {"staff_new_quote_alert.html", func(d TemplateData) string {
		return fmt.Sprintf("New quote for %s (%s)", d.Name, d.Amount)
	}},
	KindAbandonedCartResume: {"abandoned_cart_resume.html", func(d TemplateData) string {
		return "You left something in your cart"
	}},
}

type Dispatcher struct {
	from      string
	staff     []string
	transport Transport
	templates map[Kind]*template.Template
}

func NewDispatcher(cfg SMTPConfig) (*Dispatcher, error) {
	return NewDispatcherWithTransport(cfg, gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password))
}

// NewDispatcherWithTransport parses every template up front so a broken
// template fails at start-up rather than on the first send.
func NewDispatcherWithTransport(cfg SMTPConfig, transport Transport) (*Dispatcher, error) {
	templates := make(map[Kind]*template.Template, len(kinds))
	for kind, def := range kinds {
		t, err := template.ParseFS(templateFS, "templates/"+def.file)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", def.file, err)
		}
		templates[kind] = t
	}
	return &Dispatcher{
		from:      cfg.From,
		staff:     cfg.Staff,
		transport: transport,
		templates: templates,
	}, nil
}

// Send renders kind for data and delivers it once, returning the Message-Id.
func (d *Dispatcher) Send(ctx context.Context, kind Kind, recipient string, data TemplateData) (string, error) {
	id, err := d.send(ctx, kind, recipient, data)
	if err != nil {
		middleware.RecordNotification(string(kind), "failed")
		logger.Warnw("notification failed", "kind", kind, "error", err)
		return "", err
	}
	middleware.RecordNotification(string(kind), "sent")
	logger.Infow("notification sent", "kind", kind, "message_id", id)
	return id, nil
}

func (d *Dispatcher) send(ctx context.Context, kind Kind, recipient string, data TemplateData) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	def, ok := kinds[kind]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	var to string
	var cc []string
	if kind.IsStaff() {
		if len(d.staff) == 0 {
			return "", ErrNoStaffRecipient
		}
		to, cc = d.staff[0], d.staff[1:]
	} else {
		to = strings.TrimSpace(recipient)
		if to == "" {
			return "", ErrNoRecipient
		}
	}

	var body bytes.Buffer
	if err := d.templates[kind].Execute(&body, data); err != nil {
		return "", fmt.Errorf("render %s: %w", kind, err)
	}

	id := d.messageID()
	m := gomail.NewMessage()
	m.SetHeader("From", d.from)
	m.SetHeader("To", to)
	if len(cc) > 0 {
		m.SetHeader("Cc", cc...)
	}
	m.SetHeader("Subject", def.subject(data))
	m.SetHeader("Message-ID", "<"+id+">")
	m.SetDateHeader("Date", time.Now())
	m.SetBody("text/html", body.String())

	if err := d.transport.DialAndSend(m); err != nil {
		return "", fmt.Errorf("send smtp: %w", err)
	}
	return id, nil
}

func (d *Dispatcher) messageID() string {
	domain := "localhost"
	if at := strings.LastIndex(d.from, "@"); at >= 0 {
		domain = strings.TrimSuffix(d.from[at+1:], ">")
	}
	return uuid.New().String() + "@" + domain
}
