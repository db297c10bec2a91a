package usecase

import (
	"context"
	"errors"

	"github.com/xavierca1/quote-payments/internal/entity"
	"github.com/xavierca1/quote-payments/internal/infra/integration/stripe"
	"github.com/xavierca1/quote-payments/internal/infra/mail"
	"github.com/xavierca1/quote-payments/internal/infra/tracking"
	"github.com/xavierca1/quote-payments/internal/logger"
)

// ProcessPaymentEventUseCase turns a verified "paid" webhook into an Order.
// Only the quote lookup and the order insert can fail the delivery; the
// processor redelivers on any non-2xx answer.
type ProcessPaymentEventUseCase struct {
	Quotes   entity.QuoteRepositoryInterface
	Orders   entity.OrderRepositoryInterface
	Gateway  PaymentGateway
	Notifier Notifier
	Tracker  EventTracker
}

func NewProcessPaymentEventUseCase(
	quotes entity.QuoteRepositoryInterface,
	orders entity.OrderRepositoryInterface,
	gateway PaymentGateway,
	notifier Notifier,
	tracker EventTracker,
) *ProcessPaymentEventUseCase {
	return &ProcessPaymentEventUseCase{
		Quotes:   quotes,
		Orders:   orders,
		Gateway:  gateway,
		Notifier: notifier,
		Tracker:  tracker,
	}
}

func (uc *ProcessPaymentEventUseCase) Execute(ctx context.Context, input ProcessPaymentEventInput) (*ProcessPaymentEventOutput, error) {
	event, err := uc.Gateway.ParseWebhookEvent(input.Payload, input.Signature)
	if errors.Is(err, stripe.ErrInvalidSignature) {
		return nil, &DomainError{Code: CodeInvalidSignature, Message: "webhook signature verification failed"}
	}
	if err != nil {
		return nil, validationError("malformed webhook payload")
	}

	if !event.Fulfillable() {
		logger.Get().Debugw("webhook event ignored",
			"event_id", event.ID, "type", event.Type, "payment_status", event.PaymentStatus)
		return &ProcessPaymentEventOutput{Received: true}, nil
	}

	q, err := uc.Quotes.FindByID(ctx, event.QuoteID)
	if err != nil {
		return nil, &TechnicalError{Code: CodeFulfillmentFailed, Message: "failed to load quote " + event.QuoteID, Err: err}
	}

	order, created, err := uc.Orders.CreateFromQuote(ctx, entity.NewOrderFromQuote(q, event.PaymentIntentID))
	if err != nil {
		return nil, &TechnicalError{Code: CodeFulfillmentFailed, Message: "failed to create order for quote " + q.ID, Err: err}
	}

	uc.markPaid(ctx, q)

	if !created {
		logger.Infow("payment event for already fulfilled quote", "event_id", event.ID, "quote_id", q.ID, "order_id", order.ID)
		return &ProcessPaymentEventOutput{Received: true, OrderID: order.ID, Duplicate: true}, nil
	}

	logger.Infow("order created from quote", "event_id", event.ID, "quote_id", q.ID, "order_id", order.ID)
	uc.announce(ctx, q, order, event.AmountTotal)

	return &ProcessPaymentEventOutput{Received: true, OrderID: order.ID}, nil
}

// markPaid moves the quote to Paid with a compare-and-set on its current
// status. Failures are logged only: the order already exists.
func (uc *ProcessPaymentEventUseCase) markPaid(ctx context.Context, q *entity.Quote) {
	from := q.Status
	for attempt := 0; attempt < 2; attempt++ {
		if from == entity.QuoteStatusPaid {
			return
		}
		if !from.CanTransitionTo(entity.QuoteStatusPaid) {
			logger.Warnw("unexpected quote transition applied after confirmed payment",
				"quote_id", q.ID, "from", from, "to", entity.QuoteStatusPaid)
		}

		err := uc.Quotes.UpdateStatus(ctx, q.ID, from, entity.QuoteStatusPaid)
		if err == nil {
			return
		}
		if !errors.Is(err, entity.ErrStatusConflict) {
			logger.Errorw("failed to mark quote paid", "quote_id", q.ID, "error", err)
			return
		}

		current, ferr := uc.Quotes.FindByID(ctx, q.ID)
		if ferr != nil {
			logger.Errorw("failed to reload quote after status conflict", "quote_id", q.ID, "error", ferr)
			return
		}
		from = current.Status
	}
	logger.Errorw("gave up marking quote paid", "quote_id", q.ID, "status", from)
}

// announce reports a new order. charged is the processor's amount for the
// event, 0 when the event does not carry one.
func (uc *ProcessPaymentEventUseCase) announce(ctx context.Context, q *entity.Quote, order *entity.Order, charged int64) {
	var amount int64
	if order.TotalAmount != nil {
		amount = *order.TotalAmount
	}

	props := map[string]any{
		"quote_id":          q.ID,
		"order_id":          order.ID,
		"amount":            amount,
		"payment_intent_id": order.PaymentIntentID,
		"service_type":      q.ServiceType,
	}
	if charged > 0 {
		props["charged_amount"] = charged
		if charged != amount {
			logger.Warnw("charged amount differs from order total",
				"order_id", order.ID, "quote_id", q.ID, "order_total", amount, "charged", charged)
			props["amount_mismatch"] = true
		}
	}
	uc.Tracker.Track(tracking.EventPaymentCompleted, q.Email, props)

	data := mail.TemplateData{
		Name:        q.Name,
		Email:       q.Email,
		ServiceType: q.ServiceType,
		Amount:      formatCents(amount),
		QuoteID:     q.ID,
		OrderID:     order.ID,
	}
	if _, err := sendAll(ctx, uc.Notifier,
		notification{kind: mail.KindStaffNewOrderAlert, data: data},
		notification{kind: mail.KindOrderReceipt, recipient: q.Email, data: data},
	); err != nil {
		logger.Warnw("order notifications failed", "order_id", order.ID, "error", err)
	}
}
