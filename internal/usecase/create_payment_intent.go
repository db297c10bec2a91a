package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xavierca1/quote-payments/internal/entity"
	"github.com/xavierca1/quote-payments/internal/infra/integration/stripe"
	"github.com/xavierca1/quote-payments/internal/infra/tracking"
	"github.com/xavierca1/quote-payments/internal/logger"
)

const defaultCurrency = "usd"

type CreatePaymentIntentUseCase struct {
	Repo    entity.QuoteRepositoryInterface
	Gateway PaymentGateway
	Tracker EventTracker
	Now     func() time.Time
}

func NewCreatePaymentIntentUseCase(
	repo entity.QuoteRepositoryInterface,
	gateway PaymentGateway,
	tracker EventTracker,
) *CreatePaymentIntentUseCase {
	return &CreatePaymentIntentUseCase{
		Repo:    repo,
		Gateway: gateway,
		Tracker: tracker,
		Now:     time.Now,
	}
}

func (uc *CreatePaymentIntentUseCase) Execute(ctx context.Context, input CreatePaymentIntentInput) (*CreatePaymentIntentOutput, error) {
	if strings.TrimSpace(input.QuoteID) == "" {
		return nil, validationError("quote_id is required")
	}
	if input.Amount < stripe.MinimumAmount {
		return nil, validationError(fmt.Sprintf("amount must be an integer of at least %d minor units", stripe.MinimumAmount))
	}
	currency := strings.ToLower(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	if !isValidCurrency(currency) {
		return nil, validationError("currency must be a three-letter ISO code")
	}
	if !isJSONObject(input.Services) {
		return nil, validationError("services must be a JSON object")
	}

	q, err := findQuote(ctx, uc.Repo, input.QuoteID)
	if err != nil {
		return nil, err
	}
	if err := checkPayable(q, uc.Now()); err != nil {
		return nil, err
	}
	if !q.Status.CanTransitionTo(entity.QuoteStatusPendingPayment) {
		return nil, &DomainError{
			Code:    CodeInvalidTransition,
			Message: fmt.Sprintf("quote in status %s cannot accept a payment", q.Status),
		}
	}

	intent, err := uc.Gateway.CreatePaymentIntent(ctx, stripe.CreateIntentInput{
		QuoteID:      q.ID,
		Amount:       input.Amount,
		Currency:     currency,
		ReceiptEmail: q.Email,
		Description:  q.ServiceType,
	})
	if err != nil {
		return nil, gatewayError(err)
	}

	// The client secret is returned even if bookkeeping fails: the payment
	// itself must be allowed to proceed.
	upd := entity.PendingPaymentUpdate{
		PaymentIntentID: intent.ID,
		Price:           decimal.New(input.Amount, -2),
		Services:        input.Services,
	}
	if err := uc.Repo.MarkPendingPayment(ctx, q.ID, upd); err != nil {
		logger.Errorw("failed to record payment intent on quote",
			"quote_id", q.ID, "payment_intent_id", intent.ID, "error", err)
	}

	uc.Tracker.Track(tracking.EventPaymentIntentCreated, q.Email, map[string]any{
		"quote_id":          q.ID,
		"payment_intent_id": intent.ID,
		"amount":            input.Amount,
		"currency":          currency,
	})

	return &CreatePaymentIntentOutput{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
	}, nil
}

// gatewayError keeps card problems, bad requests and provider outages apart.
func gatewayError(err error) error {
	var ge *stripe.GatewayError
	if !errors.As(err, &ge) {
		return &TechnicalError{Code: CodePaymentProvider, Message: "payment provider error", Err: err}
	}
	switch ge.Kind {
	case stripe.ErrorKindCard:
		return &DomainError{Code: CodeCardError, Message: ge.Message}
	case stripe.ErrorKindInvalidRequest:
		return &DomainError{Code: CodePaymentRequest, Message: ge.Message}
	default:
		return &TechnicalError{Code: CodePaymentProvider, Message: "payment provider error", Err: err}
	}
}
