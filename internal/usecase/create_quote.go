package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/xavierca1/quote-payments/internal/entity"
	"github.com/xavierca1/quote-payments/internal/infra/mail"
	"github.com/xavierca1/quote-payments/internal/infra/tracking"
	"github.com/xavierca1/quote-payments/internal/logger"
)

const warnConfirmationEmail = "Quote created, but the confirmation email could not be sent"

type CreateQuoteUseCase struct {
	Repo         entity.QuoteRepositoryInterface
	Notifier     Notifier
	Tracker      EventTracker
	PublicOrigin string
	QuoteTTL     time.Duration
}

func NewCreateQuoteUseCase(
	repo entity.QuoteRepositoryInterface,
	notifier Notifier,
	tracker EventTracker,
	publicOrigin string,
	quoteTTL time.Duration,
) *CreateQuoteUseCase {
	return &CreateQuoteUseCase{
		Repo:         repo,
		Notifier:     notifier,
		Tracker:      tracker,
		PublicOrigin: publicOrigin,
		QuoteTTL:     quoteTTL,
	}
}

func (uc *CreateQuoteUseCase) Execute(ctx context.Context, input CreateQuoteInput) (*CreateQuoteOutput, error) {
	if strings.TrimSpace(input.StaffID) == "" {
		return nil, &DomainError{Code: CodeUnauthorized, Message: "staff authentication required"}
	}
	if de := firstValidationError(ValidateCreateQuoteInput(input)); de != nil {
		return nil, de
	}

	price, _ := parsePrice(string(input.Price))
	q := entity.NewQuote(
		strings.TrimSpace(input.Name),
		strings.TrimSpace(input.Email),
		strings.TrimSpace(input.ServiceType),
		price,
		input.StaffID,
		uc.QuoteTTL,
	)

	if err := uc.Repo.Create(ctx, q); err != nil {
		return nil, &TechnicalError{Code: CodeDatabase, Message: "failed to save quote", Err: err}
	}

	link := quoteLink(uc.PublicOrigin, q.ID)
	logger.Infow("quote created", "quote_id", q.ID, "staff_id", q.StaffID, "service_type", q.ServiceType)

	uc.Tracker.Track(tracking.EventQuoteCreated, q.Email, map[string]any{
		"quote_id":     q.ID,
		"service_type": q.ServiceType,
		"price":        q.Price.StringFixed(2),
		"staff_id":     q.StaffID,
	})

	data := mail.TemplateData{
		Name:        q.Name,
		Email:       q.Email,
		ServiceType: q.ServiceType,
		Amount:      formatAmount(q.Price),
		QuoteID:     q.ID,
		QuoteLink:   link,
	}
	if q.ExpiresAt != nil {
		data.ExpiresAt = q.ExpiresAt.Format("January 2, 2006")
	}

	results, err := sendAll(ctx, uc.Notifier,
		notification{kind: mail.KindQuoteConfirmation, recipient: q.Email, data: data},
		notification{kind: mail.KindStaffNewQuoteAlert, data: data},
	)
	if err != nil {
		logger.Warnw("quote notifications failed", "quote_id", q.ID, "error", err)
	}

	out := &CreateQuoteOutput{
		QuoteID:   q.ID,
		QuoteLink: link,
		Status:    string(q.Status),
		EmailSent: results[0].err == nil,
	}
	if !out.EmailSent {
		out.Warning = warnConfirmationEmail
	}
	return out, nil
}
