package usecase

import (
	"context"
	"time"

	"github.com/xavierca1/quote-payments/internal/entity"
	"github.com/xavierca1/quote-payments/internal/infra/mail"
	"github.com/xavierca1/quote-payments/internal/logger"
)

// SendPaymentLinkUseCase re-sends the quote link to the client on staff request.
type SendPaymentLinkUseCase struct {
	Repo         entity.QuoteRepositoryInterface
	Notifier     Notifier
	PublicOrigin string
	Now          func() time.Time
}

func NewSendPaymentLinkUseCase(repo entity.QuoteRepositoryInterface, notifier Notifier, publicOrigin string) *SendPaymentLinkUseCase {
	return &SendPaymentLinkUseCase{
		Repo:         repo,
		Notifier:     notifier,
		PublicOrigin: publicOrigin,
		Now:          time.Now,
	}
}

func (uc *SendPaymentLinkUseCase) Execute(ctx context.Context, quoteID string) (*SendPaymentLinkOutput, error) {
	q, err := findQuote(ctx, uc.Repo, quoteID)
	if err != nil {
		return nil, err
	}
	if err := checkPayable(q, uc.Now()); err != nil {
		return nil, err
	}

	link := quoteLink(uc.PublicOrigin, q.ID)
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

	id, err := uc.Notifier.Send(ctx, mail.KindQuotePaymentLink, q.Email, data)
	if err != nil {
		return nil, &TechnicalError{Code: CodeNotification, Message: "failed to send payment link", Err: err}
	}

	logger.Infow("payment link sent", "quote_id", q.ID, "message_id", id)
	return &SendPaymentLinkOutput{QuoteLink: link, MessageID: id}, nil
}
