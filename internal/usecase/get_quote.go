package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/xavierca1/quote-payments/internal/entity"
)

type GetQuoteUseCase struct {
	Repo entity.QuoteRepositoryInterface
	Now  func() time.Time
}

func NewGetQuoteUseCase(repo entity.QuoteRepositoryInterface) *GetQuoteUseCase {
	return &GetQuoteUseCase{Repo: repo, Now: time.Now}
}

func (uc *GetQuoteUseCase) Execute(ctx context.Context, quoteID string) (*QuoteView, error) {
	q, err := findQuote(ctx, uc.Repo, quoteID)
	if err != nil {
		return nil, err
	}
	return &QuoteView{
		ID:          q.ID,
		Name:        q.Name,
		ServiceType: q.ServiceType,
		Price:       q.Price,
		AmountCents: q.PriceCents(),
		Status:      string(q.Status),
		ExpiresAt:   q.ExpiresAt,
		Expired:     q.Status != entity.QuoteStatusPaid && q.Expired(uc.Now()),
	}, nil
}

// findQuote maps repository failures onto the workflow's error model.
func findQuote(ctx context.Context, repo entity.QuoteRepositoryInterface, quoteID string) (*entity.Quote, error) {
	quoteID = strings.TrimSpace(quoteID)
	if quoteID == "" {
		return nil, validationError("quote_id is required")
	}
	q, err := repo.FindByID(ctx, quoteID)
	if errors.Is(err, entity.ErrQuoteNotFound) {
		return nil, &DomainError{Code: CodeQuoteNotFound, Message: "quote not found"}
	}
	if err != nil {
		return nil, &TechnicalError{Code: CodeDatabase, Message: "failed to load quote", Err: err}
	}
	return q, nil
}

// checkPayable rejects quotes that must not be charged again.
func checkPayable(q *entity.Quote, now time.Time) error {
	if q.Status == entity.QuoteStatusPaid {
		return &DomainError{Code: CodeQuoteAlreadyPaid, Message: "quote has already been paid"}
	}
	if q.Expired(now) {
		return &DomainError{Code: CodeQuoteExpired, Message: "quote has expired"}
	}
	return nil
}
