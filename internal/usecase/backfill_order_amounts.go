package usecase

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/xavierca1/quote-payments/internal/entity"
	"github.com/xavierca1/quote-payments/internal/logger"
)

const defaultBackfillBatch = 500

// BackfillOrderAmountsUseCase repairs orders stored without a total by
// asking the processor for the intent's authoritative amount. Rows are
// independent: one failure is recorded and the scan goes on.
type BackfillOrderAmountsUseCase struct {
	Orders    entity.OrderRepositoryInterface
	Gateway   PaymentGateway
	RunSecret string
	BatchSize int
}

func NewBackfillOrderAmountsUseCase(orders entity.OrderRepositoryInterface, gateway PaymentGateway, runSecret string) *BackfillOrderAmountsUseCase {
	return &BackfillOrderAmountsUseCase{
		Orders:    orders,
		Gateway:   gateway,
		RunSecret: runSecret,
		BatchSize: defaultBackfillBatch,
	}
}

func (uc *BackfillOrderAmountsUseCase) Execute(ctx context.Context, input BackfillInput) (*BackfillOutput, error) {
	if uc.RunSecret == "" {
		logger.Error("backfill requested but BACKFILL_RUN_SECRET is not configured")
		return nil, &TechnicalError{Code: CodeConfig, Message: "backfill is not configured"}
	}
	if subtle.ConstantTimeCompare([]byte(input.RunSecret), []byte(uc.RunSecret)) != 1 {
		return nil, &DomainError{Code: CodeUnauthorized, Message: "invalid run secret"}
	}
	return uc.Run(ctx)
}

// Run performs one pass without the secret check; the periodic worker uses it.
func (uc *BackfillOrderAmountsUseCase) Run(ctx context.Context) (*BackfillOutput, error) {
	batch := uc.BatchSize
	if batch <= 0 {
		batch = defaultBackfillBatch
	}

	out := &BackfillOutput{Errors: []BackfillRowError{}}

	// Keyset paging: rows that keep failing stay NULL, so the cursor is what
	// moves the scan past them.
	var cursor int64
	for {
		orders, err := uc.Orders.ListMissingAmounts(ctx, cursor, batch)
		if err != nil {
			return nil, &TechnicalError{Code: CodeDatabase, Message: "failed to list orders", Err: err}
		}

		for _, o := range orders {
			out.Scanned++
			if err := uc.fill(ctx, o); err != nil {
				out.Failed++
				out.Errors = append(out.Errors, BackfillRowError{OrderID: o.ID, Error: err.Error()})
				logger.Warnw("backfill row failed", "order_id", o.ID, "error", err)
			} else {
				out.Updated++
			}
			cursor = o.ID
		}

		if len(orders) < batch || ctx.Err() != nil {
			break
		}
	}

	logger.Infow("backfill finished", "scanned", out.Scanned, "updated", out.Updated, "failed", out.Failed)
	return out, nil
}

func (uc *BackfillOrderAmountsUseCase) fill(ctx context.Context, o *entity.Order) error {
	intent, err := uc.Gateway.RetrievePaymentIntent(ctx, o.PaymentIntentID)
	if err != nil {
		return fmt.Errorf("retrieve %s: %w", o.PaymentIntentID, err)
	}
	if err := uc.Orders.SetTotalAmount(ctx, o.ID, intent.Amount); err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	return nil
}
