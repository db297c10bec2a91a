package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/xavierca1/quote-payments/internal/infra/mail"
)

type notification struct {
	kind      mail.Kind
	recipient string
	data      mail.TemplateData
}

type notificationResult struct {
	kind      mail.Kind
	messageID string
	err       error
}

// sendAll issues every notification concurrently and waits for all of them.
// A failure never cancels the others; errors are combined.
func sendAll(ctx context.Context, n Notifier, items ...notification) ([]notificationResult, error) {
	results := make([]notificationResult, len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item notification) {
			defer wg.Done()
			id, err := n.Send(ctx, item.kind, item.recipient, item.data)
			if err != nil {
				err = fmt.Errorf("%s: %w", item.kind, err)
			}
			results[i] = notificationResult{kind: item.kind, messageID: id, err: err}
		}(i, item)
	}
	wg.Wait()

	var errs error
	for _, r := range results {
		errs = multierr.Append(errs, r.err)
	}
	return results, errs
}

func quoteLink(origin, quoteID string) string {
	return fmt.Sprintf("%s/quote/%s", origin, quoteID)
}

func formatAmount(major decimal.Decimal) string {
	return "$" + major.StringFixed(2)
}

func formatCents(cents int64) string {
	return formatAmount(decimal.New(cents, -2))
}
