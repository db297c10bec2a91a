package usecase

import (
	"context"
	"fmt"

	"github.com/xavierca1/quote-payments/internal/logger"
)

// Transaction runs steps in order and, when one fails, undoes the steps
// that already succeeded in reverse order.
type Transaction struct {
	steps []Step
}

type Step struct {
	Name       string
	Fn         func(context.Context) error
	Compensate func(context.Context) error
}

func NewTransaction() *Transaction {
	return &Transaction{}
}

// AddStep appends a step. compensate may be nil when there is nothing to undo.
func (t *Transaction) AddStep(name string, fn, compensate func(context.Context) error) {
	t.steps = append(t.steps, Step{Name: name, Fn: fn, Compensate: compensate})
}

// Execute returns the failing step's error wrapped with its name, so callers
// can still match sentinel errors with errors.Is.
func (t *Transaction) Execute(ctx context.Context) error {
	for i, step := range t.steps {
		if err := step.Fn(ctx); err != nil {
			t.rollback(ctx, i)
			return fmt.Errorf("step '%s' failed: %w", step.Name, err)
		}
	}
	return nil
}

func (t *Transaction) rollback(ctx context.Context, failedAt int) {
	for i := failedAt - 1; i >= 0; i-- {
		step := t.steps[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(context.WithoutCancel(ctx)); err != nil {
			logger.Errorw("compensation failed", "step", step.Name, "error", err)
		}
	}
}
