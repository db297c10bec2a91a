package worker

import (
	"context"
	"sync"
	"time"

	"github.com/xavierca1/quote-payments/internal/logger"
	"github.com/xavierca1/quote-payments/internal/usecase"
)

// BackfillRunner performs one repair pass over orders missing an amount.
type BackfillRunner interface {
	Run(ctx context.Context) (*usecase.BackfillOutput, error)
}

// BackfillWorker repeats the order amount repair on a fixed interval.
type BackfillWorker struct {
	runner   BackfillRunner
	interval time.Duration
	wg       sync.WaitGroup
	quit     chan struct{}
	once     sync.Once
}

func NewBackfillWorker(runner BackfillRunner, interval time.Duration) *BackfillWorker {
	return &BackfillWorker{
		runner:   runner,
		interval: interval,
		quit:     make(chan struct{}),
	}
}

// Start runs one pass immediately, then one per interval, in the background.
func (w *BackfillWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

func (w *BackfillWorker) Stop() {
	w.once.Do(func() { close(w.quit) })
	w.wg.Wait()
}

func (w *BackfillWorker) run(ctx context.Context) {
	defer w.wg.Done()
	logger.Infow("backfill worker started", "interval", w.interval.String())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.pass(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("backfill worker stopped: context done")
			return
		case <-w.quit:
			logger.Info("backfill worker stopped")
			return
		case <-ticker.C:
			w.pass(ctx)
		}
	}
}

func (w *BackfillWorker) pass(ctx context.Context) {
	out, err := w.runner.Run(ctx)
	if err != nil {
		logger.Errorw("backfill pass failed", "error", err)
		return
	}
	if out.Scanned > 0 {
		logger.Infow("backfill pass", "scanned", out.Scanned, "updated", out.Updated, "failed", out.Failed)
	}
}
