package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/quote-payments/internal/infra/tracking"
	"github.com/xavierca1/quote-payments/internal/logger"
)

// Worker drains the analytics queue into the collector sink.
type Worker struct {
	Channel *amqp.Channel
	Sink    tracking.Sink
}

func NewWorker(ch *amqp.Channel, sink tracking.Sink) *Worker {
	return &Worker{
		Channel: ch,
		Sink:    sink,
	}
}

// Start consumes until ctx is cancelled or the channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	logger.Infow("analytics worker consuming", "queue", queueName)
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			w.handle(ctx, d)
		}
	}
}

// handle acks delivered events. Malformed payloads and collector failures are
// rejected without requeue so they land in the dead-letter queue.
func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var event tracking.Event
	if err := json.Unmarshal(d.Body, &event); err != nil {
		logger.Warnw("analytics worker: malformed message", "error", err)
		_ = d.Nack(false, false)
		return
	}

	if err := w.Sink.Send(ctx, event); err != nil {
		logger.Warnw("analytics worker: delivery failed", "event", event.Name, "error", err)
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}
