package tracking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xavierca1/quote-payments/internal/infra/http/middleware"
	"github.com/xavierca1/quote-payments/internal/logger"
)

// Event names emitted by the workflow.
const (
	EventQuoteCreated         = "quote_created"
	EventPaymentIntentCreated = "payment_intent_created"
	EventPaymentCompleted     = "payment_completed"
	EventCartReminderSent     = "cart_reminder_sent"
)

type Event struct {
	ID         string         `json:"id"`
	Name       string         `json:"event"`
	DistinctID string         `json:"distinct_id"`
	Properties map[string]any `json:"properties,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Sink delivers one event to wherever analytics end up.
type Sink interface {
	Send(ctx context.Context, event Event) error
}

// NopSink discards events when no collector is configured.
type NopSink struct{}

func (NopSink) Send(context.Context, Event) error { return nil }

// Tracker hands events to a single background worker through a bounded
// buffer. Track never blocks: when the buffer is full the event is dropped.
type Tracker struct {
	sink        Sink
	events      chan Event
	errs        chan error
	sendTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewTracker(sink Sink, buffer int) *Tracker {
	if sink == nil {
		sink = NopSink{}
	}
	if buffer <= 0 {
		buffer = 1
	}
	return &Tracker{
		sink:        sink,
		events:      make(chan Event, buffer),
		errs:        make(chan error, buffer),
		sendTimeout: 5 * time.Second,
	}
}

// Start launches the delivery worker. ctx only bounds individual sends;
// Stop is what ends the worker.
func (t *Tracker) Start(ctx context.Context) {
	t.wg.Add(1)
	go t.run(ctx)
}

func (t *Tracker) Track(name, distinctID string, props map[string]any) {
	event := Event{
		ID:         uuid.New().String(),
		Name:       name,
		DistinctID: distinctID,
		Properties: props,
		Timestamp:  time.Now().UTC(),
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return
	}
	select {
	case t.events <- event:
	default:
		middleware.RecordAnalyticsDropped()
		logger.Warnw("analytics buffer full, event dropped", "event", name)
	}
}

// Errors reports delivery failures. It is closed after Stop returns.
func (t *Tracker) Errors() <-chan error {
	return t.errs
}

// Stop refuses new events, drains the buffer and waits for the worker.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	close(t.events)
	t.mu.Unlock()

	t.wg.Wait()
}

func (t *Tracker) run(ctx context.Context) {
	defer t.wg.Done()
	defer close(t.errs)

	for event := range t.events {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.sendTimeout)
		err := t.sink.Send(sendCtx, event)
		cancel()
		if err == nil {
			continue
		}
		middleware.RecordIntegrationError("analytics")
		select {
		case t.errs <- fmt.Errorf("deliver %s: %w", event.Name, err):
		default:
		}
	}
}
