package usecase

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/quote-payments/internal/entity"
	"github.com/xavierca1/quote-payments/internal/infra/integration/stripe"
	"github.com/xavierca1/quote-payments/internal/infra/mail"
)

// MockPaymentGateway
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreatePaymentIntent(ctx context.Context, input stripe.CreateIntentInput) (*stripe.IntentOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.IntentOutput), args.Error(1)
}

func (m *MockPaymentGateway) RetrievePaymentIntent(ctx context.Context, id string) (*stripe.IntentOutput, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.IntentOutput), args.Error(1)
}

func (m *MockPaymentGateway) ParseWebhookEvent(payload []byte, signature string) (*stripe.PaymentEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.PaymentEvent), args.Error(1)
}

// MockNotifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, kind mail.Kind, recipient string, data mail.TemplateData) (string, error) {
	args := m.Called(ctx, kind, recipient, data)
	return args.String(0), args.Error(1)
}

// MockEventTracker
type MockEventTracker struct {
	mock.Mock
}

func (m *MockEventTracker) Track(name, distinctID string, props map[string]any) {
	m.Called(name, distinctID, props)
}

// MockDocumentStore
type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	args := m.Called(ctx, key, contentType, body)
	return args.String(0), args.Error(1)
}

// memQuoteRepo mirrors the database semantics of quotes, including the
// status compare-and-set.
type memQuoteRepo struct {
	mu        sync.Mutex
	quotes    map[string]*entity.Quote
	createErr error
	findErr   error
	writes    int
}

func newMemQuoteRepo() *memQuoteRepo {
	return &memQuoteRepo{quotes: map[string]*entity.Quote{}}
}

func (r *memQuoteRepo) Create(_ context.Context, q *entity.Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	cp := *q
	r.quotes[q.ID] = &cp
	r.writes++
	return nil
}

func (r *memQuoteRepo) FindByID(_ context.Context, id string) (*entity.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	q, ok := r.quotes[id]
	if !ok {
		return nil, entity.ErrQuoteNotFound
	}
	cp := *q
	return &cp, nil
}

func (r *memQuoteRepo) MarkPendingPayment(_ context.Context, id string, upd entity.PendingPaymentUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quotes[id]
	if !ok {
		return entity.ErrQuoteNotFound
	}
	if q.Status == entity.QuoteStatusPaid {
		return entity.ErrStatusConflict
	}
	q.Status = entity.QuoteStatusPendingPayment
	q.PaymentIntentID = upd.PaymentIntentID
	q.Price = upd.Price
	if len(upd.Services) > 0 {
		q.Services = append(json.RawMessage(nil), upd.Services...)
	}
	q.UpdatedAt = time.Now().UTC()
	r.writes++
	return nil
}

func (r *memQuoteRepo) UpdateStatus(_ context.Context, id string, from, to entity.QuoteStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quotes[id]
	if !ok {
		return entity.ErrQuoteNotFound
	}
	if q.Status != from {
		return entity.ErrStatusConflict
	}
	q.Status = to
	r.writes++
	return nil
}

func (r *memQuoteRepo) get(id string) *entity.Quote {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.quotes[id]
}

// memOrderRepo enforces one order per quote like the unique index does.
type memOrderRepo struct {
	mu        sync.Mutex
	nextID    int64
	orders    map[int64]*entity.Order
	byQuote   map[string]int64
	createErr error
	amountErr map[int64]error
	listCalls int
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{
		orders:    map[int64]*entity.Order{},
		byQuote:   map[string]int64{},
		amountErr: map[int64]error{},
	}
}

func (r *memOrderRepo) CreateFromQuote(_ context.Context, o *entity.Order) (*entity.Order, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, false, r.createErr
	}
	if o.QuoteID != nil {
		if id, ok := r.byQuote[*o.QuoteID]; ok {
			cp := *r.orders[id]
			return &cp, false, nil
		}
	}
	r.nextID++
	cp := *o
	cp.ID = r.nextID
	r.orders[cp.ID] = &cp
	if o.QuoteID != nil {
		r.byQuote[*o.QuoteID] = cp.ID
	}
	out := cp
	return &out, true, nil
}

func (r *memOrderRepo) FindByID(_ context.Context, id int64) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, entity.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *memOrderRepo) ListMissingAmounts(_ context.Context, afterID int64, limit int) ([]*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	var out []*entity.Order
	for id := afterID + 1; id <= r.nextID && len(out) < limit; id++ {
		o, ok := r.orders[id]
		if !ok || o.TotalAmount != nil || o.PaymentIntentID == "" {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memOrderRepo) SetTotalAmount(_ context.Context, id int64, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.amountErr[id]; err != nil {
		return err
	}
	o, ok := r.orders[id]
	if !ok {
		return entity.ErrOrderNotFound
	}
	if o.TotalAmount == nil {
		o.TotalAmount = &amount
	}
	return nil
}

func (r *memOrderRepo) AppendDocumentPath(_ context.Context, id int64, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return entity.ErrOrderNotFound
	}
	o.DocumentPaths = append(o.DocumentPaths, path)
	return nil
}

func (r *memOrderRepo) UpdateServices(_ context.Context, id int64, services entity.OrderServices) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return entity.ErrOrderNotFound
	}
	o.Services = services
	return nil
}

func (r *memOrderRepo) UpdateUrgency(_ context.Context, id int64, urgency entity.Urgency) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return entity.ErrOrderNotFound
	}
	o.Urgency = urgency
	return nil
}

// seed stores o as-is and returns its id.
func (r *memOrderRepo) seed(o *entity.Order) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	cp := *o
	cp.ID = r.nextID
	r.orders[cp.ID] = &cp
	if o.QuoteID != nil {
		r.byQuote[*o.QuoteID] = cp.ID
	}
	return cp.ID
}

func (r *memOrderRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

func (r *memOrderRepo) get(id int64) *entity.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[id]
}

type memReminderRepo struct {
	mu         sync.Mutex
	reminders  map[string]*entity.CartReminder
	reserveErr error
	released   []string
}

func newMemReminderRepo() *memReminderRepo {
	return &memReminderRepo{reminders: map[string]*entity.CartReminder{}}
}

func (r *memReminderRepo) Reserve(_ context.Context, rem *entity.CartReminder, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reserveErr != nil {
		return false, r.reserveErr
	}
	for _, existing := range r.reminders {
		if existing.Email == rem.Email && existing.SessionID == rem.SessionID && rem.SentAt.Sub(existing.SentAt) < window {
			return false, nil
		}
	}
	cp := *rem
	r.reminders[rem.ID] = &cp
	return true, nil
}

func (r *memReminderRepo) Release(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reminders, id)
	r.released = append(r.released, id)
	return nil
}

func (r *memReminderRepo) SetMessageID(_ context.Context, id, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rem, ok := r.reminders[id]; ok {
		rem.MessageID = messageID
	}
	return nil
}

func (r *memReminderRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reminders)
}

// recordingNotifier keeps every send; kinds listed in fail return an error.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	fail map[mail.Kind]error
}

type sentMail struct {
	kind      mail.Kind
	recipient string
	data      mail.TemplateData
}

func (n *recordingNotifier) Send(_ context.Context, kind mail.Kind, recipient string, data mail.TemplateData) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.fail[kind]; err != nil {
		return "", err
	}
	n.sent = append(n.sent, sentMail{kind: kind, recipient: recipient, data: data})
	return "<" + string(kind) + "@test>", nil
}

func (n *recordingNotifier) kinds() []mail.Kind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]mail.Kind, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.kind)
	}
	return out
}

type recordingTracker struct {
	mu     sync.Mutex
	events []string
	props  []map[string]any
}

func (t *recordingTracker) Track(name, _ string, props map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, name)
	t.props = append(t.props, props)
}

func (t *recordingTracker) names() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.events...)
}
