package database

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/quote-payments/internal/entity"
)

// openTestDB runs against TEST_DATABASE_URL and skips when it is unset.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := NewDBConnection(dsn)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestQuote(t *testing.T, repo *QuoteRepository) *entity.Quote {
	t.Helper()
	q := entity.NewQuote("Jane Doe", "jane+"+uuid.NewString()[:8]+"@x.com", entity.ServiceCertifiedTranslation,
		decimal.RequireFromString("250.00"), "staff-1", time.Hour)
	require.NoError(t, repo.Create(context.Background(), q))
	return q
}

func TestQuoteRepositoryLifecycle(t *testing.T) {
	db := openTestDB(t)
	repo := NewQuoteRepository(db)
	ctx := context.Background()

	q := newTestQuote(t, repo)

	got, err := repo.FindByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.QuoteStatusPending, got.Status)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("250")))

	require.NoError(t, repo.MarkPendingPayment(ctx, q.ID, entity.PendingPaymentUpdate{
		PaymentIntentID: "pi_1",
		Price:           decimal.RequireFromString("250.00"),
	}))
	require.NoError(t, repo.UpdateStatus(ctx, q.ID, entity.QuoteStatusPendingPayment, entity.QuoteStatusPaid))

	err = repo.UpdateStatus(ctx, q.ID, entity.QuoteStatusPendingPayment, entity.QuoteStatusPaid)
	assert.ErrorIs(t, err, entity.ErrStatusConflict)

	err = repo.MarkPendingPayment(ctx, q.ID, entity.PendingPaymentUpdate{Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, entity.ErrStatusConflict)

	got, err = repo.FindByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.QuoteStatusPaid, got.Status)
	assert.Equal(t, "pi_1", got.PaymentIntentID)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, entity.ErrQuoteNotFound)
}

func TestOrderRepositoryCreateFromQuoteIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	quotes := NewQuoteRepository(db)
	orders := NewOrderRepository(db)
	ctx := context.Background()

	q := newTestQuote(t, quotes)

	first, created, err := orders.CreateFromQuote(ctx, entity.NewOrderFromQuote(q, "pi_1"))
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := orders.CreateFromQuote(ctx, entity.NewOrderFromQuote(q, "pi_1"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, q.ID, second.Services.OriginalQuoteID())
	require.NotNil(t, second.TotalAmount)
	assert.Equal(t, int64(25000), *second.TotalAmount)

	require.NoError(t, orders.AppendDocumentPath(ctx, first.ID, "orders/1/passport.pdf"))
	require.NoError(t, orders.UpdateUrgency(ctx, first.ID, entity.UrgencyRush))

	got, err := orders.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"orders/1/passport.pdf"}, got.DocumentPaths)
	assert.Equal(t, entity.UrgencyRush, got.Urgency)
}

func TestCartReminderRepositoryWindow(t *testing.T) {
	db := openTestDB(t)
	repo := NewCartReminderRepository(db)
	ctx := context.Background()
	session := uuid.NewString()

	first := &entity.CartReminder{ID: uuid.NewString(), Email: "jane@x.com", SessionID: session, SentAt: time.Now()}
	ok, err := repo.Reserve(ctx, first, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	second := &entity.CartReminder{ID: uuid.NewString(), Email: "jane@x.com", SessionID: session, SentAt: time.Now()}
	ok, err = repo.Reserve(ctx, second, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Release(ctx, first.ID))
	ok, err = repo.Reserve(ctx, second, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOrderRepositoryListMissingAmountsPagesByID(t *testing.T) {
	db := openTestDB(t)
	quotes := NewQuoteRepository(db)
	orders := NewOrderRepository(db)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 2; i++ {
		o := entity.NewOrderFromQuote(newTestQuote(t, quotes), "pi_backfill")
		o.TotalAmount = nil
		created, _, err := orders.CreateFromQuote(ctx, o)
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	page, err := orders.ListMissingAmounts(ctx, ids[0], 100)
	require.NoError(t, err)
	for _, o := range page {
		assert.Greater(t, o.ID, ids[0])
		assert.Nil(t, o.TotalAmount)
	}
	require.NotEmpty(t, page)
	assert.Equal(t, ids[1], page[0].ID)
}
