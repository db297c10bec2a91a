package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xavierca1/quote-payments/internal/entity"
)

type QuoteRepository struct {
	DB *sql.DB
}

func NewQuoteRepository(db *sql.DB) *QuoteRepository {
	return &QuoteRepository{DB: db}
}

const quoteColumns = `id, name, email, service_type, price, status, staff_id,
	stripe_payment_intent_id, services, expires_at, created_at, updated_at`

func (r *QuoteRepository) Create(ctx context.Context, q *entity.Quote) error {
	query := `
		INSERT INTO quotes (id, name, email, service_type, price, status, staff_id,
			expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.DB.ExecContext(ctx, query,
		q.ID,
		q.Name,
		q.Email,
		q.ServiceType,
		q.Price,
		string(q.Status),
		nullString(q.StaffID),
		q.ExpiresAt,
		q.CreatedAt,
		q.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert quote: %w", err)
	}
	return nil
}

func (r *QuoteRepository) FindByID(ctx context.Context, id string) (*entity.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE id = $1`

	var (
		q        entity.Quote
		status   string
		staffID  sql.NullString
		intentID sql.NullString
		services []byte
		expires  sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&q.ID,
		&q.Name,
		&q.Email,
		&q.ServiceType,
		&q.Price,
		&status,
		&staffID,
		&intentID,
		&services,
		&expires,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrQuoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select quote: %w", err)
	}

	q.Status = entity.QuoteStatus(status)
	q.StaffID = staffID.String
	q.PaymentIntentID = intentID.String
	if len(services) > 0 {
		q.Services = services
	}
	if expires.Valid {
		t := expires.Time
		q.ExpiresAt = &t
	}
	return &q, nil
}

// MarkPendingPayment records a newly issued intent. A Paid quote is never
// touched and an existing intent id is only ever replaced, never cleared.
func (r *QuoteRepository) MarkPendingPayment(ctx context.Context, id string, upd entity.PendingPaymentUpdate) error {
	query := `
		UPDATE quotes SET
			stripe_payment_intent_id = COALESCE($2, stripe_payment_intent_id),
			status = $3,
			price = $4,
			services = COALESCE($5::jsonb, services),
			updated_at = NOW()
		WHERE id = $1 AND status <> $6
	`
	var services any
	if len(upd.Services) > 0 {
		services = string(upd.Services)
	}

	res, err := r.DB.ExecContext(ctx, query,
		id,
		nullString(upd.PaymentIntentID),
		string(entity.QuoteStatusPendingPayment),
		upd.Price,
		services,
		string(entity.QuoteStatusPaid),
	)
	if err != nil {
		return fmt.Errorf("update quote: %w", err)
	}
	return r.checkAffected(ctx, id, res)
}

func (r *QuoteRepository) UpdateStatus(ctx context.Context, id string, from, to entity.QuoteStatus) error {
	query := `UPDATE quotes SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`

	res, err := r.DB.ExecContext(ctx, query, id, string(from), string(to))
	if err != nil {
		return fmt.Errorf("update quote status: %w", err)
	}
	return r.checkAffected(ctx, id, res)
}

// checkAffected tells a missing quote apart from a lost compare-and-set.
func (r *QuoteRepository) checkAffected(ctx context.Context, id string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var exists bool
	if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM quotes WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check quote: %w", err)
	}
	if !exists {
		return entity.ErrQuoteNotFound
	}
	return entity.ErrStatusConflict
}
