package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/xavierca1/quote-payments/internal/entity"
)

type OrderRepository struct {
	DB *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{DB: db}
}

const orderColumns = `id, first_name, last_name, email, phone, services, status, total_amount,
	stripe_payment_intent_id, document_paths::text, urgency, quote_id, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*entity.Order, error) {
	var (
		o        entity.Order
		phone    sql.NullString
		services []byte
		total    sql.NullInt64
		intentID sql.NullString
		paths    []string
		urgency  string
		quoteID  sql.NullString
	)
	err := row.Scan(
		&o.ID,
		&o.FirstName,
		&o.LastName,
		&o.Email,
		&phone,
		&services,
		&o.Status,
		&total,
		&intentID,
		pq.Array(&paths),
		&urgency,
		&quoteID,
		&o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.Phone = phone.String
	o.PaymentIntentID = intentID.String
	o.Urgency = entity.Urgency(urgency)
	o.DocumentPaths = paths
	if o.DocumentPaths == nil {
		o.DocumentPaths = []string{}
	}
	if total.Valid {
		v := total.Int64
		o.TotalAmount = &v
	}
	if quoteID.Valid {
		v := quoteID.String
		o.QuoteID = &v
	}
	o.Services = entity.OrderServices{}
	if len(services) > 0 {
		if err := json.Unmarshal(services, &o.Services); err != nil {
			return nil, fmt.Errorf("decode services: %w", err)
		}
	}
	return &o, nil
}

// CreateFromQuote relies on the unique quote_id column: a redelivered
// payment event finds the first order instead of inserting a second one.
func (r *OrderRepository) CreateFromQuote(ctx context.Context, o *entity.Order) (*entity.Order, bool, error) {
	services, err := json.Marshal(o.Services)
	if err != nil {
		return nil, false, fmt.Errorf("encode services: %w", err)
	}

	query := `
		INSERT INTO orders (first_name, last_name, email, phone, services, status, total_amount,
			stripe_payment_intent_id, document_paths, urgency, quote_id, created_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (quote_id) DO NOTHING
		RETURNING id
	`
	err = r.DB.QueryRowContext(ctx, query,
		o.FirstName,
		o.LastName,
		o.Email,
		nullString(o.Phone),
		string(services),
		o.Status,
		o.TotalAmount,
		nullString(o.PaymentIntentID),
		pq.Array(o.DocumentPaths),
		string(o.Urgency),
		o.QuoteID,
		o.CreatedAt,
	).Scan(&o.ID)

	if err == nil {
		return o, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) && !isUniqueViolation(err) {
		return nil, false, fmt.Errorf("insert order: %w", err)
	}
	if o.QuoteID == nil {
		return nil, false, fmt.Errorf("insert order: %w", err)
	}

	existing, err := scanOrder(r.DB.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE quote_id = $1`, *o.QuoteID))
	if err != nil {
		return nil, false, fmt.Errorf("select existing order: %w", err)
	}
	return existing, false, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*entity.Order, error) {
	o, err := scanOrder(r.DB.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select order: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) ListMissingAmounts(ctx context.Context, afterID int64, limit int) ([]*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
		WHERE total_amount IS NULL AND stripe_payment_intent_id IS NOT NULL AND id > $1
		ORDER BY id
		LIMIT $2`

	rows, err := r.DB.QueryContext(ctx, query, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []*entity.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// SetTotalAmount only fills a missing amount; it never overwrites one.
func (r *OrderRepository) SetTotalAmount(ctx context.Context, id int64, amount int64) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE orders SET total_amount = $2 WHERE id = $1 AND total_amount IS NULL`, id, amount)
	if err != nil {
		return fmt.Errorf("update total amount: %w", err)
	}
	return r.requireRow(ctx, id, res)
}

func (r *OrderRepository) AppendDocumentPath(ctx context.Context, id int64, path string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE orders SET document_paths = array_append(document_paths, $2) WHERE id = $1`, id, path)
	if err != nil {
		return fmt.Errorf("append document path: %w", err)
	}
	return r.requireRow(ctx, id, res)
}

func (r *OrderRepository) UpdateServices(ctx context.Context, id int64, services entity.OrderServices) error {
	raw, err := json.Marshal(services)
	if err != nil {
		return fmt.Errorf("encode services: %w", err)
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE orders SET services = $2::jsonb WHERE id = $1`, id, string(raw))
	if err != nil {
		return fmt.Errorf("update services: %w", err)
	}
	return r.requireRow(ctx, id, res)
}

func (r *OrderRepository) UpdateUrgency(ctx context.Context, id int64, urgency entity.Urgency) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE orders SET urgency = $2 WHERE id = $1`, id, string(urgency))
	if err != nil {
		return fmt.Errorf("update urgency: %w", err)
	}
	return r.requireRow(ctx, id, res)
}

func (r *OrderRepository) requireRow(ctx context.Context, id int64, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists bool
	if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check order: %w", err)
	}
	if !exists {
		return entity.ErrOrderNotFound
	}
	return nil
}
