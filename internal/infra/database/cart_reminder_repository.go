package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xavierca1/quote-payments/internal/entity"
)

type CartReminderRepository struct {
	DB *sql.DB
}

func NewCartReminderRepository(db *sql.DB) *CartReminderRepository {
	return &CartReminderRepository{DB: db}
}

// Reserve inserts r unless a reminder for the same email and session was sent
// inside window. An advisory lock serializes concurrent reservations of a slot.
func (r *CartReminderRepository) Reserve(ctx context.Context, reminder *entity.CartReminder, window time.Duration) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1 || ':' || $2))`,
		reminder.Email, reminder.SessionID); err != nil {
		return false, fmt.Errorf("lock reminder slot: %w", err)
	}

	query := `
		INSERT INTO cart_reminders (id, email, session_id, sent_at)
		SELECT $1, $2, $3, $4
		WHERE NOT EXISTS (
			SELECT 1 FROM cart_reminders
			WHERE email = $2 AND session_id = $3 AND sent_at > $4::timestamptz - $5 * INTERVAL '1 second'
		)
	`
	res, err := tx.ExecContext(ctx, query,
		reminder.ID,
		reminder.Email,
		reminder.SessionID,
		reminder.SentAt,
		window.Seconds(),
	)
	if err != nil {
		return false, fmt.Errorf("insert reminder: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return n == 1, nil
}

func (r *CartReminderRepository) Release(ctx context.Context, id string) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM cart_reminders WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return nil
}

func (r *CartReminderRepository) SetMessageID(ctx context.Context, id, messageID string) error {
	if _, err := r.DB.ExecContext(ctx, `UPDATE cart_reminders SET message_id = $2 WHERE id = $1`, id, messageID); err != nil {
		return fmt.Errorf("update reminder: %w", err)
	}
	return nil
}
