package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xavierca1/quote-payments/internal/entity"
	"github.com/xavierca1/quote-payments/internal/infra/mail"
	"github.com/xavierca1/quote-payments/internal/infra/tracking"
	"github.com/xavierca1/quote-payments/internal/logger"
)

// CartReminderWindow is how long an email+session pair stays reminded.
const CartReminderWindow = time.Hour

var errAlreadyReminded = errors.New("reminder already sent inside the window")

type SendCartReminderUseCase struct {
	Reminders entity.CartReminderRepositoryInterface
	Notifier  Notifier
	Tracker   EventTracker
	Window    time.Duration
	Now       func() time.Time
}

func NewSendCartReminderUseCase(
	reminders entity.CartReminderRepositoryInterface,
	notifier Notifier,
	tracker EventTracker,
) *SendCartReminderUseCase {
	return &SendCartReminderUseCase{
		Reminders: reminders,
		Notifier:  notifier,
		Tracker:   tracker,
		Window:    CartReminderWindow,
		Now:       time.Now,
	}
}

// Execute reserves the reminder slot first and releases it again if the
// email cannot be sent, so a failed attempt does not block a retry.
func (uc *SendCartReminderUseCase) Execute(ctx context.Context, input SendCartReminderInput) (*SendCartReminderOutput, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !isValidEmail(email) {
		return nil, validationError("email: must be a valid email address")
	}
	sessionID := strings.TrimSpace(input.SessionID)
	if sessionID == "" {
		return nil, validationError("session_id: is required")
	}

	reminder := &entity.CartReminder{
		ID:        uuid.New().String(),
		Email:     email,
		SessionID: sessionID,
		SentAt:    uc.Now().UTC(),
	}

	var (
		reserved  bool
		messageID string
	)
	tx := NewTransaction()
	tx.AddStep("reserve reminder slot",
		func(ctx context.Context) error {
			ok, err := uc.Reminders.Reserve(ctx, reminder, uc.Window)
			if err != nil {
				return err
			}
			if !ok {
				return errAlreadyReminded
			}
			reserved = true
			return nil
		},
		func(ctx context.Context) error {
			return uc.Reminders.Release(ctx, reminder.ID)
		},
	)
	tx.AddStep("send reminder email",
		func(ctx context.Context) error {
			id, err := uc.Notifier.Send(ctx, mail.KindAbandonedCartResume, email, mail.TemplateData{
				Name:        strings.TrimSpace(input.Name),
				Email:       email,
				ServiceType: strings.TrimSpace(input.ServiceType),
				ResumeURL:   strings.TrimSpace(input.ResumeURL),
			})
			messageID = id
			return err
		},
		nil,
	)

	err := tx.Execute(ctx)
	switch {
	case errors.Is(err, errAlreadyReminded):
		logger.Infow("cart reminder skipped", "session_id", sessionID)
		return &SendCartReminderOutput{Skipped: true}, nil
	case err != nil && !reserved:
		return nil, &TechnicalError{Code: CodeDatabase, Message: "failed to reserve reminder", Err: err}
	case err != nil:
		return nil, &TechnicalError{Code: CodeNotification, Message: "failed to send reminder", Err: err}
	}

	if err := uc.Reminders.SetMessageID(ctx, reminder.ID, messageID); err != nil {
		logger.Warnw("failed to record reminder message id", "reminder_id", reminder.ID, "error", err)
	}

	uc.Tracker.Track(tracking.EventCartReminderSent, email, map[string]any{
		"session_id": sessionID,
		"message_id": messageID,
	})
	return &SendCartReminderOutput{Sent: true, MessageID: messageID}, nil
}
