package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/quote-payments/internal/infra/mail"
	"github.com/xavierca1/quote-payments/internal/infra/tracking"
)

func validQuoteInput() CreateQuoteInput {
	return CreateQuoteInput{
		Name:        "Jane Doe",
		Email:       "jane@x.com",
		ServiceType: "Certified Translation",
		Price:       "250.00",
		StaffID:     "staff-1",
	}
}

func TestCreateQuoteSuccess(t *testing.T) {
	repo := newMemQuoteRepo()
	notifier := new(MockNotifier)
	tracker := new(MockEventTracker)

	notifier.On("Send", mock.Anything, mail.KindQuoteConfirmation, "jane@x.com", mock.MatchedBy(func(d mail.TemplateData) bool {
		return d.Amount == "$250.00" && d.QuoteLink != ""
	})).Return("<c@test>", nil)
	notifier.On("Send", mock.Anything, mail.KindStaffNewQuoteAlert, "", mock.Anything).Return("<s@test>", nil)
	tracker.On("Track", tracking.EventQuoteCreated, "jane@x.com", mock.Anything).Return()

	uc := NewCreateQuoteUseCase(repo, notifier, tracker, "https://example.com", 24*time.Hour)
	out, err := uc.Execute(context.Background(), validQuoteInput())

	require.NoError(t, err)
	assert.Equal(t, "Pending", out.Status)
	assert.Equal(t, "https://example.com/quote/"+out.QuoteID, out.QuoteLink)
	assert.True(t, out.EmailSent)
	assert.Empty(t, out.Warning)

	stored := repo.get(out.QuoteID)
	require.NotNil(t, stored)
	assert.Equal(t, "250", stored.Price.String())
	assert.Equal(t, "staff-1", stored.StaffID)
	require.NotNil(t, stored.ExpiresAt)

	notifier.AssertExpectations(t)
	tracker.AssertExpectations(t)
}

func TestCreateQuoteRequiresStaff(t *testing.T) {
	repo := newMemQuoteRepo()
	uc := NewCreateQuoteUseCase(repo, &recordingNotifier{}, &recordingTracker{}, "https://example.com", 0)

	in := validQuoteInput()
	in.StaffID = ""
	_, err := uc.Execute(context.Background(), in)

	assert.Equal(t, CodeUnauthorized, ErrorCode(err))
	assert.Zero(t, repo.writes)
}

func TestCreateQuoteValidation(t *testing.T) {
	cases := map[string]struct {
		mutate func(*CreateQuoteInput)
		msg    string
	}{
		"empty name":        {func(in *CreateQuoteInput) { in.Name = "  " }, "name: is required"},
		"bad email":         {func(in *CreateQuoteInput) { in.Email = "not-an-email" }, "email: must be a valid email address"},
		"unknown service":   {func(in *CreateQuoteInput) { in.ServiceType = "Gardening" }, "service_type"},
		"non numeric price": {func(in *CreateQuoteInput) { in.Price = "abc" }, "price: must be a number"},
		"zero price":        {func(in *CreateQuoteInput) { in.Price = "0" }, "price: must be greater than 0"},
		"first error wins":  {func(in *CreateQuoteInput) { in.Email = "x"; in.Price = "-1" }, "email"},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			repo := newMemQuoteRepo()
			uc := NewCreateQuoteUseCase(repo, &recordingNotifier{}, &recordingTracker{}, "https://example.com", 0)

			in := validQuoteInput()
			c.mutate(&in)
			_, err := uc.Execute(context.Background(), in)

			require.Error(t, err)
			assert.Equal(t, CodeValidation, ErrorCode(err))
			assert.Contains(t, err.Error(), c.msg)
			assert.Zero(t, repo.writes)
		})
	}
}

func TestCreateQuoteDatabaseFailure(t *testing.T) {
	repo := newMemQuoteRepo()
	repo.createErr = errors.New("connection refused")
	notifier := &recordingNotifier{}
	uc := NewCreateQuoteUseCase(repo, notifier, &recordingTracker{}, "https://example.com", 0)

	_, err := uc.Execute(context.Background(), validQuoteInput())

	assert.Equal(t, CodeDatabase, ErrorCode(err))
	assert.True(t, IsTechnicalError(err))
	assert.Empty(t, notifier.kinds())
}

func TestCreateQuoteEmailFailureIsWarning(t *testing.T) {
	repo := newMemQuoteRepo()
	notifier := &recordingNotifier{fail: map[mail.Kind]error{
		mail.KindQuoteConfirmation: errors.New("smtp down"),
	}}
	uc := NewCreateQuoteUseCase(repo, notifier, &recordingTracker{}, "https://example.com", 0)

	out, err := uc.Execute(context.Background(), validQuoteInput())

	require.NoError(t, err)
	assert.False(t, out.EmailSent)
	assert.Equal(t, warnConfirmationEmail, out.Warning)
	assert.Equal(t, []mail.Kind{mail.KindStaffNewQuoteAlert}, notifier.kinds())
	assert.NotNil(t, repo.get(out.QuoteID))
}

func TestCreateQuoteStaffAlertFailureKeepsEmailSent(t *testing.T) {
	notifier := &recordingNotifier{fail: map[mail.Kind]error{
		mail.KindStaffNewQuoteAlert: errors.New("smtp down"),
	}}
	uc := NewCreateQuoteUseCase(newMemQuoteRepo(), notifier, &recordingTracker{}, "https://example.com", 0)

	out, err := uc.Execute(context.Background(), validQuoteInput())

	require.NoError(t, err)
	assert.True(t, out.EmailSent)
	assert.Empty(t, out.Warning)
}
