package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/quote-payments/internal/entity"
	"github.com/xavierca1/quote-payments/internal/infra/integration/stripe"
)

func TestBackfillRequiresConfiguredSecret(t *testing.T) {
	gateway := new(MockPaymentGateway)
	uc := NewBackfillOrderAmountsUseCase(newMemOrderRepo(), gateway, "")

	_, err := uc.Execute(context.Background(), BackfillInput{RunSecret: "anything"})

	assert.Equal(t, CodeConfig, ErrorCode(err))
	gateway.AssertNotCalled(t, "RetrievePaymentIntent", mock.Anything, mock.Anything)
}

func TestBackfillRejectsWrongSecret(t *testing.T) {
	gateway := new(MockPaymentGateway)
	uc := NewBackfillOrderAmountsUseCase(newMemOrderRepo(), gateway, "s3cret")

	for _, secret := range []string{"", "wrong", "s3cret "} {
		_, err := uc.Execute(context.Background(), BackfillInput{RunSecret: secret})
		assert.Equal(t, CodeUnauthorized, ErrorCode(err), secret)
	}
	gateway.AssertNotCalled(t, "RetrievePaymentIntent", mock.Anything, mock.Anything)
}

func TestBackfillIsolatesRowFailures(t *testing.T) {
	orders := newMemOrderRepo()
	amount := int64(1000)
	good := orders.seed(&entity.Order{PaymentIntentID: "pi_good"})
	bad := orders.seed(&entity.Order{PaymentIntentID: "pi_bad"})
	failingWrite := orders.seed(&entity.Order{PaymentIntentID: "pi_write"})
	orders.seed(&entity.Order{PaymentIntentID: "pi_done", TotalAmount: &amount})
	orders.seed(&entity.Order{})
	orders.amountErr[failingWrite] = errors.New("lock timeout")

	gateway := new(MockPaymentGateway)
	gateway.On("RetrievePaymentIntent", mock.Anything, "pi_good").Return(&stripe.IntentOutput{ID: "pi_good", Amount: 9900}, nil)
	gateway.On("RetrievePaymentIntent", mock.Anything, "pi_bad").Return(nil, &stripe.GatewayError{Kind: stripe.ErrorKindInvalidRequest, Message: "No such payment_intent"})
	gateway.On("RetrievePaymentIntent", mock.Anything, "pi_write").Return(&stripe.IntentOutput{ID: "pi_write", Amount: 500}, nil)

	uc := NewBackfillOrderAmountsUseCase(orders, gateway, "s3cret")
	out, err := uc.Execute(context.Background(), BackfillInput{RunSecret: "s3cret"})

	require.NoError(t, err)
	assert.Equal(t, 3, out.Scanned)
	assert.Equal(t, 1, out.Updated)
	assert.Equal(t, 2, out.Failed)
	require.Len(t, out.Errors, 2)
	assert.Equal(t, bad, out.Errors[0].OrderID)
	assert.Contains(t, out.Errors[0].Error, "No such payment_intent")
	assert.Equal(t, failingWrite, out.Errors[1].OrderID)

	assert.Equal(t, int64(9900), *orders.get(good).TotalAmount)
	assert.Nil(t, orders.get(bad).TotalAmount)
	gateway.AssertNotCalled(t, "RetrievePaymentIntent", mock.Anything, "pi_done")
}

func TestBackfillPagesPastRowsThatKeepFailing(t *testing.T) {
	orders := newMemOrderRepo()
	first := orders.seed(&entity.Order{PaymentIntentID: "pi_missing"})
	second := orders.seed(&entity.Order{PaymentIntentID: "pi_missing"})
	fillable := orders.seed(&entity.Order{PaymentIntentID: "pi_backfill"})

	gateway := new(MockPaymentGateway)
	gateway.On("RetrievePaymentIntent", mock.Anything, "pi_missing").Return(nil, &stripe.GatewayError{Kind: stripe.ErrorKindInvalidRequest, Message: "No such payment_intent"})
	gateway.On("RetrievePaymentIntent", mock.Anything, "pi_backfill").Return(&stripe.IntentOutput{ID: "pi_backfill", Amount: 4200}, nil)

	uc := NewBackfillOrderAmountsUseCase(orders, gateway, "s3cret")
	uc.BatchSize = 2

	out, err := uc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, out.Scanned)
	assert.Equal(t, 1, out.Updated)
	assert.Equal(t, 2, out.Failed)
	assert.Equal(t, []int64{first, second}, []int64{out.Errors[0].OrderID, out.Errors[1].OrderID})
	require.NotNil(t, orders.get(fillable).TotalAmount)
	assert.Equal(t, int64(4200), *orders.get(fillable).TotalAmount)
	assert.Equal(t, 2, orders.listCalls)

	again, err := uc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, again.Scanned)
	assert.Equal(t, 0, again.Updated)
}

func TestBackfillNothingToDo(t *testing.T) {
	uc := NewBackfillOrderAmountsUseCase(newMemOrderRepo(), new(MockPaymentGateway), "s3cret")

	out, err := uc.Execute(context.Background(), BackfillInput{RunSecret: "s3cret"})

	require.NoError(t, err)
	assert.Equal(t, &BackfillOutput{Errors: []BackfillRowError{}}, out)
}
