package handlers

import (
	"io"
	"net/http"

	"github.com/xavierca1/quote-payments/internal/infra/http/middleware"
	"github.com/xavierca1/quote-payments/internal/usecase"
)

// Stripe caps event payloads well below this.
const maxWebhookBody = 64 << 10

const signatureHeader = "Stripe-Signature"

type WebhookHandler struct {
	ProcessPaymentEventUC *usecase.ProcessPaymentEventUseCase
}

func NewWebhookHandler(uc *usecase.ProcessPaymentEventUseCase) *WebhookHandler {
	return &WebhookHandler{ProcessPaymentEventUC: uc}
}

// Handle serves POST /webhooks/stripe. The raw body is required for the
// signature check, so it is read as-is and never decoded here.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, "unreadable webhook body")
		return
	}

	output, err := h.ProcessPaymentEventUC.Execute(r.Context(), usecase.ProcessPaymentEventInput{
		Payload:   payload,
		Signature: r.Header.Get(signatureHeader),
	})
	if err != nil {
		if usecase.IsTechnicalError(err) {
			middleware.RecordOrderFulfilled("failed")
		}
		writeUseCaseError(w, r, err)
		return
	}

	switch {
	case output.Duplicate:
		middleware.RecordOrderFulfilled("duplicate")
	case output.OrderID != 0:
		middleware.RecordOrderFulfilled("created")
	}
	writeJSON(w, http.StatusOK, output)
}
