package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/quote-payments/internal/infra/http/middleware"
	"github.com/xavierca1/quote-payments/internal/usecase"
)

// CheckoutHandler issues payment intents for the public quote page.
type CheckoutHandler struct {
	CreatePaymentIntentUC *usecase.CreatePaymentIntentUseCase
}

func NewCheckoutHandler(uc *usecase.CreatePaymentIntentUseCase) *CheckoutHandler {
	return &CheckoutHandler{CreatePaymentIntentUC: uc}
}

// Handle serves POST /quotes/{id}/payment-intent.
func (h *CheckoutHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreatePaymentIntentInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.QuoteID = chi.URLParam(r, "id")

	output, err := h.CreatePaymentIntentUC.Execute(r.Context(), input)
	if err != nil {
		middleware.RecordPaymentIntent("failed")
		writeUseCaseError(w, r, err)
		return
	}

	middleware.RecordPaymentIntent("created")
	writeJSON(w, http.StatusOK, output)
}
