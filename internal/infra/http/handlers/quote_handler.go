package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/quote-payments/internal/infra/http/middleware"
	"github.com/xavierca1/quote-payments/internal/usecase"
)

type QuoteHandler struct {
	CreateQuoteUC     *usecase.CreateQuoteUseCase
	GetQuoteUC        *usecase.GetQuoteUseCase
	SendPaymentLinkUC *usecase.SendPaymentLinkUseCase
}

func NewQuoteHandler(
	create *usecase.CreateQuoteUseCase,
	get *usecase.GetQuoteUseCase,
	sendLink *usecase.SendPaymentLinkUseCase,
) *QuoteHandler {
	return &QuoteHandler{
		CreateQuoteUC:     create,
		GetQuoteUC:        get,
		SendPaymentLinkUC: sendLink,
	}
}

// Create handles POST /quotes (staff).
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreateQuoteInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.StaffID = middleware.StaffID(r.Context())

	output, err := h.CreateQuoteUC.Execute(r.Context(), input)
	if err != nil {
		writeUseCaseError(w, r, err)
		return
	}

	middleware.RecordQuoteCreated()
	writeJSON(w, http.StatusCreated, output)
}

// Get handles GET /quotes/{id}.
func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.GetQuoteUC.Execute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeUseCaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SendPaymentLink handles POST /quotes/{id}/payment-link (staff).
func (h *QuoteHandler) SendPaymentLink(w http.ResponseWriter, r *http.Request) {
	output, err := h.SendPaymentLinkUC.Execute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeUseCaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}
