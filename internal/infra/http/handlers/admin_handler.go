package handlers

import (
	"net/http"

	"github.com/xavierca1/quote-payments/internal/usecase"
)

const runSecretHeader = "X-Run-Secret"

type AdminHandler struct {
	BackfillUC *usecase.BackfillOrderAmountsUseCase
}

func NewAdminHandler(uc *usecase.BackfillOrderAmountsUseCase) *AdminHandler {
	return &AdminHandler{BackfillUC: uc}
}

// BackfillOrderAmounts serves POST /admin/backfill-order-amounts.
func (h *AdminHandler) BackfillOrderAmounts(w http.ResponseWriter, r *http.Request) {
	output, err := h.BackfillUC.Execute(r.Context(), usecase.BackfillInput{
		RunSecret: r.Header.Get(runSecretHeader),
	})
	if err != nil {
		writeUseCaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}
