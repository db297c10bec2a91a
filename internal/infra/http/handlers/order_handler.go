package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/quote-payments/internal/entity"
	"github.com/xavierca1/quote-payments/internal/infra/storage"
	"github.com/xavierca1/quote-payments/internal/usecase"
)

const documentField = "file"

type OrderHandler struct {
	OrdersUC *usecase.OrderMaintenanceUseCase
}

func NewOrderHandler(uc *usecase.OrderMaintenanceUseCase) *OrderHandler {
	return &OrderHandler{OrdersUC: uc}
}

// Get serves GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	order, err := h.OrdersUC.Get(r.Context(), id)
	if err != nil {
		writeUseCaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// AttachDocument serves POST /orders/{id}/documents as multipart/form-data.
func (h *OrderHandler) AttachDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxDocumentSize+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile(documentField)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, "file: is required")
		return
	}
	defer file.Close()

	output, err := h.OrdersUC.AttachDocument(r.Context(), usecase.AttachDocumentInput{
		OrderID:     id,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if errors.Is(err, storage.ErrDocumentTooLarge) {
		writeErrorResponse(w, http.StatusRequestEntityTooLarge, usecase.CodeValidation, "file: is too large")
		return
	}
	if err != nil {
		writeUseCaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, output)
}

// ReplaceServices serves PUT /orders/{id}/services.
func (h *OrderHandler) ReplaceServices(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var services entity.OrderServices
	if !decodeJSON(w, r, &services) {
		return
	}

	order, err := h.OrdersUC.ReplaceServices(r.Context(), id, services)
	if err != nil {
		writeUseCaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// UpdateUrgency serves PUT /orders/{id}/urgency.
func (h *OrderHandler) UpdateUrgency(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var input struct {
		Urgency entity.Urgency `json:"urgency"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}

	order, err := h.OrdersUC.UpdateUrgency(r.Context(), id, input.Urgency)
	if err != nil {
		writeUseCaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, "order id must be a positive integer")
		return 0, false
	}
	return id, true
}
