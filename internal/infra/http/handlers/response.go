package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/xavierca1/quote-payments/internal/logger"
	"github.com/xavierca1/quote-payments/internal/usecase"
)

const maxJSONBody = 1 << 20

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var statusByCode = map[string]int{
	usecase.CodeValidation:        http.StatusBadRequest,
	usecase.CodePaymentRequest:    http.StatusBadRequest,
	usecase.CodeInvalidSignature:  http.StatusBadRequest,
	usecase.CodeUnauthorized:      http.StatusUnauthorized,
	usecase.CodeCardError:         http.StatusPaymentRequired,
	usecase.CodeQuoteNotFound:     http.StatusNotFound,
	usecase.CodeOrderNotFound:     http.StatusNotFound,
	usecase.CodeQuoteAlreadyPaid:  http.StatusConflict,
	usecase.CodeQuoteExpired:      http.StatusConflict,
	usecase.CodeInvalidTransition: http.StatusConflict,
	usecase.CodeDatabase:          http.StatusInternalServerError,
	usecase.CodeFulfillmentFailed: http.StatusInternalServerError,
	usecase.CodeConfig:            http.StatusInternalServerError,
	usecase.CodeStorage:           http.StatusInternalServerError,
	usecase.CodePaymentProvider:   http.StatusBadGateway,
	usecase.CodeNotification:      http.StatusBadGateway,
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warnw("failed to encode response", "error", err)
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// writeUseCaseError maps the use case error model onto HTTP. Technical
// failures are logged with their cause; the client only sees the message.
func writeUseCaseError(w http.ResponseWriter, r *http.Request, err error) {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		writeErrorResponse(w, statusFor(de.Code), de.Code, de.Message)
		return
	}

	var te *usecase.TechnicalError
	if errors.As(err, &te) {
		logger.Errorw("request failed", "method", r.Method, "path", r.URL.Path, "code", te.Code, "error", te.Error())
		writeErrorResponse(w, statusFor(te.Code), te.Code, te.Message)
		return
	}

	logger.Errorw("unexpected error", "method", r.Method, "path", r.URL.Path, "error", err)
	writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

func statusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// decodeJSON rejects bodies that are not a single JSON value of the target shape.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		msg := "invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, msg)
		return false
	}
	return true
}
