package usecase

import "errors"

const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeQuoteNotFound     = "QUOTE_NOT_FOUND"
	CodeOrderNotFound     = "ORDER_NOT_FOUND"
	CodeQuoteAlreadyPaid  = "QUOTE_ALREADY_PAID"
	CodeQuoteExpired      = "QUOTE_EXPIRED"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeCardError         = "CARD_ERROR"
	CodePaymentRequest    = "PAYMENT_REQUEST_INVALID"
	CodeInvalidSignature  = "INVALID_SIGNATURE"

	CodeDatabase          = "DATABASE_ERROR"
	CodePaymentProvider   = "PAYMENT_PROVIDER_ERROR"
	CodeFulfillmentFailed = "FULFILLMENT_FAILED"
	CodeConfig            = "CONFIG_ERROR"
	CodeStorage           = "STORAGE_ERROR"
	CodeNotification      = "NOTIFICATION_FAILED"
)

// DomainError is a rejection the caller can act on (bad input, wrong state, auth).
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError is a failure of a dependency on the critical path.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

// ErrorCode extracts the code of a DomainError or TechnicalError, or "".
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	var te *TechnicalError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

func validationError(msg string) *DomainError {
	return &DomainError{Code: CodeValidation, Message: msg}
}
