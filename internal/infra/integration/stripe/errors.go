package stripe

import (
	"errors"
	"fmt"

	stripeapi "github.com/stripe/stripe-go/v79"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

type ErrorKind string

const (
	ErrorKindCard           ErrorKind = "card"
	ErrorKindInvalidRequest ErrorKind = "invalid_request"
	ErrorKindProvider       ErrorKind = "provider"
)

// GatewayError is a processor failure reduced to what callers branch on.
type GatewayError struct {
	Kind       ErrorKind
	Code       string
	Message    string
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("stripe %s error (%s): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("stripe %s error: %s", e.Kind, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// classifyError maps SDK errors onto GatewayError. Anything that is not a
// typed API error (network, open breaker) counts as a provider failure.
func classifyError(err error) *GatewayError {
	if err == nil {
		return nil
	}
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge
	}

	var se *stripeapi.Error
	if errors.As(err, &se) {
		kind := ErrorKindProvider
		switch se.Type {
		case stripeapi.ErrorTypeCard:
			kind = ErrorKindCard
		case stripeapi.ErrorTypeInvalidRequest, stripeapi.ErrorTypeIdempotency:
			kind = ErrorKindInvalidRequest
		}
		return &GatewayError{
			Kind:       kind,
			Code:       string(se.Code),
			Message:    se.Msg,
			StatusCode: se.HTTPStatusCode,
			Err:        err,
		}
	}

	return &GatewayError{Kind: ErrorKindProvider, Message: err.Error(), Err: err}
}

// countsAsFailure keeps caller mistakes from tripping the breaker.
func countsAsFailure(err error) bool {
	if err == nil {
		return false
	}
	ge := classifyError(err)
	return ge.Kind == ErrorKindProvider
}
