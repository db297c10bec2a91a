package usecase

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xavierca1/quote-payments/internal/entity"
)

var (
	emailPattern    = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	currencyPattern = regexp.MustCompile(`^[a-z]{3}$`)
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateCreateQuoteInput checks the rules in the order they are reported;
// callers surface the first entry.
func ValidateCreateQuoteInput(input CreateQuoteInput) []ValidationError {
	var errors []ValidationError

	name := strings.TrimSpace(input.Name)
	if name == "" {
		errors = append(errors, ValidationError{"name", "is required"})
	} else if len(name) > 200 {
		errors = append(errors, ValidationError{"name", "must not exceed 200 characters"})
	}

	if !isValidEmail(input.Email) {
		errors = append(errors, ValidationError{"email", "must be a valid email address"})
	}

	if !entity.IsKnownServiceType(strings.TrimSpace(input.ServiceType)) {
		errors = append(errors, ValidationError{"service_type", "must be one of: " + strings.Join(entity.KnownServiceTypes(), ", ")})
	}

	if price, err := parsePrice(string(input.Price)); err != nil {
		errors = append(errors, ValidationError{"price", "must be a number"})
	} else if !price.IsPositive() {
		errors = append(errors, ValidationError{"price", "must be greater than 0"})
	}

	return errors
}

func isValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

func parsePrice(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(raw))
}

func isValidCurrency(currency string) bool {
	return currencyPattern.MatchString(currency)
}

// isJSONObject accepts an empty value or a JSON object.
func isJSONObject(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return true
	}
	var obj map[string]any
	return json.Unmarshal(raw, &obj) == nil && obj != nil
}

func firstValidationError(errs []ValidationError) *DomainError {
	if len(errs) == 0 {
		return nil
	}
	return validationError(errs[0].Error())
}
