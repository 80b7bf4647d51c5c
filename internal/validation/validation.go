package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error describes an invalid input field
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// AsError returns the validation error wrapped in err, if any
func AsError(err error) (*Error, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

func invalid(field, format string, args ...interface{}) error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Required checks that a field is not blank
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "%s is required", field)
	}
	return nil
}

// IntRange checks min <= value <= max
func IntRange(field string, value, min, max int) error {
	if value < min || value > max {
		return invalid(field, "%s must be between %d and %d", field, min, max)
	}
	return nil
}

// NonNegative checks value >= 0
func NonNegative(field string, value int) error {
	if value < 0 {
		return invalid(field, "%s must not be negative", field)
	}
	return nil
}

// OneOf checks that value is one of allowed
func OneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return invalid(field, "%s must be one of %s", field, strings.Join(allowed, ", "))
}

// Date checks a YYYY-MM-DD calendar date
func Date(field, value string) error {
	if err := Required(field, value); err != nil {
		return err
	}
	if _, err := time.Parse("2006-01-02", strings.TrimSpace(value)); err != nil {
		return invalid(field, "%s must be a date in YYYY-MM-DD format", field)
	}
	return nil
}

// First returns the first non-nil error
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
