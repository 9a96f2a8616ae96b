package domain

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrInvalidPhoneFormat = errors.New("phone number must match 010-0000-0000")
	ErrInvalidPeriod      = errors.New("end date must be later than start date")
	ErrInvalidName        = errors.New("name must not be empty")
	ErrMissingStartDate   = errors.New("start date is required")
	ErrInvalidSuffix      = errors.New("last four digits of the phone number are required")
)

var phonePattern = regexp.MustCompile(`^010-[0-9]{4}-[0-9]{4}$`)

func ValidatePhone(value string) (string, error) {
	if !phonePattern.MatchString(value) {
		return value, ErrInvalidPhoneFormat
	}
	return value, nil
}

// ValidatePeriod accepts a nil end (unlimited membership); otherwise end
// must fall strictly after start.
func ValidatePeriod(start, end *Date) error {
	if end == nil {
		return nil
	}
	if start == nil || !end.After(*start) {
		return ErrInvalidPeriod
	}
	return nil
}

func ValidateName(value string) (string, error) {
	name := strings.TrimSpace(value)
	if name == "" {
		return name, ErrInvalidName
	}
	return name, nil
}

func ValidateSuffix(digits string) error {
	if len(digits) != 4 {
		return ErrInvalidSuffix
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return ErrInvalidSuffix
		}
	}
	return nil
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	err     error
}

// ValidationError collects every invalid field of a request. errors.Is
// matches any of the underlying field errors.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) add(field string, err error) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: err.Error(), err: err})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Fields))
	for _, f := range e.Fields {
		errs = append(errs, f.err)
	}
	return errs
}
