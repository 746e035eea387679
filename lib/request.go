package lib

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// FieldError represents a clean validation error for APIs
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is a structured validation error
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// Unwrap lets callers match request validation failures with ErrValidation
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ExtractAndValidateBody extracts and validates the request body into the provided struct type T
func ExtractAndValidateBody[T any](r *http.Request) (*T, error) {
	return extractBody[T](r, true)
}

// ExtractAndValidatePayload is ExtractAndValidateBody for third-party payloads
// that carry more fields than we model
func ExtractAndValidatePayload[T any](r *http.Request) (*T, error) {
	return extractBody[T](r, false)
}

func extractBody[T any](r *http.Request, strict bool) (*T, error) {
	defer r.Body.Close()

	var body T

	dec := json.NewDecoder(r.Body)
	if strict {
		dec.DisallowUnknownFields()
	}

	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: malformed request body: %v", ErrValidation, err)
	}

	if err := validate.Struct(body); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return nil, mapValidationErrors(ve)
		}
		return nil, err
	}

	return &body, nil
}

func mapValidationErrors(errs validator.ValidationErrors) *ValidationError {
	out := &ValidationError{}

	for _, e := range errs {
		var message string
		switch e.Tag() {
		case "required":
			message = "is required"
		case "min":
			message = "must be at least " + e.Param() + " long"
		case "max":
			message = "must be at most " + e.Param() + " long"
		case "gt":
			message = "must be greater than " + e.Param()
		case "oneof":
			message = "must be one of: " + e.Param()
		default:
			message = "is invalid"
		}

		out.Errors = append(out.Errors, FieldError{
			Field:   strings.ToLower(e.Field()),
			Message: message,
		})
	}

	return out
}
