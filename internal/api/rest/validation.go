package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"github.com/syntrixbase/filecatalog/pkg/model"
)

// validate is the singleton validator instance used across all handlers.
var validate = validator.New()

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// ValidationError wraps validation errors with user-friendly messages.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors contains multiple validation errors.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, e := range v.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(msgs, "; ")
}

// Unwrap classifies every validation failure as invalid input.
func (v ValidationErrors) Unwrap() error { return model.ErrInvalidInput }

func translateValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("Failed validation: %s", fe.Tag())
	}
}

func formatValidationErrors(err error) ValidationErrors {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return ValidationErrors{
			Errors: []ValidationError{{Field: "unknown", Message: err.Error()}},
		}
	}

	var valErrors []ValidationError
	for _, fe := range ve {
		valErrors = append(valErrors, ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Message: translateValidationError(fe),
		})
	}
	return ValidationErrors{Errors: valErrors}
}

// TagsRequest is the body of the tag mutation routes.
type TagsRequest struct {
	Tags []string `json:"tags" validate:"required"`
}

// SearchRequest carries the query parameters of a name search.
type SearchRequest struct {
	FileName string `schema:"fileName" validate:"max=1024"`
	Filter   string `schema:"filter" validate:"max=4096"`
	Direct   *bool  `schema:"direct"`
}

// decodeAndValidate decodes a JSON request body and validates it.
func decodeAndValidate[T any](r *http.Request) (*T, error) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: invalid request body: %w", model.ErrInvalidInput, err)
	}
	if err := validate.Struct(&req); err != nil {
		return nil, formatValidationErrors(err)
	}
	return &req, nil
}

// decodeQuery decodes and validates URL query parameters.
func decodeQuery[T any](values url.Values) (*T, error) {
	var req T
	if err := queryDecoder.Decode(&req, values); err != nil {
		return nil, fmt.Errorf("%w: invalid query: %w", model.ErrInvalidInput, err)
	}
	if err := validate.Struct(&req); err != nil {
		return nil, formatValidationErrors(err)
	}
	return &req, nil
}

// decodeTags reads a tag payload. The list must be present, entries must be
// non-empty and unique.
func decodeTags(r *http.Request) ([]string, error) {
	req, err := decodeAndValidate[TagsRequest](r)
	if err != nil {
		return nil, err
	}
	if err := model.ValidateTags(req.Tags); err != nil {
		return nil, err
	}
	return req.Tags, nil
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
