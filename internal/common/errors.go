package common

import (
	"errors"
	"fmt"
)

// Error kinds reported alongside failed items and API errors.
const (
	KindNotFound         = "not_found"
	KindValidation       = "validation"
	KindUnauthorized     = "unauthorized"
	KindTemplateNotFound = "template_not_found"
	KindMissingField     = "missing_field"
	KindCountMismatch    = "count_mismatch"
	KindUnknownOperation = "unknown_operation"
	KindUnknownResource  = "unknown_resource"
	KindTransport        = "transport"
	KindInternal         = "internal"
)

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id '%s' not found", e.Resource, e.ID)
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError indicates invalid input data.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// UnauthorizedError indicates missing or invalid credentials.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	if e.Message == "" {
		return "unauthorized"
	}
	return e.Message
}

// NewUnauthorizedError creates a new UnauthorizedError.
func NewUnauthorizedError(message string) *UnauthorizedError {
	return &UnauthorizedError{Message: message}
}

// TemplateNotFoundError is returned when a template name is absent from the provider listing.
type TemplateNotFoundError struct {
	Name string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("template %q is not found", e.Name)
}

// MissingFieldError is returned when a template needs substitution values that were not supplied.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("the %s substitution values are required by the template", e.Field)
}

// CountMismatchError is returned when the number of substitution values differs from
// the number of placeholders declared on the template.
type CountMismatchError struct {
	Field    string
	Expected int
	Actual   int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("%s on template needs %d value(s), but %d were given", e.Field, e.Expected, e.Actual)
}

// UnknownResourceError is returned for a resource a node does not implement.
type UnknownResourceError struct {
	Node     string
	Resource string
}

func (e *UnknownResourceError) Error() string {
	return fmt.Sprintf("the resource %q is not known to %s", e.Resource, e.Node)
}

// UnknownOperationError is returned for an operation a resource does not implement.
type UnknownOperationError struct {
	Resource  string
	Operation string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("the operation %q is not known for resource %q", e.Operation, e.Resource)
}

// TransportError wraps a failed call to a remote API. StatusCode is zero when
// the request never produced a response. Body is the raw error response.
type TransportError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s request failed with status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a new TransportError.
func NewTransportError(provider string, statusCode int, err error) *TransportError {
	return &TransportError{Provider: provider, StatusCode: statusCode, Err: err}
}

// NewResponseError creates a TransportError for a non-2xx reply, keeping its body.
func NewResponseError(provider string, statusCode int, body []byte, message string) *TransportError {
	return &TransportError{
		Provider:   provider,
		StatusCode: statusCode,
		Body:       string(body),
		Err:        errors.New(message),
	}
}

// Kind classifies err into one of the Kind* constants.
func Kind(err error) string {
	var (
		notFound     *NotFoundError
		validation   *ValidationError
		unauthorized *UnauthorizedError
		tmplNotFound *TemplateNotFoundError
		missing      *MissingFieldError
		mismatch     *CountMismatchError
		unknownOp    *UnknownOperationError
		unknownRes   *UnknownResourceError
		transportErr *TransportError
	)

	switch {
	case errors.As(err, &tmplNotFound):
		return KindTemplateNotFound
	case errors.As(err, &missing):
		return KindMissingField
	case errors.As(err, &mismatch):
		return KindCountMismatch
	case errors.As(err, &unknownOp):
		return KindUnknownOperation
	case errors.As(err, &unknownRes):
		return KindUnknownResource
	case errors.As(err, &transportErr):
		return KindTransport
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &unauthorized):
		return KindUnauthorized
	default:
		return KindInternal
	}
}
