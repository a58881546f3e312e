package servererrors

import (
	"errors"
	"net/http"
)

// Domain errors surfaced by the inventory core. Handlers map these to
// [ServerError] responses; stores and services wrap them with context.
var (
	ErrInsufficientStock      = errors.New("insufficient stock for requested operation")
	ErrInvalidQuantity        = errors.New("quantity is invalid for this operation")
	ErrItemNotFound           = errors.New("inventory item not found")
	ErrItemRetired            = errors.New("inventory item has been retired")
	ErrItemAlreadyExists      = errors.New("inventory item already exists")
	ErrConcurrentModification = errors.New("item was modified concurrently, retry exhausted")
	ErrInvalidRequestPayload  = errors.New("invalid request payload")
	ErrValidationFailed       = errors.New("validation failed")
	ErrURLQueryParams         = errors.New("invalid url query params")
	ErrMissingActor           = errors.New("missing actor id header")
)

type ServerError struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Errors     any    `json:"errors,omitempty"`
}

func New(statusCode int, message string, errs any) *ServerError {
	return &ServerError{
		StatusCode: statusCode,
		Message:    message,
		Errors:     errs,
	}
}

func (e *ServerError) Error() string {
	return e.Message
}

// FromDomainError maps a known domain error to a ServerError so every
// handler resolves the same error to the same status code.
func FromDomainError(err error) *ServerError {
	switch {
	case errors.Is(err, ErrItemNotFound):
		return New(http.StatusNotFound, ErrItemNotFound.Error(), nil)
	case errors.Is(err, ErrInsufficientStock):
		return New(http.StatusConflict, ErrInsufficientStock.Error(), nil)
	case errors.Is(err, ErrInvalidQuantity):
		return New(http.StatusUnprocessableEntity, ErrInvalidQuantity.Error(), nil)
	case errors.Is(err, ErrItemRetired):
		return New(http.StatusConflict, ErrItemRetired.Error(), nil)
	case errors.Is(err, ErrItemAlreadyExists):
		return New(http.StatusConflict, ErrItemAlreadyExists.Error(), nil)
	case errors.Is(err, ErrConcurrentModification):
		return New(http.StatusConflict, ErrConcurrentModification.Error(), nil)
	case errors.Is(err, ErrValidationFailed):
		return New(http.StatusUnprocessableEntity, ErrValidationFailed.Error(), nil)
	default:
		return nil
	}
}
