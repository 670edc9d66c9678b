package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Categorías de error. Todo *APIError coincide con exactamente una vía errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrAuth       = errors.New("authentication error")
	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrNetwork    = errors.New("network error")
)

// APIError describe un fallo de una operación del gateway.
type APIError struct {
	Kind       error
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	msg := e.Kind.Error()
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *APIError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func validationError(msg string) *APIError {
	return &APIError{Kind: ErrValidation, Message: msg}
}

func networkError(err error) *APIError {
	return &APIError{Kind: ErrNetwork, Err: err}
}

// kindForStatus traduce un status HTTP de error a su categoría.
func kindForStatus(status int) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrValidation
	case http.StatusUnauthorized:
		return ErrAuth
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	default:
		return ErrNetwork
	}
}
