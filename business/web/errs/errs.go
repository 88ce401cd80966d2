// Package errs provides the error types the petition API responds with.
package errs

import (
	"errors"
	"net/http"

	"github.com/ardanlabs/petition/foundation/blockchain/state"
)

// Response is the form used for API responses from failures in the API.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is used to pass an error during the request through the
// application with web specific context.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (te *Trusted) Error() string {
	return te.Err.Error()
}

// Unwrap returns the wrapped error.
func (te *Trusted) Unwrap() error {
	return te.Err
}

// IsTrusted checks if an error of type Trusted exists.
func IsTrusted(err error) bool {
	var te *Trusted
	return errors.As(err, &te)
}

// GetTrusted returns a copy of the Trusted pointer.
func GetTrusted(err error) *Trusted {
	var te *Trusted
	if !errors.As(err, &te) {
		return nil
	}
	return te
}

// =============================================================================

// statuses maps the ledger business rule errors to the status the client
// receives. Anything not listed is an internal error.
var statuses = []struct {
	err    error
	status int
}{
	{state.ErrInvalidInput, http.StatusBadRequest},
	{state.ErrInvalidSignature, http.StatusBadRequest},
	{state.ErrPetitionNotFound, http.StatusNotFound},
	{state.ErrUserNotFound, http.StatusNotFound},
	{state.ErrPetitionExists, http.StatusConflict},
	{state.ErrAlreadySigned, http.StatusConflict},
	{state.ErrKeyRotationForbidden, http.StatusConflict},
}

// FromState converts an error returned by the state package into a trusted
// error when it is one of the business rule errors.
func FromState(err error) error {
	for _, s := range statuses {
		if errors.Is(err, s.err) {
			return NewTrusted(err, s.status)
		}
	}
	return err
}
