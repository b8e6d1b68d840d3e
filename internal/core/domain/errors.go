package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRootKeyNotFound ...
	ErrRootKeyNotFound = errors.New("root key not found")
	// ErrAccountNotFound ...
	ErrAccountNotFound = errors.New("account not found")
	// ErrBackendNotFound ...
	ErrBackendNotFound = errors.New("backend not found")
	// ErrUnknownBackendKind is returned for backend records whose type is none
	// of the known ones.
	ErrUnknownBackendKind = errors.New("unknown backend type")
	// ErrMissingProjectID ...
	ErrMissingProjectID = errors.New("indexer backend requires a project id")
	// ErrMissingNodeEndpoints ...
	ErrMissingNodeEndpoints = errors.New(
		"node backend requires both ogmios and kupo urls",
	)
	// ErrNullName ...
	ErrNullName = errors.New("name must not be null")
	// ErrInvalidBalanceOverride ...
	ErrInvalidBalanceOverride = errors.New(
		"balance override must be an amount of lovelace",
	)
)

// ErrorKind classifies the errors returned by the wallet API.
type ErrorKind string

const (
	// ErrorKindInvalidRequest is returned for malformed arguments.
	ErrorKindInvalidRequest ErrorKind = "InvalidRequest"
	// ErrorKindInternalError is returned for misconfigurations and backend
	// failures.
	ErrorKindInternalError ErrorKind = "InternalError"
	// ErrorKindRefused is returned when no account or backend is configured.
	ErrorKindRefused ErrorKind = "Refused"
	// ErrorKindAccountChange is returned when the active account or network
	// changed after enabling.
	ErrorKindAccountChange ErrorKind = "AccountChange"
	// ErrorKindProofGeneration is returned when asked to sign with a key the
	// wallet doesn't own.
	ErrorKindProofGeneration ErrorKind = "ProofGeneration"
	// ErrorKindUserDeclined ...
	ErrorKindUserDeclined ErrorKind = "UserDeclined"
)

// APIError is the error payload returned across the wallet boundary.
type APIError struct {
	Code ErrorKind `json:"code"`
	Info string    `json:"info"`
}

// NewAPIError ...
func NewAPIError(code ErrorKind, format string, args ...interface{}) *APIError {
	return &APIError{Code: code, Info: fmt.Sprintf(format, args...)}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Info)
}

// ToAPIError returns err as an *APIError. Errors that aren't already one are
// reported as internal errors.
func ToAPIError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &APIError{Code: ErrorKindInternalError, Info: err.Error()}
}

// IsErrorKind returns whether err is an *APIError of the given kind.
func IsErrorKind(err error, kind ErrorKind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == kind
}
