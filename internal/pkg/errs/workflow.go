package errs

import (
	"errors"
	"fmt"
)

var (
	ErrTransitionIsInvalid = errors.New("transition is invalid")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrGatewayFailed       = errors.New("payment gateway failed")
	ErrSignatureMismatch   = errors.New("signature mismatch")
	ErrPayloadIsInvalid    = errors.New("payload is invalid")
)

// TransitionIsInvalidError reports a status change that the lifecycle graph does not allow.
type TransitionIsInvalidError struct {
	From string
	To   string
}

func NewTransitionIsInvalidError(from, to fmt.Stringer) *TransitionIsInvalidError {
	return &TransitionIsInvalidError{From: from.String(), To: to.String()}
}

func (e *TransitionIsInvalidError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrTransitionIsInvalid, e.From, e.To)
}

func (e *TransitionIsInvalidError) Unwrap() error {
	return ErrTransitionIsInvalid
}

// ConcurrencyConflictError is returned when a versioned write kept losing the race.
type ConcurrencyConflictError struct {
	Entity   string
	ID       any
	Attempts int
	Cause    error
}

func NewConcurrencyConflictError(entity string, id any, attempts int, cause error) *ConcurrencyConflictError {
	return &ConcurrencyConflictError{Entity: entity, ID: id, Attempts: attempts, Cause: cause}
}

func (e *ConcurrencyConflictError) Error() string {
	msg := fmt.Sprintf("%s: %s %s after %d attempts", ErrConcurrencyConflict, e.Entity, e.ID, e.Attempts)
	if e.Cause != nil {
		return fmt.Sprintf("%s (cause: %v)", msg, e.Cause)
	}
	return msg
}

func (e *ConcurrencyConflictError) Unwrap() error {
	return ErrConcurrencyConflict
}

// GatewayError wraps a failed call to an external payment provider.
type GatewayError struct {
	Provider  string
	Operation string
	Cause     error
}

func NewGatewayError(provider, operation string, cause error) *GatewayError {
	return &GatewayError{Provider: provider, Operation: operation, Cause: cause}
}

func (e *GatewayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s %s (cause: %v)", ErrGatewayFailed, e.Provider, e.Operation, e.Cause)
	}
	return fmt.Sprintf("%s: %s %s", ErrGatewayFailed, e.Provider, e.Operation)
}

func (e *GatewayError) Unwrap() error {
	return ErrGatewayFailed
}

// SignatureMismatchError rejects a webhook whose signature or token did not verify.
type SignatureMismatchError struct {
	Provider string
}

func NewSignatureMismatchError(provider string) *SignatureMismatchError {
	return &SignatureMismatchError{Provider: provider}
}

func (e *SignatureMismatchError) Error() string {
	return fmt.Sprintf("%s: %s", ErrSignatureMismatch, e.Provider)
}

func (e *SignatureMismatchError) Unwrap() error {
	return ErrSignatureMismatch
}

// PayloadIsInvalidError rejects a webhook body that could not be interpreted.
type PayloadIsInvalidError struct {
	Provider string
	Cause    error
}

func NewPayloadIsInvalidError(provider string, cause error) *PayloadIsInvalidError {
	return &PayloadIsInvalidError{Provider: provider, Cause: cause}
}

func (e *PayloadIsInvalidError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", ErrPayloadIsInvalid, e.Provider, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrPayloadIsInvalid, e.Provider)
}

func (e *PayloadIsInvalidError) Unwrap() error {
	return ErrPayloadIsInvalid
}
