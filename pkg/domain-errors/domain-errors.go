package domainerrors

import "errors"

// Code represents a domain error category independent of transport layer.
// These codes describe what went wrong in business logic terms, not HTTP terms.
type Code string

const (
	// CodeInvalidClaim marks a malformed or incomplete identity claim. Not retryable.
	CodeInvalidClaim Code = "invalid_claim"
	// CodeVerificationFailed marks a rejected identity assertion. Not retryable.
	CodeVerificationFailed Code = "verification_failed"
	// CodeRegistryUnavailable marks a transient registry failure. Retryable with backoff.
	CodeRegistryUnavailable Code = "registry_unavailable"
	// CodeRegistryRejected marks a permanent registry refusal, e.g. a malformed handle.
	CodeRegistryRejected Code = "registry_rejected"
	// CodeUpstreamTimeout marks an exceeded per-call deadline on an upstream dependency.
	CodeUpstreamTimeout Code = "upstream_timeout"
	// CodeAuthorizationUnavailable marks a failure to obtain a signing session. Retryable.
	CodeAuthorizationUnavailable Code = "authorization_unavailable"
	// CodePartialReconciliation marks a reconciliation pass that applied some but
	// not all controller changes. The error detail names the unapplied changes.
	CodePartialReconciliation Code = "partial_reconciliation"
	// CodePartialLifecycle marks a lifecycle pass with incomplete policy actions.
	CodePartialLifecycle Code = "partial_lifecycle"
	// CodeUnsafeRetire marks an attempt to retire a key that still has controllers.
	CodeUnsafeRetire Code = "unsafe_retire"
	// CodeNotFound marks a missing entity, e.g. a key ID outside the caller's handle.
	CodeNotFound Code = "not_found"
	// CodeBadRequest marks malformed transport-level input.
	CodeBadRequest Code = "bad_request"
	// CodeInternal marks unexpected internal failures.
	CodeInternal Code = "internal_error"
)

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across service, client, and other layers.
type Error struct {
	Code    Code
	Message string
	Err     error

	// Detail optionally carries structured data describing the failure,
	// e.g. the unapplied changes of a partial reconciliation. It is
	// serialized into error responses so callers can resume precisely.
	Detail any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err, Detail: existing.Detail}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// WithDetail creates a domain error carrying structured detail.
func WithDetail(code Code, msg string, detail any) error {
	return &Error{Code: code, Message: msg, Detail: detail}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
