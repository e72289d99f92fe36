package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "github.com/JLabsAU/relay-server/pkg/domain-errors"
)

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so we ignore encoding errors.
	_ = json.NewEncoder(w).Encode(response)
}

// ErrorResponse is the JSON error envelope returned by all endpoints.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	Detail           any    `json:"detail,omitempty"`
}

// WriteError centralizes domain error translation to HTTP responses.
// It translates transport-agnostic domain errors into HTTP status codes and
// error envelopes; structured detail (e.g. unapplied reconciliation changes)
// is passed through so callers can resume precisely.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), ErrorResponse{
			Error:            string(domainErr.Code),
			ErrorDescription: domainErr.Message,
			Detail:           domainErr.Detail,
		})
		return
	}

	// Fallback for unexpected errors
	WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: string(dErrors.CodeInternal),
	})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeInvalidClaim, dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeVerificationFailed:
		return http.StatusUnauthorized
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeUnsafeRetire:
		return http.StatusConflict
	case dErrors.CodeRegistryRejected:
		return http.StatusUnprocessableEntity
	case dErrors.CodeRegistryUnavailable, dErrors.CodeAuthorizationUnavailable:
		return http.StatusServiceUnavailable
	case dErrors.CodeUpstreamTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodePartialReconciliation, dErrors.CodePartialLifecycle:
		// Neither success nor fatal: the response body names the unapplied
		// changes so the caller can retry just the remainder.
		return http.StatusConflict
	case dErrors.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
