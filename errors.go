package accounts

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeBackendRejected marks errors where the backend processed the
	// call and said no; the message is safe to surface verbatim.
	TextCodeBackendRejected = "BACKEND_REJECTED"
	// TextCodeBackendUnreachable marks transport-level failures; the message
	// is never user-actionable.
	TextCodeBackendUnreachable = "BACKEND_UNREACHABLE"
	// TextCodeNotAuthenticated marks operations that require a session.
	TextCodeNotAuthenticated = "NOT_AUTHENTICATED"
)

// ErrNotAuthenticated is returned when an operation requires a live session
// and none is present. It is always raised before any backend call.
var ErrNotAuthenticated = goerrors.New("not authenticated", goerrors.CategoryAuth).
	WithTextCode(TextCodeNotAuthenticated).
	WithCode(goerrors.CodeUnauthorized)

// NewValidationError is used for missing or malformed request fields,
// rejected before any backend dispatch.
func NewValidationError(msg string) *goerrors.Error {
	return goerrors.New(msg, goerrors.CategoryValidation).
		WithCode(goerrors.CodeBadRequest)
}

// NewBackendError wraps a backend rejection. The message is the backend's
// own, surfaced verbatim to the caller in most flows.
func NewBackendError(msg string) *goerrors.Error {
	return goerrors.New(msg, goerrors.CategoryOperation).
		WithTextCode(TextCodeBackendRejected).
		WithCode(goerrors.CodeBadRequest)
}

// WrapInfrastructureError marks the backend as unreachable or timed out,
// distinct from a backend rejection.
func WrapInfrastructureError(err error, msg string) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg).
		WithTextCode(TextCodeBackendUnreachable).
		WithCode(goerrors.CodeInternal)
}

// IsUnauthenticated reports whether err is a missing-session error.
func IsUnauthenticated(err error) bool {
	return hasTextCode(err, TextCodeNotAuthenticated)
}

// IsBackendRejected reports whether the backend processed and rejected the call.
func IsBackendRejected(err error) bool {
	return hasTextCode(err, TextCodeBackendRejected)
}

// IsBackendUnreachable reports whether the backend could not be reached.
func IsBackendUnreachable(err error) bool {
	return hasTextCode(err, TextCodeBackendUnreachable)
}

// UserMessage extracts the message safe to show an end user. Infrastructure
// failures collapse to a generic message so transport internals never leak
// into a form.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return err.Error()
	}

	if richErr.TextCode == TextCodeBackendUnreachable {
		return "The service is temporarily unavailable. Please try again."
	}

	return richErr.Message
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}
