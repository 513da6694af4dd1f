// This file defines the error taxonomy shared by catalog providers and the
// tool layer. Failures are classified at the provider boundary into a small
// fixed set of kinds so callers can decide on retries without string
// matching. Errors wrap their cause and work with errors.Is/errors.As.
package music

import (
	"errors"
	"fmt"
)

// Kind classifies a catalog failure.
type Kind int

const (
	// KindBadRequest means the caller's input was malformed or out of
	// bounds. Not retryable.
	KindBadRequest Kind = iota + 1
	// KindNotFound means the id was well formed but no such entity exists
	// upstream.
	KindNotFound
	// KindAuthUnavailable means an access token could not be obtained from
	// the authorization endpoint.
	KindAuthUnavailable
	// KindUpstreamAuth means the upstream rejected our authorization even
	// after a forced token refresh.
	KindUpstreamAuth
	// KindRateLimited means the upstream signalled backpressure (429).
	// Callers may retry after a delay; nothing in this system retries
	// automatically.
	KindRateLimited
	// KindUpstreamUnavailable covers 5xx responses, network failures and
	// timeouts.
	KindUpstreamUnavailable
	// KindMalformedUpstream means a 2xx payload was missing an expected
	// field. Values are never silently defaulted.
	KindMalformedUpstream
)

// String returns the stable wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindNotFound:
		return "not_found"
	case KindAuthUnavailable:
		return "auth_unavailable"
	case KindUpstreamAuth:
		return "upstream_auth_error"
	case KindRateLimited:
		return "rate_limited"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	case KindMalformedUpstream:
		return "malformed_upstream_response"
	}
	return "unknown"
}

// Error is the typed failure returned by Catalog implementations. Op names
// the operation that failed, Message is a human readable detail and Err is
// the underlying cause when one exists.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// E constructs an *Error. Message may be a format string when args are
// supplied.
func E(kind Kind, op, message string, args ...any) *Error {
	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap constructs an *Error with an underlying cause.
func Wrap(kind Kind, op string, err error, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// KindOf returns the kind of err, or 0 when err carries no classification.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsNotFound reports whether err is classified as KindNotFound.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsBadRequest reports whether err is classified as KindBadRequest.
func IsBadRequest(err error) bool { return KindOf(err) == KindBadRequest }
