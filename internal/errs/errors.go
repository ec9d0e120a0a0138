// Package errs defines the fact-check pipeline's error taxonomy.
//
// Stages return *Error values carrying a Kind; callers branch on the kind,
// never on message text. Raw backend errors stay wrapped for logging and are
// not part of the wire payload.
package errs

import (
	"context"
	stderrs "errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies a pipeline failure. Values are stable for wire compatibility.
type Kind uint8

const (
	// KindUnknown is for unclassified errors
	KindUnknown Kind = iota

	// KindInvalidInput is for empty or oversized input
	KindInvalidInput

	// KindModelUnavailable is for classifier or generator backends that are unreachable or erroring
	KindModelUnavailable

	// KindTimeout is for backends that exceeded their time budget
	KindTimeout

	// KindExtractionFailed is for inputs no checkable claim could be derived from
	KindExtractionFailed

	// KindRetrievalUnavailable is for a vector store that is empty, unreachable or misconfigured
	KindRetrievalUnavailable

	// KindSynthesisParseFailed is for generative output that stayed malformed after repair
	KindSynthesisParseFailed
)

// String returns the stable wire code of the kind
func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindModelUnavailable:
		return "model_unavailable"
	case KindTimeout:
		return "timeout"
	case KindExtractionFailed:
		return "extraction_failed"
	case KindRetrievalUnavailable:
		return "retrieval_unavailable"
	case KindSynthesisParseFailed:
		return "synthesis_parse_failed"
	default:
		return "unknown"
	}
}

// PublicMessage is the caller-facing text for a kind; it never contains backend detail
func (k Kind) PublicMessage() string {
	switch k {
	case KindInvalidInput:
		return "input is empty or too long"
	case KindModelUnavailable:
		return "a model backend is unavailable, retry later"
	case KindTimeout:
		return "a model or store backend timed out"
	case KindExtractionFailed:
		return "Unverifiable - could not extract a checkable claim"
	case KindRetrievalUnavailable:
		return "the reference fact store is unavailable"
	case KindSynthesisParseFailed:
		return "the verdict model returned an unreadable answer"
	default:
		return "internal error"
	}
}

// HTTPStatus maps a kind onto an HTTP status code
func HTTPStatus(k Kind) int {
	switch k {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindExtractionFailed:
		return http.StatusUnprocessableEntity
	case KindSynthesisParseFailed:
		return http.StatusBadGateway
	case KindModelUnavailable, KindRetrievalUnavailable:
		return http.StatusServiceUnavailable
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified pipeline failure
type Error struct {
	kind Kind
	op   string // stage or operation label, e.g. "filter.classify"
	msg  string
	orig error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	prefix := e.kind.String()
	if e.op != "" {
		prefix = e.op + ": " + prefix
	}
	switch {
	case e.msg != "" && e.orig != nil:
		return fmt.Sprintf("%s: %s: %v", prefix, e.msg, e.orig)
	case e.msg != "":
		return prefix + ": " + e.msg
	case e.orig != nil:
		return fmt.Sprintf("%s: %v", prefix, e.orig)
	default:
		return prefix
	}
}

// Unwrap returns the wrapped cause
func (e *Error) Unwrap() error { return e.orig }

// Kind returns the error kind
func (e *Error) Kind() Kind { return e.kind }

// Op returns the operation label
func (e *Error) Op() string { return e.op }

// Is lets errors.Is match any *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.kind == e.kind && (t.op == "" || t.op == e.op)
}

// New creates a classified error
func New(kind Kind, op, msg string) *Error {
	return &Error{kind: kind, op: op, msg: msg}
}

// Wrap classifies an underlying error
func Wrap(kind Kind, op string, err error, msg string) *Error {
	return &Error{kind: kind, op: op, msg: msg, orig: err}
}

// Sentinels for errors.Is matching by kind
var (
	ErrModelUnavailable     = &Error{kind: KindModelUnavailable}
	ErrTimeout              = &Error{kind: KindTimeout}
	ErrExtractionFailed     = &Error{kind: KindExtractionFailed}
	ErrRetrievalUnavailable = &Error{kind: KindRetrievalUnavailable}
	ErrSynthesisParseFailed = &Error{kind: KindSynthesisParseFailed}
	ErrInvalidInput         = &Error{kind: KindInvalidInput}
)

// As extracts an *Error from the chain
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindUnknown
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.kind
	}
	if IsTimeout(err) {
		return KindTimeout
	}
	return KindUnknown
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsTimeout reports whether err is a deadline or network timeout
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if stderrs.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return stderrs.As(err, &ne) && ne.Timeout()
}

// FromBackend classifies a failed backend call: timeouts become KindTimeout,
// already classified errors keep their kind, anything else becomes unavailable.
func FromBackend(op string, unavailable Kind, err error) error {
	if err == nil {
		return nil
	}
	if IsTimeout(err) {
		return Wrap(KindTimeout, op, err, "")
	}
	if e, ok := As(err); ok && e.kind != KindUnknown {
		return err
	}
	return Wrap(unavailable, op, err, "")
}

// Wire is the JSON error payload returned to callers
type Wire struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WireFrom converts any error into a Wire payload without leaking backend text
func WireFrom(err error) Wire {
	if err == nil {
		return Wire{}
	}
	k := KindOf(err)
	return Wire{Code: k.String(), Message: k.PublicMessage()}
}
