// Package apperr is the error taxonomy shared by every component.
// Components return these errors untouched; the HTTP layer is the only
// place they are translated into status codes.
package apperr

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindEmptyResult
	KindUpstreamStatus
	KindUpstreamTimeout
	KindStorage
	KindInternal
)

// Error carries a taxonomy kind plus whatever context the kind needs:
// the offending search query for EmptyResult, the mirrored status and
// body for UpstreamStatus.
type Error struct {
	Kind    Kind
	Message string
	Query   string // EmptyResult only
	Status  int    // UpstreamStatus only
	Body    string // UpstreamStatus only
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func EmptyResult(query, message string) *Error {
	return &Error{Kind: KindEmptyResult, Message: message, Query: query}
}

func UpstreamStatus(status int, body string) *Error {
	return &Error{
		Kind:    KindUpstreamStatus,
		Message: fmt.Sprintf("upstream responded with status %d", status),
		Status:  status,
		Body:    body,
	}
}

func UpstreamTimeout(op string, err error) *Error {
	return &Error{Kind: KindUpstreamTimeout, Message: op + " timed out", Err: err}
}

func Storage(op string, err error) *Error {
	return &Error{Kind: KindStorage, Message: op + " failed", Err: errors.Wrap(err, op)}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf extracts the taxonomy kind, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As is a convenience errors.As for *Error.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// HTTPStatus maps an error to the status code the surface should emit.
func HTTPStatus(err error) int {
	e, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound, KindEmptyResult:
		return http.StatusNotFound
	case KindUpstreamStatus:
		if e.Status >= 400 && e.Status < 600 {
			return e.Status
		}
		return http.StatusInternalServerError
	case KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
