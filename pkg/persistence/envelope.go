package persistence

import (
	"context"
	"errors"
	"net/http"
)

// Envelope is the result of an accessor call: the status code reported by the
// store and either a body or an error.
type Envelope[T any] struct {
	StatusCode int
	Body       T
	Err        error
}

// OK reports whether the call succeeded.
func (e Envelope[T]) OK() bool {
	return e.Err == nil && e.StatusCode >= http.StatusOK && e.StatusCode < http.StatusMultipleChoices
}

// Respond builds a successful envelope.
func Respond[T any](statusCode int, body T) Envelope[T] {
	return Envelope[T]{StatusCode: statusCode, Body: body}
}

// Fail builds a failed envelope whose status code is derived from err.
func Fail[T any](err error) Envelope[T] {
	return Envelope[T]{StatusCode: StatusCode(err), Err: err}
}

// Forward re-types a failed envelope, keeping its status code and error.
func Forward[T, U any](from Envelope[U]) Envelope[T] {
	return Envelope[T]{StatusCode: from.StatusCode, Err: from.Err}
}

// Wrap turns a repository result into an envelope, using okStatus on success.
func Wrap[T any](body T, err error, okStatus int) Envelope[T] {
	if err != nil {
		return Fail[T](err)
	}

	return Respond(okStatus, body)
}

// StatusCode maps a repository error to the HTTP-like status code carried by envelopes.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsNotFound(err):
		return http.StatusNotFound
	case IsInvalidRecord(err):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
