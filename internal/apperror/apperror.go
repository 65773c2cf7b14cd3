package apperror

import (
	"errors"
	"net/http"
)

type Code string

const (
	BadRequest  Code = "BAD_REQUEST"
	NotFound    Code = "NOT_FOUND"
	Internal    Code = "INTERNAL"
	Unavailable Code = "UNAVAILABLE"
	RateLimited Code = "RATE_LIMITED"
)

// Error kinds. Producers wrap one of these so callers can classify a failure
// with errors.Is without depending on the producing package.
var (
	ErrUpstreamFetch = errors.New("upstream fetch failed")
	ErrStorageInit   = errors.New("storage init failed")
	ErrStorageWrite  = errors.New("storage write failed")
	ErrStorageRead   = errors.New("storage read failed")
)

type AppError struct {
	code    Code
	message string
}

func New(code Code, message string) *AppError {
	return &AppError{code: code, message: message}
}

func (e *AppError) Error() string   { return e.message }
func (e *AppError) Code() Code      { return e.code }
func (e *AppError) Message() string { return e.message }

func (e *AppError) HTTPStatus() int {
	switch e.code {
	case BadRequest:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Unavailable:
		return http.StatusServiceUnavailable
	case RateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// FromError converts any error into a client-visible AppError. Wrapped
// AppErrors pass through; known kinds get a fixed message so driver details
// do not leak to clients.
func FromError(err error) *AppError {
	var ae *AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ae):
		return ae
	case errors.Is(err, ErrUpstreamFetch):
		return New(Unavailable, "failed to fetch current data")
	case errors.Is(err, ErrStorageRead):
		return New(Internal, "failed to read price history")
	default:
		return New(Internal, "internal server error")
	}
}
