package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   Code
	}{
		{"upstream", fmt.Errorf("fetch bazaar: %w: %w", ErrUpstreamFetch, errors.New("dial tcp")), http.StatusServiceUnavailable, Unavailable},
		{"storage read", fmt.Errorf("query range: %w", ErrStorageRead), http.StatusInternalServerError, Internal},
		{"app error", fmt.Errorf("validate: %w", New(BadRequest, "hours must be positive")), http.StatusBadRequest, BadRequest},
		{"rate limited", New(RateLimited, "too many requests"), http.StatusTooManyRequests, RateLimited},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ae := FromError(tt.err)
			if ae.HTTPStatus() != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, ae.HTTPStatus())
			}
			if ae.Code() != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, ae.Code())
			}
		})
	}
}

func TestFromError_Nil(t *testing.T) {
	if FromError(nil) != nil {
		t.Error("expected nil for nil error")
	}
}

func TestFromError_HidesDriverDetails(t *testing.T) {
	ae := FromError(fmt.Errorf("query range: %w: %w", ErrStorageRead, errors.New("disk I/O error at page 42")))
	if ae.Message() != "failed to read price history" {
		t.Errorf("unexpected message %q", ae.Message())
	}
}
