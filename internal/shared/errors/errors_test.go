package errors

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "dial tcp: i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// TestWrapQueryClassification tests that storage errors split into
// transient and internal classes.
func TestWrapQueryClassification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"Deadline exceeded", context.DeadlineExceeded, "UNAVAILABLE", http.StatusServiceUnavailable},
		{"Context canceled", context.Canceled, "UNAVAILABLE", http.StatusServiceUnavailable},
		{"Network timeout", timeoutError{}, "UNAVAILABLE", http.StatusServiceUnavailable},
		{"Constraint violation", errors.New("null value in column"), "INTERNAL_ERROR", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := WrapQuery(tt.err, "failed to list cases")
			if appErr.Code != tt.wantCode {
				t.Errorf("Expected code %s, got %s", tt.wantCode, appErr.Code)
			}
			if appErr.HTTPStatus != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, appErr.HTTPStatus)
			}
			if !errors.Is(appErr, tt.err) {
				t.Error("Expected wrapped error to keep its cause")
			}
		})
	}
}

// TestWrapQueryDeadline tests classification of a real expired context
func TestWrapQueryDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	appErr := WrapQuery(ctx.Err(), "failed to get case")
	if appErr.HTTPStatus != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", appErr.HTTPStatus)
	}
}

// TestWrapPreservesAppError tests that Wrap does not reclassify an
// already-typed error.
func TestWrapPreservesAppError(t *testing.T) {
	notFound := NotFound("case", "abc")
	wrapped := Wrap(notFound, "failed to load case")
	if wrapped.HTTPStatus != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", wrapped.HTTPStatus)
	}
	if !IsNotFound(wrapped) {
		t.Error("Expected wrapped error to stay not-found")
	}
}
