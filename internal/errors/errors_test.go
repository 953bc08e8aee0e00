package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"
)

func TestGetStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError("missing image", nil), http.StatusBadRequest},
		{"missing credential", NewMissingCredentialError("openai"), http.StatusBadRequest},
		{"upstream", NewUpstreamError("rate limited", nil), http.StatusInternalServerError},
		{"malformed", NewMalformedResponseError("not json", nil), http.StatusInternalServerError},
		{"in progress", NewInProgressError(), http.StatusConflict},
		{"wrapped", fmt.Errorf("analyze: %w", NewEmptyResponseError()), http.StatusInternalServerError},
		{"plain error", context.Canceled, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetStatusCode(tt.err); got != tt.want {
				t.Errorf("GetStatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIsType_Wrapped(t *testing.T) {
	err := fmt.Errorf("pipeline: %w", NewUpstreamError("boom", nil))

	if !IsType(err, ErrorTypeUpstream) {
		t.Error("Expected wrapped error to be recognized as upstream")
	}
	if IsType(err, ErrorTypeValidation) {
		t.Error("Expected wrapped upstream error not to match validation")
	}
}

func TestNewUpstreamError_DefaultMessage(t *testing.T) {
	err := NewUpstreamError("", nil)
	if err.Message == "" {
		t.Error("Expected a generic message when the provider gave none")
	}
}

func TestNewMalformedResponseError_KeepsSample(t *testing.T) {
	err := NewMalformedResponseError("Sure! Here is", nil)
	if err.Details != "Sure! Here is" {
		t.Errorf("Expected sample in details, got %q", err.Details)
	}
}
