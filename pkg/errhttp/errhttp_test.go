package errhttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ghuser/auctiondesk/services/auction/domain"
)

func TestWriteError_StatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"ErrInvalidInput", domain.ErrInvalidInput, http.StatusUnprocessableEntity},
		{"ErrDuplicateKey", domain.ErrDuplicateKey, http.StatusConflict},
		{"ErrNotFound", domain.ErrNotFound, http.StatusNotFound},
		{"ErrRemoteWrite", domain.ErrRemoteWrite, http.StatusBadGateway},
		{"ErrNotProvisioned", domain.ErrNotProvisioned, http.StatusServiceUnavailable},
		{"ErrPermissionDenied", domain.ErrPermissionDenied, http.StatusForbidden},
		{"wrapped ErrNotFound", fmt.Errorf("get item: %w", domain.ErrNotFound), http.StatusNotFound},
		{"wrapped ErrInvalidInput", fmt.Errorf("%w: amount must be non-negative", domain.ErrInvalidInput), http.StatusUnprocessableEntity},
		{"unknown error", errors.New("something unexpected"), http.StatusInternalServerError},
		{"generic wrapped error", fmt.Errorf("context: %w", errors.New("db down")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestWriteError_JSONBody(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, domain.ErrNotFound)

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response body is not valid JSON: %v", err)
	}
	if _, ok := body["error"]; !ok {
		t.Fatal("response body missing 'error' key")
	}
}

func TestWriteError_ContentType(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, domain.ErrNotFound)

	ct := w.Header().Get("Content-Type")
	if ct == "" {
		t.Fatal("Content-Type header not set")
	}
}
