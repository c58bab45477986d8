package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantStatus int
		wantField  string
		wantValue  string
	}{
		{name: "healthy", wantStatus: http.StatusOK, wantField: "status", wantValue: "ok"},
		{name: "database down", pingErr: errors.New("dial tcp: refused"), wantStatus: http.StatusServiceUnavailable, wantField: "error", wantValue: "Unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sawDeadline bool
			h := Health(pingerFunc(func(ctx context.Context) error {
				_, sawDeadline = ctx.Deadline()
				return tt.pingErr
			}), nil)

			w := httptest.NewRecorder()
			h(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			if !sawDeadline {
				t.Error("ping context has no deadline")
			}

			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body[tt.wantField] != tt.wantValue {
				t.Errorf("body[%q] = %q, want %q", tt.wantField, body[tt.wantField], tt.wantValue)
			}
			if tt.pingErr != nil && body["message"] == tt.pingErr.Error() {
				t.Error("internal error leaked to client")
			}
		})
	}
}
