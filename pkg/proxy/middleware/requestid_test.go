package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	wrapped := RequestIDMiddleware(handler)

	tests := []struct {
		name     string
		header   string
		wantSame bool
	}{
		{name: "generates request ID when not provided", header: "", wantSame: false},
		{name: "uses provided request ID", header: "custom-request-id-12345", wantSame: true},
		{name: "replaces request ID with spaces", header: "bad id", wantSame: false},
		{name: "replaces overlong request ID", header: strings.Repeat("a", 200), wantSame: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set(RequestIDHeader, tt.header)
			}
			w := httptest.NewRecorder()

			wrapped.ServeHTTP(w, req)

			got := w.Header().Get(RequestIDHeader)
			if got == "" {
				t.Fatal("Request ID should be set in response header")
			}
			if got != seen {
				t.Errorf("context request ID = %q, header = %q", seen, got)
			}
			if (got == tt.header) != tt.wantSame {
				t.Errorf("Request ID = %q, provided %q, wantSame %v", got, tt.header, tt.wantSame)
			}
		})
	}
}

func TestRequestIDMiddleware_Unique(t *testing.T) {
	wrapped := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		id := w.Header().Get(RequestIDHeader)
		if ids[id] {
			t.Fatalf("duplicate request ID %q", id)
		}
		ids[id] = true
	}
}

func TestGetRequestID_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if id := GetRequestID(req.Context()); id != "" {
		t.Errorf("Expected empty string, got %s", id)
	}
}
