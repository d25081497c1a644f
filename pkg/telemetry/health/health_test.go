package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fixedCounter int

func (f fixedCounter) EnabledCount() int { return int(f) }

type fakeLister struct{ err error }

func (f fakeLister) List(context.Context, string) ([]string, error) { return nil, f.err }

func TestChecker_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		wantStatus string
		wantFailed []string
	}{
		{name: "no checks is ready", wantStatus: StatusReady},
		{
			name: "all passing",
			checks: map[string]CheckFunc{
				"providers": ProvidersCheck(fixedCounter(2)),
				"items":     StoreCheck[string](fakeLister{}),
			},
			wantStatus: StatusReady,
		},
		{
			name: "no enabled providers",
			checks: map[string]CheckFunc{
				"providers": ProvidersCheck(fixedCounter(0)),
				"items":     StoreCheck[string](fakeLister{}),
			},
			wantStatus: StatusDegraded,
			wantFailed: []string{"providers"},
		},
		{
			name: "store down",
			checks: map[string]CheckFunc{
				"items": StoreCheck[string](fakeLister{err: errors.New("connection refused")}),
			},
			wantStatus: StatusDegraded,
			wantFailed: []string{"items"},
		},
		{
			name: "panicking check",
			checks: map[string]CheckFunc{
				"broken": func(context.Context) error { panic("boom") },
			},
			wantStatus: StatusDegraded,
			wantFailed: []string{"broken"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(time.Second)
			for n, fn := range tt.checks {
				c.Register(n, fn)
			}

			s := c.Readiness(context.Background())
			if s.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", s.Status, tt.wantStatus)
			}
			for _, n := range tt.wantFailed {
				if s.Checks[n].Status != StatusUnhealthy || s.Checks[n].Message == "" {
					t.Errorf("check %q = %+v, want unhealthy with message", n, s.Checks[n])
				}
			}
		})
	}
}

func TestChecker_Timeout(t *testing.T) {
	c := New(50 * time.Millisecond)
	c.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return nil
	})

	s := c.Readiness(context.Background())
	if s.Checks["slow"].Message != ErrCheckTimeout.Error() {
		t.Errorf("slow check = %+v", s.Checks["slow"])
	}
}

func TestChecker_Names(t *testing.T) {
	c := New(0)
	c.Register("b", func(context.Context) error { return nil })
	c.Register("a", func(context.Context) error { return nil })
	c.Register("a", func(context.Context) error { return nil })

	if got := c.Names(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Names() = %v", got)
	}
	if c.timeout != 5*time.Second {
		t.Errorf("default timeout = %v", c.timeout)
	}
}

func TestHandlers(t *testing.T) {
	ready := New(time.Second)
	ready.Register("providers", ProvidersCheck(fixedCounter(1)))
	notReady := New(time.Second)
	notReady.Register("providers", ProvidersCheck(fixedCounter(0)))

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		method     string
		wantCode   int
		wantStatus string
	}{
		{name: "liveness", handler: notReady.LivenessHandler(), method: http.MethodGet, wantCode: 200, wantStatus: StatusOK},
		{name: "ready", handler: ready.ReadinessHandler(), method: http.MethodGet, wantCode: 200, wantStatus: StatusReady},
		{name: "not ready", handler: notReady.ReadinessHandler(), method: http.MethodGet, wantCode: 503, wantStatus: StatusDegraded},
		{name: "head has no body", handler: ready.LivenessHandler(), method: http.MethodHead, wantCode: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.handler(w, httptest.NewRequest(tt.method, "/", nil))

			if w.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", w.Code, tt.wantCode)
			}
			if tt.method == http.MethodHead {
				if w.Body.Len() != 0 {
					t.Errorf("HEAD body = %q", w.Body.String())
				}
				return
			}
			var s Status
			if err := json.NewDecoder(w.Body).Decode(&s); err != nil {
				t.Fatal(err)
			}
			if s.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", s.Status, tt.wantStatus)
			}
		})
	}
}

func TestVersionHandler(t *testing.T) {
	w := httptest.NewRecorder()
	VersionHandler("1.2.3", "abc", "2026-01-01")(w, httptest.NewRequest(http.MethodGet, "/version", nil))

	var info VersionInfo
	if err := json.NewDecoder(w.Body).Decode(&info); err != nil {
		t.Fatal(err)
	}
	if info.Version != "1.2.3" || info.Commit != "abc" || info.GoVersion == "" {
		t.Errorf("info = %+v", info)
	}
}
