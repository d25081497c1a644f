package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"insider-hq/relay/pkg/config"
	"insider-hq/relay/pkg/items"
	"insider-hq/relay/pkg/providers"
	"insider-hq/relay/pkg/registry"
	"insider-hq/relay/pkg/telemetry/health"
)

type echoRelayer struct{}

func (echoRelayer) Relay(_ context.Context, req *providers.Request) providers.StatusResponse {
	if req.ProviderID == "panic" {
		panic("relay exploded")
	}
	return providers.StatusResponse{Status: http.StatusOK, Body: `{"provider":"` + req.ProviderID + `"}`}
}

func (echoRelayer) Poll(taskID string) providers.StatusResponse {
	return providers.StatusResponse{Status: http.StatusOK, Body: `{"task":"` + taskID + `"}`}
}

func testServerConfig() *config.ServerConfig {
	return &config.ServerConfig{
		ListenAddress:   "127.0.0.1:0",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		IdleTimeout:     5 * time.Second,
		ShutdownTimeout: 2 * time.Second,
		CORS: config.CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"https://author.example.com"},
			AllowedMethods: []string{"GET", "POST", "PUT"},
		},
	}
}

func testDependencies(t *testing.T, enabled bool) Dependencies {
	t.Helper()
	reg, err := registry.NewManagerFromConfig([]config.ProviderConfig{
		{ID: "openai", URL: "https://api.openai.test/v1", Enabled: &enabled},
	})
	if err != nil {
		t.Fatal(err)
	}
	store := items.NewMemoryStore()

	checker := health.New(time.Second)
	checker.Register("providers", health.ProvidersCheck(reg))
	checker.Register("items", health.StoreCheck[*items.Item](store))

	return Dependencies{
		Relayer:     echoRelayer{},
		Items:       store,
		Providers:   reg,
		Health:      checker,
		Metrics:     http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, "relay_requests_total 1\n") }),
		MetricsPath: "/metrics",
		Version:     health.VersionInfo{Version: "1.2.3"},
	}
}

func TestServer_Routes(t *testing.T) {
	handler := NewServer(testServerConfig(), testDependencies(t, true)).Handler()

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"relay", http.MethodPost, "/relay/openai", http.StatusOK, `{"provider":"openai"}`},
		{"poll", http.MethodGet, "/relay/task/t1", http.StatusOK, `{"task":"t1"}`},
		{"poll without task", http.MethodGet, "/relay/other", http.StatusBadRequest, `{"error":"Task is not specified"}`},
		{"config listing", http.MethodGet, "/relay/config", http.StatusOK, `{"tools":[],"providers":[]}`},
		{"liveness", http.MethodGet, "/health", http.StatusOK, `"status":"ok"`},
		{"readiness", http.MethodGet, "/ready", http.StatusOK, `"status":"ready"`},
		{"providers", http.MethodGet, "/health/providers", http.StatusOK, `"id":"openai"`},
		{"version", http.MethodGet, "/version", http.StatusOK, `"version":"1.2.3"`},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK, "relay_requests_total 1"},
		{"unknown", http.MethodGet, "/v1/chat/completions", http.StatusNotFound, ""},
		{"panic is recovered", http.MethodPost, "/relay/panic", http.StatusInternalServerError, `{"error":"An internal error occurred"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}")))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("body = %s, want to contain %s", w.Body.String(), tt.wantBody)
			}
			if w.Header().Get("X-Request-ID") == "" {
				t.Error("missing X-Request-ID")
			}
			if w.Header().Get("Cache-Control") != "no-cache" {
				t.Errorf("Cache-Control = %q", w.Header().Get("Cache-Control"))
			}
		})
	}
}

func TestServer_NotReadyWithoutProviders(t *testing.T) {
	handler := NewServer(testServerConfig(), testDependencies(t, false)).Handler()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestServer_MetricsDisabled(t *testing.T) {
	deps := testDependencies(t, true)
	deps.Metrics = nil
	handler := NewServer(testServerConfig(), deps).Handler()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestServer_CORSPreflight(t *testing.T) {
	handler := NewServer(testServerConfig(), testDependencies(t, true)).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/relay/openai", nil)
	req.Header.Set("Origin", "https://author.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://author.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestServer_Lifecycle(t *testing.T) {
	srv := NewServer(testServerConfig(), testDependencies(t, true))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/health"
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never came up: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if !srv.IsRunning() || srv.Addr() != ln.Addr().String() {
		t.Errorf("IsRunning = %v, Addr = %q", srv.IsRunning(), srv.Addr())
	}

	srv.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
	if srv.IsRunning() {
		t.Error("server still running after Stop")
	}
	srv.Stop()
}

func TestServer_StartContextCancel(t *testing.T) {
	srv := NewServer(testServerConfig(), testDependencies(t, true))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for !srv.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("server never started")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop on context cancel")
	}
}

func TestServer_StartInvalidAddress(t *testing.T) {
	cfg := testServerConfig()
	cfg.ListenAddress = "256.0.0.1:bad"

	if err := NewServer(cfg, testDependencies(t, true)).Start(context.Background()); err == nil {
		t.Fatal("expected listen error")
	}
}
