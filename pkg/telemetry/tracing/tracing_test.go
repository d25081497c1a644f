package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"insider-hq/relay/pkg/config"
)

const remoteParent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

// installRecorder installs a recording tracer provider for the test.
func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	prevProvider := otel.GetTracerProvider()
	prevPropagator := otel.GetTextMapPropagator()

	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	otel.SetTextMapPropagator(propagation.TraceContext{})

	t.Cleanup(func() {
		otel.SetTracerProvider(prevProvider)
		otel.SetTextMapPropagator(prevPropagator)
	})
	return recorder
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  *config.TracingConfig
		enabled bool
		wantErr bool
	}{
		{name: "nil config", config: nil, wantErr: true},
		{name: "disabled", config: &config.TracingConfig{Enabled: false}, enabled: false},
		{
			name:    "unknown sampler",
			config:  &config.TracingConfig{Enabled: true, Sampler: "sometimes", Endpoint: "localhost:4317"},
			wantErr: true,
		},
		{
			name:    "ratio out of range",
			config:  &config.TracingConfig{Enabled: true, Sampler: SamplerRatio, SampleRatio: 1.5, Endpoint: "localhost:4317"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracer, err := New(tt.config, "test")
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if tracer.Enabled() != tt.enabled {
				t.Errorf("Enabled() = %v, want %v", tracer.Enabled(), tt.enabled)
			}
			if err := tracer.Shutdown(context.Background()); err != nil {
				t.Errorf("Shutdown() error = %v", err)
			}
		})
	}
}

func TestNew_EnabledInstallsGlobalProvider(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	tracer, err := New(&config.TracingConfig{
		Enabled:     true,
		Sampler:     SamplerAlways,
		Endpoint:    "127.0.0.1:4317",
		Insecure:    true,
		Timeout:     time.Second,
		ServiceName: "relay-test",
	}, "test")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = tracer.Shutdown(ctx)
	}()

	if !tracer.Enabled() {
		t.Fatal("expected enabled tracer")
	}
	if otel.GetTracerProvider() == prev {
		t.Error("expected global tracer provider to be replaced")
	}

	_, span := tracer.Start(context.Background(), "probe")
	defer span.End()
	if !span.SpanContext().IsSampled() {
		t.Error("always sampler should sample root spans")
	}
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		strategy string
		ratio    float64
		wantErr  bool
	}{
		{SamplerAlways, 0, false},
		{SamplerNever, 0, false},
		{SamplerRatio, 0.25, false},
		{SamplerRatio, -0.1, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		_, err := createSampler(tt.strategy, tt.ratio)
		if (err != nil) != tt.wantErr {
			t.Errorf("createSampler(%q, %v) error = %v, wantErr %v", tt.strategy, tt.ratio, err, tt.wantErr)
		}
	}
}

func TestInjectExtract(t *testing.T) {
	installRecorder(t)

	inbound := http.Header{}
	inbound.Set("traceparent", remoteParent)
	ctx := Extract(context.Background(), inbound)

	ctx, span := otel.Tracer(InstrumentationName).Start(ctx, "child")
	defer span.End()

	if got := TraceID(ctx); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("TraceID() = %q", got)
	}

	outbound := http.Header{}
	Inject(ctx, outbound)
	if outbound.Get("traceparent") == "" {
		t.Fatal("expected traceparent to be injected")
	}
	if outbound.Get("traceparent") == remoteParent {
		t.Error("outbound traceparent should carry the child span id")
	}
}

func TestTraceID_NoSpan(t *testing.T) {
	if got := TraceID(context.Background()); got != "" {
		t.Errorf("TraceID() = %q, want empty", got)
	}
}

func TestHTTPMiddleware(t *testing.T) {
	recorder := installRecorder(t)

	handler := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if TraceID(r.Context()) == "" {
			t.Error("handler context should carry a span")
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	req := httptest.NewRequest(http.MethodGet, "/relay/task/abc", nil)
	req.Header.Set("traceparent", remoteParent)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("X-Trace-ID") != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("X-Trace-ID = %q", rec.Header().Get("X-Trace-ID"))
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name() != "GET /relay/task/abc" {
		t.Errorf("span name = %q", span.Name())
	}
	if span.Parent().SpanID().String() != "00f067aa0ba902b7" {
		t.Errorf("parent span id = %s", span.Parent().SpanID())
	}
	if span.Status().Code != codes.Error {
		t.Errorf("status = %v, want Error for 503", span.Status().Code)
	}

	found := false
	for _, kv := range span.Attributes() {
		if kv.Key == attribute.Key(AttrStatusCode) && kv.Value.AsInt64() == http.StatusServiceUnavailable {
			found = true
		}
	}
	if !found {
		t.Error("expected status code attribute")
	}
}

func TestSetErrorAndStatus(t *testing.T) {
	recorder := installRecorder(t)

	_, span := otel.Tracer(InstrumentationName).Start(context.Background(), "op")
	SetError(span, errors.New("boom"))
	SetStatus(span, errors.New("boom"))
	SetTaskAttributes(span, "task-1", true)
	span.End()

	_, ok := otel.Tracer(InstrumentationName).Start(context.Background(), "ok")
	SetError(ok, nil)
	SetStatus(ok, nil)
	ok.End()

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Status().Code != codes.Error || len(spans[0].Events()) != 1 {
		t.Errorf("failed span status = %v, events = %d", spans[0].Status().Code, len(spans[0].Events()))
	}
	if spans[1].Status().Code != codes.Ok || len(spans[1].Events()) != 0 {
		t.Errorf("ok span status = %v, events = %d", spans[1].Status().Code, len(spans[1].Events()))
	}
}
