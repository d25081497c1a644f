package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"insider-hq/relay/pkg/providers"
)

type staticLookup map[string]*providers.Provider

func (l staticLookup) Lookup(id string) (*providers.Provider, bool) {
	p, ok := l[id]
	return p, ok
}

// gatedResponder blocks every call until release is closed.
type gatedResponder struct {
	release chan struct{}
	body    string
	err     error
	calls   atomic.Int32
	dryRuns atomic.Int32
	sawCtx  chan error
}

func newGatedResponder(body string) *gatedResponder {
	return &gatedResponder{release: make(chan struct{}), body: body, sawCtx: make(chan error, 8)}
}

func (r *gatedResponder) GetResponse(ctx context.Context, _ *providers.Provider, req *providers.Request) (string, error) {
	r.calls.Add(1)
	if req.DryRun {
		r.dryRuns.Add(1)
		return providers.EmptyJSON, nil
	}
	<-r.release
	r.sawCtx <- ctx.Err()
	return r.body, r.err
}

type funcResponder func(ctx context.Context, p *providers.Provider, req *providers.Request) (string, error)

func (f funcResponder) GetResponse(ctx context.Context, p *providers.Provider, req *providers.Request) (string, error) {
	return f(ctx, p, req)
}

type countingObserver struct {
	started, finished, stored, claimed, evicted atomic.Int32
}

func (o *countingObserver) TaskStarted()   { o.started.Add(1) }
func (o *countingObserver) TaskFinished()  { o.finished.Add(1) }
func (o *countingObserver) ResultStored()  { o.stored.Add(1) }
func (o *countingObserver) ResultClaimed() { o.claimed.Add(1) }
func (o *countingObserver) ResultEvicted() { o.evicted.Add(1) }

func testLookup() staticLookup {
	return staticLookup{
		"mock": {ID: "mock", URL: "http://upstream.test", MaxAttempts: 3, Timeout: time.Second, Enabled: true},
	}
}

func newTestOrchestrator(t *testing.T, responder Responder, opts Options) *Orchestrator {
	t.Helper()
	o := NewOrchestrator(testLookup(), responder, opts)
	t.Cleanup(o.Close)
	return o
}

func taskIDFrom(t *testing.T, resp providers.StatusResponse) string {
	t.Helper()
	var body struct {
		Task string `json:"task"`
	}
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil || body.Task == "" {
		t.Fatalf("expected task body, got %q (%v)", resp.Body, err)
	}
	return body.Task
}

func errorFrom(t *testing.T, resp providers.StatusResponse) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("expected error body, got %q (%v)", resp.Body, err)
	}
	return body.Error
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func waitDone(t *testing.T, o *Orchestrator, taskID string) {
	t.Helper()
	waitFor(t, func() bool {
		task, ok := o.tasks.Get(taskID)
		return ok && task.Done()
	})
}

func TestOrchestrator_Validation(t *testing.T) {
	o := newTestOrchestrator(t, newGatedResponder(""), Options{WaitTimeout: time.Second})

	tests := []struct {
		name       string
		providerID string
		wantStatus int
		wantError  string
	}{
		{name: "missing provider", providerID: "", wantStatus: http.StatusBadRequest, wantError: "Service provider is not specified"},
		{name: "blank provider", providerID: "   ", wantStatus: http.StatusBadRequest, wantError: "Service provider is not specified"},
		{name: "unknown provider", providerID: "nope", wantStatus: http.StatusNotFound, wantError: "Service provider is not found"},
		{name: "case sensitive", providerID: "MOCK", wantStatus: http.StatusNotFound, wantError: "Service provider is not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := o.Relay(context.Background(), &providers.Request{ProviderID: tt.providerID, Payload: []byte("{}")})
			if resp.Status != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.Status, tt.wantStatus)
			}
			if got := errorFrom(t, resp); got != tt.wantError {
				t.Errorf("error = %q, want %q", got, tt.wantError)
			}
		})
	}
}

func TestOrchestrator_CompletesInline(t *testing.T) {
	responder := funcResponder(func(context.Context, *providers.Provider, *providers.Request) (string, error) {
		return `{"lorem":"ipsum"}`, nil
	})
	o := newTestOrchestrator(t, responder, Options{WaitTimeout: time.Second})

	resp := o.Relay(context.Background(), &providers.Request{ProviderID: "mock", Payload: []byte("{}")})
	if resp.Status != http.StatusOK || resp.Body != `{"lorem":"ipsum"}` {
		t.Errorf("Relay() = %+v", resp)
	}
	if o.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", o.Pending())
	}
}

func TestOrchestrator_ProviderFailure(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantError string
	}{
		{
			name:      "exhausted",
			err:       &providers.ExhaustedError{Provider: "mock", URL: "http://upstream.test", Attempts: 3},
			wantError: "Request to http://upstream.test failed",
		},
		{
			name:      "empty payload",
			err:       providers.ErrEmptyPayload,
			wantError: providers.ErrEmptyPayload.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			responder := funcResponder(func(context.Context, *providers.Provider, *providers.Request) (string, error) {
				return "", tt.err
			})
			o := newTestOrchestrator(t, responder, Options{WaitTimeout: time.Second})

			resp := o.Relay(context.Background(), &providers.Request{ProviderID: "mock", Payload: []byte("{}")})
			if resp.Status != http.StatusInternalServerError {
				t.Errorf("status = %d, want 500", resp.Status)
			}
			if got := errorFrom(t, resp); got != tt.wantError {
				t.Errorf("error = %q, want %q", got, tt.wantError)
			}
		})
	}
}

func TestOrchestrator_PanickingTaskIsInterrupted(t *testing.T) {
	responder := funcResponder(func(context.Context, *providers.Provider, *providers.Request) (string, error) {
		panic("provider exploded")
	})
	o := newTestOrchestrator(t, responder, Options{WaitTimeout: time.Second})

	resp := o.Relay(context.Background(), &providers.Request{ProviderID: "mock", Payload: []byte("{}")})
	if resp.Status != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.Status)
	}
	if got := errorFrom(t, resp); got != ErrInterrupted.Error() {
		t.Errorf("error = %q", got)
	}
}

func TestOrchestrator_DeferredLifecycle(t *testing.T) {
	responder := newGatedResponder(`{"lorem":"ipsum"}`)
	observer := &countingObserver{}
	o := newTestOrchestrator(t, responder, Options{WaitTimeout: 50 * time.Millisecond}).WithObserver(observer)

	resp := o.Relay(context.Background(), &providers.Request{ProviderID: "mock", Payload: []byte("{}")})
	if resp.Status != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.Status)
	}
	taskID := taskIDFrom(t, resp)

	// Still running: the id is echoed and the entry stays.
	pending := o.Poll(taskID)
	if pending.Status != http.StatusOK || taskIDFrom(t, pending) != taskID {
		t.Errorf("pending poll = %+v", pending)
	}
	if o.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", o.Pending())
	}

	close(responder.release)
	waitDone(t, o, taskID)

	done := o.Poll(taskID)
	if done.Status != http.StatusOK || done.Body != `{"lorem":"ipsum"}` {
		t.Errorf("completed poll = %+v", done)
	}

	gone := o.Poll(taskID)
	if gone.Status != http.StatusNotFound {
		t.Errorf("third poll status = %d, want 404", gone.Status)
	}
	if got := errorFrom(t, gone); got != "Task is not found" {
		t.Errorf("third poll error = %q", got)
	}

	if observer.stored.Load() != 1 || observer.claimed.Load() != 1 {
		t.Errorf("stored = %d, claimed = %d", observer.stored.Load(), observer.claimed.Load())
	}
	if responder.calls.Load() != 1 {
		t.Errorf("provider called %d times, want 1", responder.calls.Load())
	}
}

func TestOrchestrator_DeferredFailureIsDelivered(t *testing.T) {
	responder := newGatedResponder("")
	responder.err = &providers.ExhaustedError{Provider: "mock", URL: "http://upstream.test", Attempts: 3}
	o := newTestOrchestrator(t, responder, Options{WaitTimeout: 20 * time.Millisecond})

	taskID := taskIDFrom(t, o.Relay(context.Background(), &providers.Request{ProviderID: "mock", Payload: []byte("{}")}))
	close(responder.release)

	var resp providers.StatusResponse
	waitFor(t, func() bool {
		resp = o.Poll(taskID)
		return !strings.Contains(resp.Body, `"task"`)
	})
	if resp.Status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.Status)
	}
}

func TestOrchestrator_DeferredPanicIsNoResult(t *testing.T) {
	release := make(chan struct{})
	responder := funcResponder(func(context.Context, *providers.Provider, *providers.Request) (string, error) {
		<-release
		panic("late failure")
	})
	o := newTestOrchestrator(t, responder, Options{WaitTimeout: 20 * time.Millisecond})

	taskID := taskIDFrom(t, o.Relay(context.Background(), &providers.Request{ProviderID: "mock", Payload: []byte("{}")}))
	close(release)

	var resp providers.StatusResponse
	waitFor(t, func() bool {
		resp = o.Poll(taskID)
		return resp.Status != http.StatusOK
	})
	if resp.Status != http.StatusServiceUnavailable || errorFrom(t, resp) != "No result retrieved" {
		t.Errorf("poll = %+v", resp)
	}
}

func TestOrchestrator_TaskSurvivesCallerCancellation(t *testing.T) {
	responder := newGatedResponder("late")
	o := newTestOrchestrator(t, responder, Options{WaitTimeout: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	resp := o.Relay(ctx, &providers.Request{ProviderID: "mock", Payload: []byte("{}")})
	if resp.Status != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.Status)
	}
	taskID := taskIDFrom(t, resp)

	close(responder.release)
	if err := <-responder.sawCtx; err != nil {
		t.Errorf("task context was cancelled: %v", err)
	}

	waitFor(t, func() bool { return o.Poll(taskID).Body == "late" })
}

func TestOrchestrator_DryRun(t *testing.T) {
	t.Run("per request", func(t *testing.T) {
		responder := newGatedResponder("never")
		o := newTestOrchestrator(t, responder, Options{WaitTimeout: time.Second})

		resp := o.Relay(context.Background(), &providers.Request{ProviderID: "mock", Payload: []byte("{}"), DryRun: true})
		if resp.Status != http.StatusOK || resp.Body != providers.EmptyJSON {
			t.Errorf("Relay() = %+v", resp)
		}
	})

	t.Run("global switch", func(t *testing.T) {
		responder := newGatedResponder("never")
		o := newTestOrchestrator(t, responder, Options{WaitTimeout: time.Second, DryRun: true})

		resp := o.Relay(context.Background(), &providers.Request{ProviderID: "mock", Payload: []byte("{}")})
		if resp.Body != providers.EmptyJSON || responder.dryRuns.Load() != 1 {
			t.Errorf("Relay() = %+v, dry runs %d", resp, responder.dryRuns.Load())
		}
	})
}

func TestOrchestrator_UnpolledTaskExpires(t *testing.T) {
	responder := funcResponder(func(context.Context, *providers.Provider, *providers.Request) (string, error) {
		time.Sleep(40 * time.Millisecond)
		return "slow", nil
	})
	observer := &countingObserver{}
	o := newTestOrchestrator(t, responder, Options{WaitTimeout: 10 * time.Millisecond, KeepAlive: 100 * time.Millisecond}).
		WithObserver(observer)

	taskID := taskIDFrom(t, o.Relay(context.Background(), &providers.Request{ProviderID: "mock", Payload: []byte("{}")}))

	waitFor(t, func() bool { return observer.evicted.Load() == 1 })
	if resp := o.Poll(taskID); resp.Status != http.StatusNotFound {
		t.Errorf("poll after expiry = %d, want 404", resp.Status)
	}
}

func TestOrchestrator_PollValidation(t *testing.T) {
	o := newTestOrchestrator(t, newGatedResponder(""), Options{})

	if resp := o.Poll(" "); resp.Status != http.StatusBadRequest {
		t.Errorf("blank id status = %d, want 400", resp.Status)
	}
	if resp := o.Poll("00000000-0000-0000-0000-000000000000"); resp.Status != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", resp.Status)
	}
}

func TestOrchestrator_ConcurrentPollsConsumeOnce(t *testing.T) {
	responder := newGatedResponder("once")
	o := newTestOrchestrator(t, responder, Options{WaitTimeout: 10 * time.Millisecond})

	taskID := taskIDFrom(t, o.Relay(context.Background(), &providers.Request{ProviderID: "mock", Payload: []byte("{}")}))
	close(responder.release)
	waitDone(t, o, taskID)

	var delivered atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if resp := o.Poll(taskID); resp.Body == "once" {
				delivered.Add(1)
			}
		}()
	}
	wg.Wait()

	if delivered.Load() != 1 {
		t.Errorf("result delivered %d times, want 1", delivered.Load())
	}
}

func TestOrchestrator_ClosedRejectsWork(t *testing.T) {
	o := NewOrchestrator(testLookup(), newGatedResponder(""), Options{})
	o.Close()

	resp := o.Relay(context.Background(), &providers.Request{ProviderID: "mock", Payload: []byte("{}")})
	if resp.Status != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.Status)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{ErrProviderMissing, http.StatusBadRequest},
		{ErrTaskNotSpecified, http.StatusBadRequest},
		{ErrProviderNotFound, http.StatusNotFound},
		{ErrTaskNotFound, http.StatusNotFound},
		{ErrNoResult, http.StatusServiceUnavailable},
		{ErrInterrupted, http.StatusServiceUnavailable},
		{providers.ErrEmptyPayload, http.StatusInternalServerError},
		{&providers.ExhaustedError{URL: "x"}, http.StatusInternalServerError},
		{errors.New("anything"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestErrorResponse_EscapesMessage(t *testing.T) {
	resp := ErrorResponse(errors.New(`bad "quote"`))
	if resp.Body != `{"error":"bad \"quote\""}` {
		t.Errorf("body = %s", resp.Body)
	}
}
