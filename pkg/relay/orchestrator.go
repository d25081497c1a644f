package relay

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alitto/pond/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"insider-hq/relay/pkg/config"
	"insider-hq/relay/pkg/providers"
	"insider-hq/relay/pkg/telemetry/logging"
	"insider-hq/relay/pkg/telemetry/tracing"
)

// ProviderLookup resolves enabled providers by exact id. It is queried on
// every request, so reconfiguration takes effect immediately.
type ProviderLookup interface {
	Lookup(id string) (*providers.Provider, bool)
}

// Responder produces the provider response for a request.
// *providers.RetryingProvider implements it.
type Responder interface {
	GetResponse(ctx context.Context, p *providers.Provider, req *providers.Request) (string, error)
}

// Observer is notified about task and pending result lifecycle events.
type Observer interface {
	TaskStarted()
	TaskFinished()
	ResultStored()
	ResultClaimed()
	ResultEvicted()
}

type noopObserver struct{}

func (noopObserver) TaskStarted()   {}
func (noopObserver) TaskFinished()  {}
func (noopObserver) ResultStored()  {}
func (noopObserver) ResultClaimed() {}
func (noopObserver) ResultEvicted() {}

// Options configures an Orchestrator.
type Options struct {
	// WaitTimeout is how long Relay blocks before answering 202.
	WaitTimeout time.Duration

	// KeepAlive is how long a deferred task stays pollable.
	KeepAlive time.Duration

	// MaxConcurrency bounds tasks executing at once. 0 means unbounded.
	MaxConcurrency int

	// DryRun forces every request into dry-run mode.
	DryRun bool
}

// OptionsFromConfig converts the relay section of the configuration.
func OptionsFromConfig(cfg config.RelayConfig) Options {
	return Options{
		WaitTimeout:    cfg.WaitTimeout,
		KeepAlive:      cfg.CacheKeepAlive,
		MaxConcurrency: cfg.MaxConcurrency,
		DryRun:         cfg.DryRun,
	}
}

// Task is a relay computation that outlived the request that started it.
type Task struct {
	ProviderID string
	Created    time.Time
	result     pond.Result[providers.StatusResponse]
}

// Done reports whether the task finished, successfully or not.
func (t *Task) Done() bool {
	select {
	case <-t.result.Done():
		return true
	default:
		return false
	}
}

// Orchestrator answers relay requests inline when the provider is fast enough
// and hands out pollable task ids otherwise.
type Orchestrator struct {
	providers ProviderLookup
	responder Responder
	opts      Options

	pool     pond.ResultPool[providers.StatusResponse]
	tasks    *Cache[*Task]
	observer Observer
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewOrchestrator creates an Orchestrator with its own worker pool and task
// cache. Zero durations in opts fall back to the configured defaults.
func NewOrchestrator(lookup ProviderLookup, responder Responder, opts Options) *Orchestrator {
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = config.DefaultWaitTimeout
	}
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = config.DefaultCacheKeepAlive
	}
	if opts.MaxConcurrency < 0 {
		opts.MaxConcurrency = 0
	}

	o := &Orchestrator{
		providers: lookup,
		responder: responder,
		opts:      opts,
		pool:      pond.NewResultPool[providers.StatusResponse](opts.MaxConcurrency),
		tasks:     NewCache[*Task](opts.KeepAlive),
		observer:  noopObserver{},
		logger:    slog.Default().With("component", "relay.orchestrator"),
		tracer:    otel.Tracer(tracing.InstrumentationName),
	}
	o.tasks.OnEvict(o.evicted)
	return o
}

// WithObserver sets the lifecycle observer and returns o.
func (o *Orchestrator) WithObserver(obs Observer) *Orchestrator {
	if obs != nil {
		o.observer = obs
	}
	return o
}

// WithLogger sets the logger and returns o.
func (o *Orchestrator) WithLogger(l *slog.Logger) *Orchestrator {
	if l != nil {
		o.logger = l
	}
	return o
}

// Relay dispatches req to its provider and waits up to the wait timeout.
//
// A result available in time is returned as is. Otherwise the still running
// task is parked under a new task id and a 202 {"task": "<id>"} is returned;
// the task keeps running even if ctx is cancelled.
func (o *Orchestrator) Relay(ctx context.Context, req *providers.Request) providers.StatusResponse {
	providerID := strings.TrimSpace(req.ProviderID)
	if providerID == "" {
		return ErrorResponse(ErrProviderMissing)
	}

	p, ok := o.providers.Lookup(providerID)
	if !ok {
		o.logger.WarnContext(ctx, "unknown provider requested", "provider", providerID)
		return ErrorResponse(ErrProviderNotFound)
	}

	if o.opts.DryRun {
		req.DryRun = true
	}

	ctx = logging.WithProvider(ctx, p.ID)
	ctx, span := o.tracer.Start(ctx, "relay.dispatch",
		trace.WithAttributes(attribute.String(tracing.AttrProviderID, p.ID)),
	)
	defer span.End()

	if o.pool.Stopped() {
		return ErrorResponse(ErrInterrupted)
	}

	taskCtx := context.WithoutCancel(ctx)
	o.observer.TaskStarted()
	result := o.pool.Submit(func() providers.StatusResponse {
		defer o.observer.TaskFinished()
		return o.execute(taskCtx, p, req)
	})

	timer := time.NewTimer(o.opts.WaitTimeout)
	defer timer.Stop()

	select {
	case <-result.Done():
		resp, err := result.Wait()
		if err != nil {
			o.logger.ErrorContext(ctx, "relay task failed", "error", err)
			tracing.SetError(span, err)
			return ErrorResponse(ErrInterrupted)
		}
		span.SetAttributes(attribute.Int(tracing.AttrStatusCode, resp.Status))
		return resp
	case <-timer.C:
	case <-ctx.Done():
		o.logger.DebugContext(ctx, "caller went away, keeping task", "error", ctx.Err())
	}

	taskID := o.tasks.Put(&Task{ProviderID: p.ID, Created: time.Now(), result: result})
	o.observer.ResultStored()
	tracing.SetTaskAttributes(span, taskID, true)
	o.logger.InfoContext(logging.WithTaskID(ctx, taskID), "provider is slow, response deferred",
		"wait_timeout", o.opts.WaitTimeout,
	)

	return taskResponse(http.StatusAccepted, taskID)
}

// execute runs inside the pool.
func (o *Orchestrator) execute(ctx context.Context, p *providers.Provider, req *providers.Request) providers.StatusResponse {
	body, err := o.responder.GetResponse(ctx, p, req)
	if err != nil {
		return ErrorResponse(err)
	}
	return providers.StatusResponse{Status: http.StatusOK, Body: body}
}

// Poll returns the state of a deferred task. A finished task is handed out
// once; later polls report ErrTaskNotFound.
func (o *Orchestrator) Poll(taskID string) providers.StatusResponse {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return ErrorResponse(ErrTaskNotSpecified)
	}

	task, ok := o.tasks.Get(taskID)
	if !ok {
		return ErrorResponse(ErrTaskNotFound)
	}
	if !task.Done() {
		return taskResponse(http.StatusOK, taskID)
	}

	if _, ok := o.tasks.Take(taskID); !ok {
		return ErrorResponse(ErrTaskNotFound)
	}
	o.observer.ResultClaimed()

	resp, err := task.result.Wait()
	if err != nil {
		o.logger.Error("deferred task failed", "task_id", taskID, "provider", task.ProviderID, "error", err)
		return ErrorResponse(ErrNoResult)
	}
	return resp
}

// Pending returns the number of parked tasks.
func (o *Orchestrator) Pending() int {
	return o.tasks.Len()
}

// Close stops accepting work, waits for running tasks and drops parked ones.
func (o *Orchestrator) Close() {
	o.pool.StopAndWait()
	o.tasks.Close()
}

func (o *Orchestrator) evicted(taskID string, task *Task) {
	o.observer.ResultEvicted()
	o.logger.Info("deferred result expired before it was polled",
		"task_id", taskID,
		"provider", task.ProviderID,
		"age", time.Since(task.Created).Round(time.Millisecond),
	)
}
