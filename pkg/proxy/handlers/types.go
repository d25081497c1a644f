package handlers

import (
	"context"
	"time"

	"insider-hq/relay/pkg/items"
	"insider-hq/relay/pkg/providers"
	"insider-hq/relay/pkg/registry"
)

// Relayer dispatches relay requests and answers task polls.
type Relayer interface {
	Relay(ctx context.Context, req *providers.Request) providers.StatusResponse
	Poll(taskID string) providers.StatusResponse
}

// Recorder receives per-request relay metrics.
type Recorder interface {
	RecordRelay(provider string, status int, detached bool, duration time.Duration)
	RecordPoll(status int)
}

// ItemStore is the part of items.Store used by the config endpoints.
type ItemStore interface {
	items.Lister
	Put(ctx context.Context, it *items.Item) error
}

// ProviderDirectory describes the configured providers.
type ProviderDirectory interface {
	Summaries() []registry.Summary
	EnabledCount() int
}

type noopRecorder struct{}

func (noopRecorder) RecordRelay(string, int, bool, time.Duration) {}
func (noopRecorder) RecordPoll(int)                               {}
