package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogPipelineHooks reports pipeline events at debug level.
type LogPipelineHooks struct {
	Logger *log.Logger
}

func (h LogPipelineHooks) OnResolveStart(_ context.Context, rooms, objects int) {
	h.Logger.Debug("resolve start", "rooms", rooms, "objects", objects)
}

func (h LogPipelineHooks) OnStage(_ context.Context, stage string, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("stage failed", "stage", stage, "duration", d, "err", err)
		return
	}
	h.Logger.Debug("stage done", "stage", stage, "duration", d)
}

func (h LogPipelineHooks) OnResolveComplete(_ context.Context, objects int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("resolve failed", "duration", d, "err", err)
		return
	}
	h.Logger.Debug("resolve done", "objects", objects, "duration", d)
}

// LogHTTPHooks reports outgoing HTTP calls at debug level.
type LogHTTPHooks struct {
	Logger *log.Logger
}

func (h LogHTTPHooks) OnRequest(_ context.Context, method, host, path string) {
	h.Logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h LogHTTPHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.Logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "duration", d)
}

func (h LogHTTPHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.Logger.Warn("http error", "method", method, "host", host, "path", path, "err", err)
}
