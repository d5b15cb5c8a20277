package log

import (
	"context"
	"log/slog"
	"strings"
)

type httpLogContextKey struct{}

// HTTPLogContext is request metadata attached to HTTP trace logs.
type HTTPLogContext struct {
	CommandPath string
	Frontend    string
	RunID       string
	Model       string
}

var HTTPLogContextKey = httpLogContextKey{}

// WithHTTPLogContext merges non-empty fields from update into ctx.
func WithHTTPLogContext(ctx context.Context, update HTTPLogContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	current := HTTPLogContextFromContext(ctx)
	merge(&current.CommandPath, update.CommandPath)
	merge(&current.Frontend, update.Frontend)
	merge(&current.RunID, update.RunID)
	merge(&current.Model, update.Model)

	return context.WithValue(ctx, HTTPLogContextKey, current)
}

func HTTPLogContextFromContext(ctx context.Context) HTTPLogContext {
	if ctx == nil {
		return HTTPLogContext{}
	}
	if value, ok := ctx.Value(HTTPLogContextKey).(HTTPLogContext); ok {
		return value
	}
	return HTTPLogContext{}
}

// HTTPLogContextAttrs converts the metadata on ctx to slog attributes.
func HTTPLogContextAttrs(ctx context.Context) []slog.Attr {
	meta := HTTPLogContextFromContext(ctx)
	attrs := make([]slog.Attr, 0, 4)
	appendAttr(&attrs, "command_path", meta.CommandPath)
	appendAttr(&attrs, "frontend", meta.Frontend)
	appendAttr(&attrs, "run_id", meta.RunID)
	appendAttr(&attrs, "model", meta.Model)
	return attrs
}

func merge(target *string, value string) {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		*target = trimmed
	}
}

func appendAttr(attrs *[]slog.Attr, key, value string) {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		*attrs = append(*attrs, slog.String(key, trimmed))
	}
}
