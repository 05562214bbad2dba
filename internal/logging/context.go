package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 6)

	// Trace correlation (from OpenTelemetry)
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}

	// Run correlation
	if runID := RunIDFromContext(ctx); runID != "" {
		fields = append(fields, zap.String("run.id", runID))
	}
	if scope := ScopeFromContext(ctx); scope != "" {
		fields = append(fields, zap.String("run.scope", scope))
	}
	if taskID, ok := TaskIDFromContext(ctx); ok {
		fields = append(fields, zap.Int("task.id", taskID))
	}

	return fields
}

// Context key types
type runCtxKey struct{}
type scopeCtxKey struct{}
type taskCtxKey struct{}
type loggerCtxKey struct{}

// WithRunID adds the pipeline run id to context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runCtxKey{}, runID)
}

// RunIDFromContext extracts the run id from context.
func RunIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(runCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// WithScope adds the feature scope to context.
func WithScope(ctx context.Context, scope string) context.Context {
	return context.WithValue(ctx, scopeCtxKey{}, scope)
}

// ScopeFromContext extracts the feature scope from context.
func ScopeFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(scopeCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// WithTaskID adds the task id being executed to context.
func WithTaskID(ctx context.Context, taskID int) context.Context {
	return context.WithValue(ctx, taskCtxKey{}, taskID)
}

// TaskIDFromContext extracts the task id from context.
func TaskIDFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(taskCtxKey{}).(int)
	return id, ok
}

// WithLogger stores logger in context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext retrieves logger from context.
// Returns a nop logger if not found.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok {
		return l
	}
	return NewNop()
}
