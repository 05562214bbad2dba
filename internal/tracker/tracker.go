// Package tracker mirrors task lifecycle to an optional external
// project-tracking service. Every call through the Adapter is best-effort:
// a tracker outage can never fail the pipeline.
package tracker

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/prprunner/internal/tracker"

// Status is a task lifecycle state mirrored to the tracker.
type Status string

const (
	StatusTodo  Status = "todo"
	StatusDoing Status = "doing"
	StatusDone  Status = "done"
)

// ExternalTracker is the contract an external tracking service implements.
type ExternalTracker interface {
	// HealthCheck reports whether the tracker is reachable.
	HealthCheck(ctx context.Context) bool

	// CreateProject registers a project and returns its id.
	CreateProject(ctx context.Context, title string) (string, error)

	// SetStatus updates one task's lifecycle status.
	SetStatus(ctx context.Context, taskID int, status Status) error
}

// Adapter wraps an ExternalTracker with graceful degradation. The health
// check runs once at construction; after a failed check every call is a
// silent no-op for the adapter's lifetime. Availability is carried here as
// a value, never as package state, so coordinators can be tested with the
// tracker present or absent side by side.
type Adapter struct {
	tracker   ExternalTracker
	available bool
	logger    *zap.Logger

	meter          metric.Meter
	droppedCounter metric.Int64Counter
}

// NewAdapter probes the tracker once and returns an adapter in either
// live or degraded mode. A nil tracker yields a permanently degraded
// adapter.
func NewAdapter(ctx context.Context, t ExternalTracker, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &Adapter{
		tracker: t,
		logger:  logger,
		meter:   otel.Meter(instrumentationName),
	}

	var err error
	a.droppedCounter, err = a.meter.Int64Counter(
		"prprunner.tracker.dropped_calls_total",
		metric.WithDescription("Tracker calls dropped while degraded or failing"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		logger.Warn("failed to create dropped-calls counter", zap.Error(err))
	}

	if t == nil {
		logger.Info("no tracker configured, running degraded")
		return a
	}

	a.available = t.HealthCheck(ctx)
	if !a.available {
		logger.Warn("tracker health check failed, degrading to no-op for this run")
	}

	return a
}

// Available reports whether the adapter passed its startup health check.
func (a *Adapter) Available() bool {
	return a.available
}

// CreateProject registers the run's project. Returns an empty id in
// degraded mode or on failure; neither is an error to the caller.
func (a *Adapter) CreateProject(ctx context.Context, title string) string {
	if !a.available {
		a.recordDropped(ctx, "create_project")
		return ""
	}

	id, err := a.tracker.CreateProject(ctx, title)
	if err != nil {
		a.recordDropped(ctx, "create_project")
		a.logger.Debug("tracker create project failed", zap.Error(err), zap.String("title", title))
		return ""
	}
	return id
}

// SetStatus mirrors a task status change. Failures are logged and counted,
// never surfaced.
func (a *Adapter) SetStatus(ctx context.Context, taskID int, status Status) {
	if !a.available {
		a.recordDropped(ctx, "set_status")
		return
	}

	if err := a.tracker.SetStatus(ctx, taskID, status); err != nil {
		a.recordDropped(ctx, "set_status")
		a.logger.Debug("tracker status update failed",
			zap.Error(err),
			zap.Int("task_id", taskID),
			zap.String("status", string(status)),
		)
	}
}

func (a *Adapter) recordDropped(ctx context.Context, op string) {
	if a.droppedCounter != nil {
		a.droppedCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("op", op),
		))
	}
}
