package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/prprunner/internal/coverage"
	"github.com/fyrsmithlabs/prprunner/internal/logging"
	"github.com/fyrsmithlabs/prprunner/internal/taskgraph"
	"github.com/fyrsmithlabs/prprunner/internal/tracker"
)

const instrumentationName = "github.com/fyrsmithlabs/prprunner/internal/orchestrator"

// Coordinator drives plan execution group by group.
type Coordinator struct {
	gate     *Gate
	coverage *coverage.Tracker
	tracker  *tracker.Adapter
	logger   *logging.Logger

	tracer      trace.Tracer
	meter       metric.Meter
	taskCounter metric.Int64Counter
	haltCounter metric.Int64Counter
}

// NewCoordinator creates a coordinator. The tracker adapter is required
// (use a degraded adapter when no tracker is configured); gate and
// coverage tracker are the two quality gates and are required.
func NewCoordinator(gate *Gate, cov *coverage.Tracker, adapter *tracker.Adapter, logger *logging.Logger) (*Coordinator, error) {
	if gate == nil {
		return nil, errors.New("validation gate is required")
	}
	if cov == nil {
		return nil, errors.New("coverage tracker is required")
	}
	if adapter == nil {
		return nil, errors.New("tracker adapter is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	c := &Coordinator{
		gate:     gate,
		coverage: cov,
		tracker:  adapter,
		logger:   logger,
		tracer:   otel.Tracer(instrumentationName),
		meter:    otel.Meter(instrumentationName),
	}

	c.initMetrics()

	return c, nil
}

// initMetrics initializes OpenTelemetry metrics.
func (c *Coordinator) initMetrics() {
	var err error

	c.taskCounter, err = c.meter.Int64Counter(
		"prprunner.tasks_executed_total",
		metric.WithDescription("Total tasks dispatched to executors"),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		c.logger.Warn(context.Background(), "failed to create task counter", zap.Error(err))
	}

	c.haltCounter, err = c.meter.Int64Counter(
		"prprunner.pipeline_halts_total",
		metric.WithDescription("Pipeline halts by cause"),
		metric.WithUnit("{halt}"),
	)
	if err != nil {
		c.logger.Warn(context.Background(), "failed to create halt counter", zap.Error(err))
	}
}

// Run executes the groups in order and finishes with the coverage gate.
//
// The run id is stored in context before anything is logged, so every
// record below carries the run correlation fields.
//
// The returned report is non-nil whenever coverage was computed, including
// the CoverageError case, so callers can show partial progress without
// ever mistaking it for success.
func (c *Coordinator) Run(ctx context.Context, groups []taskgraph.ExecutionGroup, executor TaskExecutor) (*coverage.Report, error) {
	if executor == nil {
		return nil, errors.New("task executor is required")
	}

	runID := uuid.New().String()
	ctx = logging.WithRunID(ctx, runID)

	ctx, span := c.tracer.Start(ctx, "coordinator.run", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.Int("group_count", len(groups)),
	))
	defer span.End()

	title := "prp run " + runID
	if scope := logging.ScopeFromContext(ctx); scope != "" {
		title = "prp: " + scope
	}
	projectID := c.tracker.CreateProject(ctx, title)

	started := time.Now()
	c.logger.Info(ctx, "starting pipeline",
		zap.String("project_id", projectID),
		zap.Int("groups", len(groups)),
	)

	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		if err := c.runGroup(ctx, group, executor); err != nil {
			c.recordHalt(ctx, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	report, err := c.coverage.Compute(ctx, flatten(groups))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if report.Status != coverage.StatusComplete {
		err := &CoverageError{Report: report}
		c.recordHalt(ctx, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return report, err
	}

	c.logger.Info(ctx, "pipeline complete",
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("groups", len(groups)),
		zap.Float64("coverage", report.CoveragePercentage),
	)
	span.SetAttributes(attribute.Float64("coverage", report.CoveragePercentage))

	return report, nil
}

// runGroup dispatches one group, gates its successful tasks, and decides
// halt-or-continue. Tasks in the next group never start until every task
// here has executed and passed its gate.
func (c *Coordinator) runGroup(ctx context.Context, group taskgraph.ExecutionGroup, executor TaskExecutor) error {
	ctx, span := c.tracer.Start(ctx, "coordinator.group", trace.WithAttributes(
		attribute.Int("group_index", group.Index),
		attribute.String("mode", string(group.Mode)),
		attribute.Int("task_count", len(group.Tasks)),
	))
	defer span.End()

	started := time.Now()
	for _, t := range group.Tasks {
		c.tracker.SetStatus(ctx, t.ID, tracker.StatusDoing)
	}

	var results []ExecutionResult
	if group.Mode == taskgraph.ModeParallel {
		results = c.dispatchParallel(ctx, group.Tasks, executor)
	} else {
		results = c.dispatchSequential(ctx, group.Tasks, executor)
	}

	if c.taskCounter != nil {
		c.taskCounter.Add(ctx, int64(len(results)), metric.WithAttributes(
			attribute.String("mode", string(group.Mode)),
		))
	}

	taskByID := make(map[int]taskgraph.Task, len(group.Tasks))
	for _, t := range group.Tasks {
		taskByID[t.ID] = t
	}

	var errs error
	failed := make(map[int]bool)
	passed := make(map[int]bool)

	for _, r := range results {
		if !r.Succeeded {
			failed[r.TaskID] = true
			errs = multierr.Append(errs, &ExecutionError{TaskID: r.TaskID, Err: r.Err})
		}
	}

	// Gate only the tasks that executed successfully; failed executions
	// are reported as ExecutionError, never validated.
	for _, r := range results {
		if !r.Succeeded {
			continue
		}
		vr := c.gate.Check(ctx, taskByID[r.TaskID])
		if vr.Passed {
			passed[vr.TaskID] = true
		} else {
			failed[vr.TaskID] = true
			errs = multierr.Append(errs, &ValidationError{TaskID: vr.TaskID, Detail: vr.Detail})
		}
	}

	if errs != nil {
		// Mirror reality on halt: tasks that passed their gate stay done,
		// offenders and tasks never dispatched go back to todo.
		var offenders []int
		for _, t := range group.Tasks {
			switch {
			case passed[t.ID]:
				c.tracker.SetStatus(ctx, t.ID, tracker.StatusDone)
			case failed[t.ID]:
				offenders = append(offenders, t.ID)
				c.tracker.SetStatus(ctx, t.ID, tracker.StatusTodo)
			default:
				c.tracker.SetStatus(ctx, t.ID, tracker.StatusTodo)
			}
		}
		c.logger.Error(ctx, "group failed, halting pipeline",
			zap.Int("group_index", group.Index),
			zap.Ints("offending_tasks", offenders),
			zap.Error(errs),
		)
		return errs
	}

	for _, t := range group.Tasks {
		c.tracker.SetStatus(ctx, t.ID, tracker.StatusDone)
	}

	c.logger.Info(ctx, "group complete",
		zap.Int("group_index", group.Index),
		zap.String("mode", string(group.Mode)),
		zap.Int("tasks", len(group.Tasks)),
		zap.Duration("elapsed", time.Since(started)),
	)

	return nil
}

// dispatchParallel runs every task in the batch concurrently and waits on
// a join barrier. A failing task never cancels its siblings; they run to
// completion and the group is judged afterwards.
func (c *Coordinator) dispatchParallel(ctx context.Context, tasks []taskgraph.Task, executor TaskExecutor) []ExecutionResult {
	results := make([]ExecutionResult, len(tasks))

	var wg sync.WaitGroup
	for i, t := range tasks {
		wg.Add(1)
		go func(i int, t taskgraph.Task) {
			defer wg.Done()
			results[i] = executor.Execute(logging.WithTaskID(ctx, t.ID), t)
		}(i, t)
	}
	wg.Wait()

	return results
}

// dispatchSequential runs tasks one at a time and stops issuing further
// tasks the moment one fails. Results cover only the tasks that were
// actually dispatched.
func (c *Coordinator) dispatchSequential(ctx context.Context, tasks []taskgraph.Task, executor TaskExecutor) []ExecutionResult {
	var results []ExecutionResult
	for _, t := range tasks {
		r := executor.Execute(logging.WithTaskID(ctx, t.ID), t)
		results = append(results, r)
		if !r.Succeeded {
			break
		}
	}
	return results
}

// recordHalt counts a pipeline halt by error kind.
func (c *Coordinator) recordHalt(ctx context.Context, err error) {
	if c.haltCounter == nil {
		return
	}

	kind := "execution"
	var vErr *ValidationError
	var cErr *CoverageError
	switch {
	case errors.As(err, &vErr):
		kind = "validation"
	case errors.As(err, &cErr):
		kind = "coverage"
	}

	c.haltCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("cause", kind)))
}

// flatten collects every task from the ordered groups.
func flatten(groups []taskgraph.ExecutionGroup) []taskgraph.Task {
	var tasks []taskgraph.Task
	for _, g := range groups {
		tasks = append(tasks, g.Tasks...)
	}
	return tasks
}
