// Package coverage computes the final quality gate: the fraction of
// declared tasks with a passing artifact, re-derived from the artifact
// store rather than from in-memory validation results. Re-scanning catches
// artifacts removed after their own gate passed.
package coverage

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/prprunner/internal/artifact"
	"github.com/fyrsmithlabs/prprunner/internal/taskgraph"
)

// Status is the outcome of the coverage computation.
type Status string

const (
	StatusComplete   Status = "COMPLETE"
	StatusIncomplete Status = "INCOMPLETE"
)

// Report summarizes artifact coverage for a task set.
type Report struct {
	TotalTasks         int     `json:"total_tasks"`
	ValidatedCount     int     `json:"validated_count"`
	CoveragePercentage float64 `json:"coverage_percentage"`
	MissingTaskIDs     []int   `json:"missing_task_ids"`
	Status             Status  `json:"status"`
}

// Lister lists artifact paths for a feature scope.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// Tracker computes coverage reports from an artifact store.
type Tracker struct {
	store  Lister
	logger *zap.Logger
}

// NewTracker creates a coverage tracker over the given store.
func NewTracker(store Lister, logger *zap.Logger) (*Tracker, error) {
	if store == nil {
		return nil, fmt.Errorf("artifact store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{store: store, logger: logger}, nil
}

// Compute lists all artifacts matching the naming contract, extracts their
// task ids, and compares against the full task set. It never mutates
// upstream state. A task counts as covered when any canonical artifact
// carries its id.
func (t *Tracker) Compute(ctx context.Context, tasks []taskgraph.Task) (*Report, error) {
	paths, err := t.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan artifact store: %w", err)
	}

	found := make(map[int]bool)
	for _, p := range paths {
		if id, ok := artifact.ParseTaskID(p); ok {
			found[id] = true
		}
	}

	report := &Report{
		TotalTasks:     len(tasks),
		MissingTaskIDs: []int{},
	}

	for _, task := range tasks {
		if found[task.ID] {
			report.ValidatedCount++
		} else {
			report.MissingTaskIDs = append(report.MissingTaskIDs, task.ID)
		}
	}
	sort.Ints(report.MissingTaskIDs)

	if report.TotalTasks == 0 {
		report.CoveragePercentage = 100.0
	} else {
		pct := 100 * float64(report.ValidatedCount) / float64(report.TotalTasks)
		report.CoveragePercentage = math.Round(pct*10) / 10
	}

	if len(report.MissingTaskIDs) == 0 {
		report.Status = StatusComplete
	} else {
		report.Status = StatusIncomplete
	}

	t.logger.Info("computed coverage",
		zap.Int("total_tasks", report.TotalTasks),
		zap.Int("validated", report.ValidatedCount),
		zap.Float64("percentage", report.CoveragePercentage),
		zap.Ints("missing", report.MissingTaskIDs),
		zap.String("status", string(report.Status)),
	)

	return report, nil
}
