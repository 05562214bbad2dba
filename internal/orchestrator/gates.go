package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/prprunner/internal/artifact"
	"github.com/fyrsmithlabs/prprunner/internal/logging"
	"github.com/fyrsmithlabs/prprunner/internal/taskgraph"
)

// DefaultMinContentLength is the character count below which an artifact
// is treated as too short rather than present.
const DefaultMinContentLength = 100

// ArtifactReader is the slice of the artifact store the gate needs.
type ArtifactReader interface {
	Read(ctx context.Context, rel string) ([]byte, error)
}

// Gate verifies that a task's declared artifact exists and meets the
// minimum-content policy.
type Gate struct {
	store      ArtifactReader
	minContent int
	logger     *logging.Logger
}

// NewGate creates a validation gate over the given artifact store.
// minContent <= 0 selects DefaultMinContentLength.
func NewGate(store ArtifactReader, minContent int, logger *logging.Logger) (*Gate, error) {
	if store == nil {
		return nil, errors.New("artifact store is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if minContent <= 0 {
		minContent = DefaultMinContentLength
	}

	return &Gate{
		store:      store,
		minContent: minContent,
		logger:     logger,
	}, nil
}

// Check resolves the task's expected artifact path and verifies it in a
// single attempt-read. There is no separate existence probe: a file
// deleted between a stat and a read would pass a check-then-read gate,
// so not-found is classified from the read itself.
func (g *Gate) Check(ctx context.Context, task taskgraph.Task) ValidationResult {
	expected := task.Validation.ArtifactPath(task.ID)
	threshold := task.Validation.MinContentLength
	if threshold <= 0 {
		threshold = g.minContent
	}

	content, err := g.store.Read(ctx, expected)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			return g.missing(task, expected)
		}
		// Unreadable for another reason: the artifact is present, only the
		// read failed. Same halting shape, different problem.
		return ValidationResult{
			TaskID:       task.ID,
			ArtifactPath: expected,
			Exists:       true,
			Detail: &ErrorDetail{
				Problem:      fmt.Sprintf("artifact for task %d could not be read: %v", task.ID, err),
				ExpectedPath: expected,
				Impact:       "the task cannot be verified, so the pipeline cannot advance past this group",
				Troubleshooting: []string{
					"check permissions on the output root",
					"confirm no other process holds the artifact open",
				},
				Resolutions: []string{
					"fix the underlying filesystem issue and re-run the plan",
					"abort the run",
				},
			},
		}
	}

	length := utf8.RuneCount(content)
	if length < threshold {
		return g.tooShort(task, expected, length, threshold)
	}

	g.logger.Debug(ctx, "validation gate passed",
		zap.Int("task_id", task.ID),
		zap.String("artifact", expected),
		zap.Int("content_length", length),
	)

	return ValidationResult{
		TaskID:        task.ID,
		ArtifactPath:  expected,
		Exists:        true,
		ContentLength: length,
		Passed:        true,
	}
}

func (g *Gate) missing(task taskgraph.Task, expected string) ValidationResult {
	return ValidationResult{
		TaskID:       task.ID,
		ArtifactPath: expected,
		Detail: &ErrorDetail{
			Problem:      fmt.Sprintf("task %d (%s) produced no artifact", task.ID, task.Name),
			ExpectedPath: expected,
			Impact:       "without a completion artifact the task cannot be verified; later groups depending on it will not be dispatched",
			Troubleshooting: []string{
				"confirm the executor writes TASK{n}_{TYPE}.{ext} with no separator between TASK and the number",
				"confirm the task actually ran and did not exit before writing its report",
				"confirm the artifact was written under the expected phase directory",
			},
			Resolutions: []string{
				"re-run the plan so the task executes again",
				"author the artifact manually at the expected path, then re-run",
				"abort the run",
			},
		},
	}
}

func (g *Gate) tooShort(task taskgraph.Task, expected string, length, threshold int) ValidationResult {
	return ValidationResult{
		TaskID:        task.ID,
		ArtifactPath:  expected,
		Exists:        true,
		ContentLength: length,
		Detail: &ErrorDetail{
			Problem:      fmt.Sprintf("artifact for task %d is too short: %d characters, minimum %d", task.ID, length, threshold),
			ExpectedPath: expected,
			Impact:       "a near-empty artifact usually means the task wrote a placeholder instead of a real report; advancing would hide the gap",
			Troubleshooting: []string{
				"inspect the artifact content for truncation or placeholder text",
				"confirm the executor completed its work before writing the report",
			},
			Resolutions: []string{
				"re-run the plan so the task produces a full report",
				"extend the artifact manually, then re-run",
				"abort the run",
			},
		},
	}
}
