// Package executor provides TaskExecutor implementations for the prprun CLI.
package executor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/prprunner/internal/logging"
	"github.com/fyrsmithlabs/prprunner/internal/orchestrator"
	"github.com/fyrsmithlabs/prprunner/internal/taskgraph"
)

// Command runs one external command per task. The task is described to the
// child process through environment variables:
//
//	PRP_TASK_ID        numeric task id
//	PRP_TASK_NAME      task name
//	PRP_ARTIFACT_PATH  scope-relative path the task must write
//
// The command is expected to produce the contracted artifact; the
// validation gate judges the result afterwards.
type Command struct {
	argv    []string
	dir     string
	timeout time.Duration
	logger  *logging.Logger
}

// NewCommand creates a command executor. argv must name the program and
// its fixed arguments; timeout bounds each task (zero means no limit).
func NewCommand(argv []string, dir string, timeout time.Duration, logger *logging.Logger) (*Command, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("executor command is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Command{argv: argv, dir: dir, timeout: timeout, logger: logger}, nil
}

// Execute runs the command for one task and reports the outcome.
func (c *Command) Execute(ctx context.Context, task taskgraph.Task) orchestrator.ExecutionResult {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.argv[0], c.argv[1:]...)
	cmd.Dir = c.dir
	cmd.Env = append(os.Environ(),
		"PRP_TASK_ID="+strconv.Itoa(task.ID),
		"PRP_TASK_NAME="+task.Name,
		"PRP_ARTIFACT_PATH="+task.Validation.ArtifactPath(task.ID),
	)

	started := time.Now()
	output, err := cmd.CombinedOutput()
	elapsed := time.Since(started)

	if err != nil {
		c.logger.Warn(ctx, "task command failed",
			zap.Int("task_id", task.ID),
			zap.Duration("elapsed", elapsed),
			zap.ByteString("output", tail(output, 2048)),
			zap.Error(err),
		)
		return orchestrator.ExecutionResult{
			TaskID: task.ID,
			Err:    fmt.Errorf("task %d command failed: %w", task.ID, err),
		}
	}

	c.logger.Debug(ctx, "task command complete",
		zap.Int("task_id", task.ID),
		zap.Duration("elapsed", elapsed),
	)

	return orchestrator.ExecutionResult{TaskID: task.ID, Succeeded: true}
}

// Manual assumes task work happens out of band and every artifact already
// exists. Execute always succeeds; only the gates judge the run. Useful for
// re-validating a tree or resuming after manual fixes.
type Manual struct{}

// Execute reports success without doing any work.
func (Manual) Execute(ctx context.Context, task taskgraph.Task) orchestrator.ExecutionResult {
	return orchestrator.ExecutionResult{TaskID: task.ID, Succeeded: true}
}

// tail returns at most n trailing bytes of b.
func tail(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[len(b)-n:]
}
