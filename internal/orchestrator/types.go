package orchestrator

import (
	"context"

	"github.com/fyrsmithlabs/prprunner/internal/taskgraph"
)

// TaskExecutor executes one task. Real subagents implement this; the
// orchestrator only sees the outcome and the artifacts the gate verifies.
type TaskExecutor interface {
	// Execute runs the task and reports its outcome. Implementations
	// write the task's artifact through the artifact store before
	// returning success.
	Execute(ctx context.Context, task taskgraph.Task) ExecutionResult
}

// ExecutionResult is one task's execution outcome. Transient: consumed by
// the coordinator, never persisted.
type ExecutionResult struct {
	TaskID    int
	Succeeded bool
	Err       error
}

// ValidationResult is the gate's verdict for one task, produced right
// after a successful ExecutionResult is observed.
type ValidationResult struct {
	TaskID        int
	ArtifactPath  string
	Exists        bool
	ContentLength int
	Passed        bool
	Detail        *ErrorDetail
}
