// Package taskgraph models PRP task lists and partitions them into
// dependency-respecting execution groups.
package taskgraph

import (
	"path"

	"github.com/fyrsmithlabs/prprunner/internal/artifact"
)

// Task is one unit of work declared by a plan. Tasks are immutable during
// execution.
type Task struct {
	// ID is the stable numeric identifier (plan sequence number).
	ID int `koanf:"id"`

	// Name is a human-readable task description.
	Name string `koanf:"name"`

	// Dependencies lists the ids of tasks that must complete first.
	Dependencies []int `koanf:"dependencies"`

	// DeclaredOutputs lists the resource paths this task will write.
	// Two tasks with overlapping outputs are never co-scheduled in a
	// parallel group.
	DeclaredOutputs []string `koanf:"outputs"`

	// Validation is the artifact contract checked after execution.
	Validation Contract `koanf:"validation"`
}

// Contract declares the artifact a task must produce.
type Contract struct {
	// Phase is the directory component under the feature scope.
	Phase string `koanf:"phase"`

	// Type selects the canonical artifact type (default COMPLETION).
	Type artifact.Type `koanf:"type"`

	// Ext is the artifact file extension (default md).
	Ext string `koanf:"ext"`

	// MinContentLength is the character count below which the artifact
	// is treated as too short. Zero means use the configured default.
	MinContentLength int `koanf:"min_content_length"`
}

// ArtifactPath returns the scope-relative path the contract resolves to.
func (c Contract) ArtifactPath(taskID int) string {
	typ := c.Type
	if typ == "" {
		typ = artifact.TypeCompletion
	}
	return path.Join(c.Phase, artifact.Name(taskID, typ, c.Ext))
}

// Mode describes how a group's tasks are dispatched.
type Mode string

const (
	// ModeParallel dispatches all tasks in the group as one concurrent batch.
	ModeParallel Mode = "parallel"

	// ModeSequential dispatches tasks one at a time in id order.
	ModeSequential Mode = "sequential"
)

// ExecutionGroup is an ordered set of tasks whose dependencies all live in
// earlier groups. Groups are computed once and immutable thereafter.
type ExecutionGroup struct {
	// Index is the group's position in execution order.
	Index int

	// Mode is the dispatch mode for this group.
	Mode Mode

	// Tasks are the member tasks in ascending id order.
	Tasks []Task
}
