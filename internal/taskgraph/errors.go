package taskgraph

import (
	"fmt"
	"strings"
)

// GraphError reports a task list that cannot be partitioned into execution
// groups: duplicate ids, a self-dependency, a dependency on a task id that
// does not exist, or a cycle. It is raised before any task executes.
type GraphError struct {
	// Reason describes the structural problem.
	Reason string

	// TaskIDs are the unresolved task ids, ascending.
	TaskIDs []int
}

func (e *GraphError) Error() string {
	if len(e.TaskIDs) == 0 {
		return fmt.Sprintf("task graph invalid: %s", e.Reason)
	}

	ids := make([]string, len(e.TaskIDs))
	for i, id := range e.TaskIDs {
		ids[i] = fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf("task graph invalid: %s (tasks %s)", e.Reason, strings.Join(ids, ", "))
}
