package taskgraph

import (
	"sort"
)

// Build partitions tasks into ordered execution groups using level-based
// topological sorting: each pass collects every unassigned task whose
// dependencies are fully contained in earlier groups. Ties within a group
// break by ascending task id, so identical input always yields identical
// groups.
//
// An empty task list yields an empty group list. Duplicate ids and
// self-dependencies fail before grouping; a pass that makes no progress
// while tasks remain reports the unresolved ids (a cycle or a dependency
// on a non-existent id).
func Build(tasks []Task) ([]ExecutionGroup, error) {
	if len(tasks) == 0 {
		return []ExecutionGroup{}, nil
	}

	if err := validate(tasks); err != nil {
		return nil, err
	}

	assigned := make(map[int]bool, len(tasks))
	remaining := make([]Task, len(tasks))
	copy(remaining, tasks)

	var groups []ExecutionGroup
	for len(remaining) > 0 {
		var ready, blocked []Task
		for _, t := range remaining {
			if depsSatisfied(t, assigned) {
				ready = append(ready, t)
			} else {
				blocked = append(blocked, t)
			}
		}

		if len(ready) == 0 {
			ids := make([]int, len(blocked))
			for i, t := range blocked {
				ids[i] = t.ID
			}
			sort.Ints(ids)
			return nil, &GraphError{
				Reason:  "cycle or unresolved dependency",
				TaskIDs: ids,
			}
		}

		sort.Slice(ready, func(i, j int) bool { return ready[i].ID < ready[j].ID })

		groups = append(groups, ExecutionGroup{
			Index: len(groups),
			Mode:  assignMode(ready),
			Tasks: ready,
		})

		for _, t := range ready {
			assigned[t.ID] = true
		}
		remaining = blocked
	}

	return groups, nil
}

// validate rejects duplicate ids and self-dependencies before grouping.
func validate(tasks []Task) error {
	seen := make(map[int]bool, len(tasks))
	var dupes, selfDeps []int

	for _, t := range tasks {
		if seen[t.ID] {
			dupes = append(dupes, t.ID)
		}
		seen[t.ID] = true

		for _, dep := range t.Dependencies {
			if dep == t.ID {
				selfDeps = append(selfDeps, t.ID)
			}
		}
	}

	if len(dupes) > 0 {
		sort.Ints(dupes)
		return &GraphError{Reason: "duplicate task ids", TaskIDs: dupes}
	}
	if len(selfDeps) > 0 {
		sort.Ints(selfDeps)
		return &GraphError{Reason: "self-dependency", TaskIDs: selfDeps}
	}

	return nil
}

// depsSatisfied reports whether every dependency is in an earlier group.
func depsSatisfied(t Task, assigned map[int]bool) bool {
	for _, dep := range t.Dependencies {
		if !assigned[dep] {
			return false
		}
	}
	return true
}

// assignMode picks the dispatch mode for a ready set. Multi-task groups
// default to parallel but demote to sequential when any two members
// declare overlapping outputs, even without a dependency edge between
// them. A group of size 1 is trivially sequential.
func assignMode(tasks []Task) Mode {
	if len(tasks) <= 1 {
		return ModeSequential
	}

	writers := make(map[string]int, len(tasks))
	for _, t := range tasks {
		for _, out := range t.DeclaredOutputs {
			// A task repeating its own output is not a cross-task conflict.
			if id, seen := writers[out]; seen && id != t.ID {
				return ModeSequential
			}
			writers[out] = t.ID
		}
	}

	return ModeParallel
}
