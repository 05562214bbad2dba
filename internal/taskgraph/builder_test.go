package taskgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func task(id int, deps ...int) Task {
	return Task{ID: id, Dependencies: deps}
}

func groupIDs(g ExecutionGroup) []int {
	ids := make([]int, len(g.Tasks))
	for i, t := range g.Tasks {
		ids[i] = t.ID
	}
	return ids
}

func TestBuild_EmptyTaskList(t *testing.T) {
	groups, err := Build(nil)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestBuild_IndependentTasksFormOneParallelGroup(t *testing.T) {
	groups, err := Build([]Task{task(1), task(2), task(3)})
	require.NoError(t, err)

	require.Len(t, groups, 1)
	assert.Equal(t, ModeParallel, groups[0].Mode)
	assert.Equal(t, []int{1, 2, 3}, groupIDs(groups[0]))
}

func TestBuild_ChainedDependencies(t *testing.T) {
	// Tasks 1-3 independent; 4 depends on 1; 5 depends on 4.
	groups, err := Build([]Task{
		task(1), task(2), task(3),
		task(4, 1),
		task(5, 4),
	})
	require.NoError(t, err)

	require.Len(t, groups, 3)
	assert.Equal(t, []int{1, 2, 3}, groupIDs(groups[0]))
	assert.Equal(t, ModeParallel, groups[0].Mode)
	assert.Equal(t, []int{4}, groupIDs(groups[1]))
	assert.Equal(t, ModeSequential, groups[1].Mode)
	assert.Equal(t, []int{5}, groupIDs(groups[2]))
	assert.Equal(t, ModeSequential, groups[2].Mode)
}

func TestBuild_EveryDependencyInStrictlyEarlierGroup(t *testing.T) {
	tasks := []Task{
		task(1), task(2, 1), task(3, 1), task(4, 2, 3), task(5, 1), task(6, 4, 5),
	}
	groups, err := Build(tasks)
	require.NoError(t, err)

	groupOf := map[int]int{}
	for gi, g := range groups {
		assert.Equal(t, gi, g.Index)
		for _, tk := range g.Tasks {
			groupOf[tk.ID] = gi
		}
	}
	for _, tk := range tasks {
		for _, dep := range tk.Dependencies {
			assert.Less(t, groupOf[dep], groupOf[tk.ID],
				"dependency %d of task %d must be in an earlier group", dep, tk.ID)
		}
	}
}

func TestBuild_Deterministic(t *testing.T) {
	tasks := []Task{task(3), task(1), task(2), task(5, 3, 1), task(4, 2)}

	first, err := Build(tasks)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := Build(tasks)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestBuild_OutputConflictDemotesToSequential(t *testing.T) {
	a := Task{ID: 1, DeclaredOutputs: []string{"src/auth.go"}}
	b := Task{ID: 2, DeclaredOutputs: []string{"src/auth.go", "src/util.go"}}

	groups, err := Build([]Task{a, b})
	require.NoError(t, err)

	require.Len(t, groups, 1)
	assert.Equal(t, ModeSequential, groups[0].Mode)
}

func TestBuild_DisjointOutputsStayParallel(t *testing.T) {
	a := Task{ID: 1, DeclaredOutputs: []string{"src/auth.go"}}
	b := Task{ID: 2, DeclaredOutputs: []string{"src/billing.go"}}

	groups, err := Build([]Task{a, b})
	require.NoError(t, err)

	require.Len(t, groups, 1)
	assert.Equal(t, ModeParallel, groups[0].Mode)
}

func TestBuild_TaskRepeatingItsOwnOutputStaysParallel(t *testing.T) {
	a := Task{ID: 1, DeclaredOutputs: []string{"src/auth.go", "src/auth.go"}}
	b := Task{ID: 2, DeclaredOutputs: []string{"src/billing.go"}}

	groups, err := Build([]Task{a, b})
	require.NoError(t, err)

	require.Len(t, groups, 1)
	assert.Equal(t, ModeParallel, groups[0].Mode)
}

func TestBuild_CycleNamesAllMembers(t *testing.T) {
	groups, err := Build([]Task{task(1, 3), task(2, 1), task(3, 2)})
	require.Nil(t, groups)

	var graphErr *GraphError
	require.ErrorAs(t, err, &graphErr)
	assert.Equal(t, []int{1, 2, 3}, graphErr.TaskIDs)
	assert.Contains(t, graphErr.Error(), "1, 2, 3")
}

func TestBuild_UnknownDependency(t *testing.T) {
	_, err := Build([]Task{task(1), task(2, 99)})

	var graphErr *GraphError
	require.ErrorAs(t, err, &graphErr)
	assert.Equal(t, []int{2}, graphErr.TaskIDs)
}

func TestBuild_SelfDependencyIsCycleOfLengthOne(t *testing.T) {
	_, err := Build([]Task{task(1, 1)})

	var graphErr *GraphError
	require.ErrorAs(t, err, &graphErr)
	assert.Equal(t, []int{1}, graphErr.TaskIDs)
	assert.Contains(t, graphErr.Error(), "self-dependency")
}

func TestBuild_DuplicateIDsFailBeforeGrouping(t *testing.T) {
	_, err := Build([]Task{task(1), task(1)})

	var graphErr *GraphError
	require.ErrorAs(t, err, &graphErr)
	assert.Equal(t, []int{1}, graphErr.TaskIDs)
	assert.Contains(t, graphErr.Error(), "duplicate")
}
