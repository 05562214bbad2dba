package coverage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/prprunner/internal/taskgraph"
)

type fakeLister struct {
	paths []string
	err   error
}

func (f *fakeLister) List(ctx context.Context) ([]string, error) {
	return f.paths, f.err
}

func tasks(ids ...int) []taskgraph.Task {
	out := make([]taskgraph.Task, len(ids))
	for i, id := range ids {
		out[i] = taskgraph.Task{ID: id}
	}
	return out
}

func TestNewTracker_RequiresStore(t *testing.T) {
	_, err := NewTracker(nil, nil)
	assert.Error(t, err)
}

func TestCompute_TwoOfThree(t *testing.T) {
	tracker, err := NewTracker(&fakeLister{paths: []string{
		"phase1/TASK1_COMPLETION.md",
		"phase1/TASK2_COMPLETION.md",
	}}, nil)
	require.NoError(t, err)

	report, err := tracker.Compute(context.Background(), tasks(1, 2, 3))
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalTasks)
	assert.Equal(t, 2, report.ValidatedCount)
	assert.Equal(t, 66.7, report.CoveragePercentage)
	assert.Equal(t, []int{3}, report.MissingTaskIDs)
	assert.Equal(t, StatusIncomplete, report.Status)
}

func TestCompute_FullCoverage(t *testing.T) {
	tracker, err := NewTracker(&fakeLister{paths: []string{
		"phase1/TASK1_COMPLETION.md",
		"phase1/TASK2_VALIDATION.md",
		"phase2/TASK3_TEST_GENERATION.md",
	}}, nil)
	require.NoError(t, err)

	report, err := tracker.Compute(context.Background(), tasks(1, 2, 3))
	require.NoError(t, err)

	assert.Equal(t, 100.0, report.CoveragePercentage)
	assert.Empty(t, report.MissingTaskIDs)
	assert.Equal(t, StatusComplete, report.Status)
}

func TestCompute_IgnoresFilesOutsideNamingContract(t *testing.T) {
	tracker, err := NewTracker(&fakeLister{paths: []string{
		"phase1/TASK1_COMPLETION.md",
		"phase1/notes.md",
		"phase1/TASK_2_COMPLETION.md", // separator breaks the contract
	}}, nil)
	require.NoError(t, err)

	report, err := tracker.Compute(context.Background(), tasks(1, 2))
	require.NoError(t, err)

	assert.Equal(t, 1, report.ValidatedCount)
	assert.Equal(t, []int{2}, report.MissingTaskIDs)
	assert.Equal(t, 50.0, report.CoveragePercentage)
}

func TestCompute_EmptyTaskSetIsComplete(t *testing.T) {
	tracker, err := NewTracker(&fakeLister{}, nil)
	require.NoError(t, err)

	report, err := tracker.Compute(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 100.0, report.CoveragePercentage)
	assert.Equal(t, StatusComplete, report.Status)
}

func TestCompute_ListFailurePropagates(t *testing.T) {
	tracker, err := NewTracker(&fakeLister{err: errors.New("disk gone")}, nil)
	require.NoError(t, err)

	_, err = tracker.Compute(context.Background(), tasks(1))
	assert.ErrorContains(t, err, "disk gone")
}
