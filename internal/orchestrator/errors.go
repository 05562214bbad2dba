package orchestrator

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/prprunner/internal/coverage"
)

// ErrorDetail is the structured, human-actionable shape every halting
// validation failure carries: what went wrong, where the artifact was
// expected, why it matters, and what to do about it. Paths are always
// scoped to the output root; absolute filesystem paths never appear here.
type ErrorDetail struct {
	Problem         string
	ExpectedPath    string
	Impact          string
	Troubleshooting []string
	Resolutions     []string
}

// Render formats the detail as actionable text.
func (d *ErrorDetail) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Problem: %s\n", d.Problem)
	fmt.Fprintf(&b, "Expected artifact: %s\n", d.ExpectedPath)
	fmt.Fprintf(&b, "Impact: %s\n", d.Impact)

	if len(d.Troubleshooting) > 0 {
		b.WriteString("Troubleshooting:\n")
		for _, step := range d.Troubleshooting {
			fmt.Fprintf(&b, "  - %s\n", step)
		}
	}
	if len(d.Resolutions) > 0 {
		b.WriteString("Resolution options:\n")
		for i, opt := range d.Resolutions {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, opt)
		}
	}

	return b.String()
}

// ExecutionError reports a TaskExecutor failure. Fatal to its group:
// sibling parallel tasks still finish, but no further groups start.
type ExecutionError struct {
	TaskID int
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("task %d execution failed: %v", e.TaskID, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// ValidationError reports a missing or too-short artifact. Fatal: the
// pipeline halts immediately with the detail's remediation steps.
type ValidationError struct {
	TaskID int
	Detail *ErrorDetail
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("task %d validation failed\n%s", e.TaskID, e.Detail.Render())
}

// CoverageError reports the final quality gate below 100%, raised even
// when every per-task gate passed (artifacts can disappear between their
// own gate and the end of the run).
type CoverageError struct {
	Report *coverage.Report
}

func (e *CoverageError) Error() string {
	return fmt.Sprintf("coverage gate failed: %.1f%% (%d of %d tasks), missing tasks %v",
		e.Report.CoveragePercentage, e.Report.ValidatedCount, e.Report.TotalTasks, e.Report.MissingTaskIDs)
}
