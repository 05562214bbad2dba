// Package orchestrator drives PRP plan execution: it dispatches execution
// groups through a TaskExecutor, enforces the per-task validation gate
// after every group, mirrors task lifecycle to the external tracker, and
// finishes with a coverage gate recomputed from the artifact store.
//
// The pipeline is strictly fail-fast. A failed execution or a failed
// validation halts the run before the next group is dispatched; siblings
// already in flight inside a parallel batch run to completion but no new
// work starts. There is no warn-and-continue path.
package orchestrator
