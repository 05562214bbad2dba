package config

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/fyrsmithlabs/prprunner/internal/sanitize"
	"github.com/fyrsmithlabs/prprunner/internal/taskgraph"
)

// Plan is a parsed PRP plan file: the feature it implements and the task
// list to be partitioned into execution groups.
type Plan struct {
	// Feature names the feature this plan implements. It is sanitized
	// into Scope for artifact paths.
	Feature string `koanf:"feature"`

	// Phase is the default phase directory applied to tasks whose
	// contract leaves it empty.
	Phase string `koanf:"phase"`

	// Tasks is the declared task list.
	Tasks []taskgraph.Task `koanf:"tasks"`

	// Scope is the sanitized, validated form of Feature. Derived, never
	// read from the file.
	Scope string `koanf:"-"`
}

// LoadPlan reads a YAML plan file and derives the feature scope.
//
// Task contracts are normalized: an empty phase inherits the plan-level
// phase, so a plan can set it once instead of on every task.
func LoadPlan(path string) (*Plan, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse plan file %s: %w", path, err)
	}

	var plan Plan
	if err := k.Unmarshal("", &plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
	}

	if plan.Feature == "" {
		return nil, fmt.Errorf("plan is missing a feature name")
	}
	if len(plan.Tasks) == 0 {
		return nil, fmt.Errorf("plan declares no tasks")
	}

	scope, err := sanitize.SanitizeAndValidateScope(plan.Feature)
	if err != nil {
		return nil, fmt.Errorf("invalid feature name %q: %w", plan.Feature, err)
	}
	plan.Scope = scope

	for i := range plan.Tasks {
		if plan.Tasks[i].Validation.Phase == "" {
			plan.Tasks[i].Validation.Phase = plan.Phase
		}
	}

	return &plan, nil
}

// Groups partitions the plan's tasks into execution groups.
func (p *Plan) Groups() ([]taskgraph.ExecutionGroup, error) {
	return taskgraph.Build(p.Tasks)
}
