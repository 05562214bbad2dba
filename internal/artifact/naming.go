package artifact

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
)

// Type categorizes task artifacts.
type Type string

const (
	TypeCompletion     Type = "COMPLETION"
	TypeValidation     Type = "VALIDATION"
	TypeTestGeneration Type = "TEST_GENERATION"
)

// Valid reports whether the artifact type is one of the canonical types.
func (t Type) Valid() bool {
	switch t {
	case TypeCompletion, TypeValidation, TypeTestGeneration:
		return true
	}
	return false
}

// DefaultExt is the artifact extension used when a contract does not set one.
const DefaultExt = "md"

// namePattern matches the canonical artifact name: TASK{n}_{TYPE}.{ext}.
// No separator between TASK and the number; coverage extraction depends on
// this exact convention.
var namePattern = regexp.MustCompile(`^TASK(\d+)_(COMPLETION|VALIDATION|TEST_GENERATION)\.[A-Za-z0-9]+$`)

// Name builds the canonical artifact file name for a task.
func Name(taskID int, typ Type, ext string) string {
	if ext == "" {
		ext = DefaultExt
	}
	return fmt.Sprintf("TASK%d_%s.%s", taskID, typ, ext)
}

// ParseTaskID extracts the numeric task id from an artifact file name.
// Returns false for names outside the naming contract.
func ParseTaskID(name string) (int, bool) {
	m := namePattern.FindStringSubmatch(path.Base(name))
	if m == nil {
		return 0, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return id, true
}
