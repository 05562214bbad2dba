package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScope(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "billing", "billing"},
		{"mixed case", "User Auth PRP", "user_auth_prp"},
		{"path separators", "api/v2-billing", "api_v2_billing"},
		{"collapses underscores", "a__b___c", "a_b_c"},
		{"trims underscores", "_edge_", "edge"},
		{"empty", "", "default"},
		{"only invalid chars", "!!!", "default"},
		{"digits preserved", "task42", "task42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Scope(tt.input))
		})
	}
}

func TestScope_LongInputTruncatedWithHash(t *testing.T) {
	long := strings.Repeat("a", 200)
	got := Scope(long)

	assert.Len(t, got, MaxScopeLength)
	assert.Contains(t, got, "_")

	// Different long inputs must not collide after truncation.
	other := Scope(strings.Repeat("a", 199) + "b")
	assert.NotEqual(t, got, other)
}

func TestValidateScope(t *testing.T) {
	tests := []struct {
		name    string
		scope   string
		wantErr error
	}{
		{"valid", "user_auth", nil},
		{"valid single char", "x", nil},
		{"empty", "", ErrInvalidScope},
		{"slash", "a/b", ErrInvalidScope},
		{"backslash", `a\b`, ErrInvalidScope},
		{"traversal", "..", ErrInvalidScope},
		{"uppercase", "Billing", ErrInvalidScope},
		{"leading underscore", "_scope", ErrInvalidScope},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateScope(tt.scope)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeAndValidateScope(t *testing.T) {
	got, err := SanitizeAndValidateScope("User Auth PRP")
	require.NoError(t, err)
	assert.Equal(t, "user_auth_prp", got)
}

func TestValidatePath_RejectsTraversal(t *testing.T) {
	_, err := ValidatePath("../etc/passwd", "")
	assert.ErrorIs(t, err, ErrPathTraversal)

	_, err = ValidatePath("", "")
	assert.ErrorIs(t, err, ErrEmptyPath)
}

func TestValidatePath_ConfinesToRoot(t *testing.T) {
	root := t.TempDir()

	got, err := ValidatePath(root+"/prp/phase1", root)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, root))

	_, err = ValidatePath("/tmp/elsewhere", root+"/nested")
	assert.ErrorIs(t, err, ErrPathTraversal)
}
