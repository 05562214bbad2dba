package artifact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/prprunner/internal/sanitize"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), "user_auth", nil)
	require.NoError(t, err)
	return store
}

func TestNewStore_RejectsInvalidScope(t *testing.T) {
	_, err := NewStore(t.TempDir(), "../escape", nil)
	assert.ErrorIs(t, err, sanitize.ErrInvalidScope)

	_, err = NewStore(t.TempDir(), "Has Spaces", nil)
	assert.ErrorIs(t, err, sanitize.ErrInvalidScope)
}

func TestStore_WriteRead(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rel := "phase1/" + Name(1, TypeCompletion, "md")
	require.NoError(t, store.Write(ctx, rel, []byte("task one report")))

	content, err := store.Read(ctx, rel)
	require.NoError(t, err)
	assert.Equal(t, "task one report", string(content))
}

func TestStore_ReadMissingIsNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Read(context.Background(), "phase1/TASK9_COMPLETION.md")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_WriteOnce(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rel := "phase1/" + Name(2, TypeCompletion, "md")
	require.NoError(t, store.Write(ctx, rel, []byte("first")))

	err := store.Write(ctx, rel, []byte("second"))
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestStore_RejectsEscapingPaths(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Read(ctx, "../other_scope/TASK1_COMPLETION.md")
	assert.ErrorIs(t, err, sanitize.ErrPathTraversal)

	err = store.Write(ctx, "/abs/TASK1_COMPLETION.md", []byte("x"))
	assert.ErrorIs(t, err, sanitize.ErrPathTraversal)
}

func TestStore_List(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Empty scope dir lists as empty, not error
	rels, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, rels)

	require.NoError(t, store.Write(ctx, "phase1/"+Name(2, TypeCompletion, "md"), []byte("b")))
	require.NoError(t, store.Write(ctx, "phase1/"+Name(1, TypeCompletion, "md"), []byte("a")))

	rels, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"phase1/TASK1_COMPLETION.md",
		"phase1/TASK2_COMPLETION.md",
	}, rels)
}

func TestName_NoSeparatorBetweenTaskAndNumber(t *testing.T) {
	assert.Equal(t, "TASK7_COMPLETION.md", Name(7, TypeCompletion, ""))
	assert.Equal(t, "TASK12_TEST_GENERATION.go", Name(12, TypeTestGeneration, "go"))
}

func TestParseTaskID(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantID int
		wantOK bool
	}{
		{"completion", "TASK3_COMPLETION.md", 3, true},
		{"validation", "TASK10_VALIDATION.md", 10, true},
		{"test generation", "TASK2_TEST_GENERATION.md", 2, true},
		{"nested path uses base name", "phase1/TASK4_COMPLETION.md", 4, true},
		{"separator after TASK", "TASK_5_COMPLETION.md", 0, false},
		{"unknown type", "TASK5_SUMMARY.md", 0, false},
		{"no extension", "TASK5_COMPLETION", 0, false},
		{"unrelated file", "notes.md", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ParseTaskID(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, id)
			}
		})
	}
}
