// Package artifact provides scoped, write-once access to task output files.
//
// A Store is rooted at {root}/{scope}; the scope is validated before any
// path construction, and reads are performed as a single attempt-read so
// existence checks cannot race with deletion.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/prprunner/internal/sanitize"
)

// Store errors.
var (
	// ErrNotFound indicates the artifact does not exist.
	ErrNotFound = errors.New("artifact not found")

	// ErrAlreadyExists indicates a second write to the same artifact path.
	ErrAlreadyExists = errors.New("artifact already exists")
)

// Store provides read and write-once access to artifacts under one
// feature scope.
type Store struct {
	root   string // absolute output root
	scope  string // validated feature scope
	logger *zap.Logger
}

// NewStore creates a store rooted at root/scope.
//
// The scope must already conform to the sanitized scope format; raw caller
// input goes through sanitize.SanitizeAndValidateScope first.
func NewStore(root, scope string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	absRoot, err := sanitize.ValidatePath(root, "")
	if err != nil {
		return nil, fmt.Errorf("invalid output root: %w", err)
	}

	if err := sanitize.ValidateScope(scope); err != nil {
		return nil, err
	}

	return &Store{
		root:   absRoot,
		scope:  scope,
		logger: logger,
	}, nil
}

// Scope returns the feature scope this store is confined to.
func (s *Store) Scope() string {
	return s.scope
}

// scopeDir returns the absolute directory holding this scope's artifacts.
func (s *Store) scopeDir() string {
	return filepath.Join(s.root, s.scope)
}

// resolve validates a relative artifact path and returns its absolute form.
func (s *Store) resolve(rel string) (string, error) {
	if rel == "" {
		return "", sanitize.ErrEmptyPath
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: artifact path must be relative to the scope", sanitize.ErrPathTraversal)
	}
	return sanitize.ValidatePath(filepath.Join(s.scopeDir(), rel), s.scopeDir())
}

// Read returns the artifact content at the given scope-relative path.
//
// The read is a single attempt: a missing file surfaces as ErrNotFound
// rather than a separate existence probe followed by a read, so there is
// no window in which the artifact can disappear between check and use.
func (s *Store) Read(ctx context.Context, rel string) ([]byte, error) {
	abs, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, rel)
		}
		return nil, fmt.Errorf("failed to read artifact %s: %w", rel, err)
	}

	return content, nil
}

// Write stores artifact content at the given scope-relative path.
// Each path is write-once; a second write fails with ErrAlreadyExists.
func (s *Store) Write(ctx context.Context, rel string, content []byte) error {
	abs, err := s.resolve(rel)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, rel)
		}
		return fmt.Errorf("failed to create artifact %s: %w", rel, err)
	}

	if _, err := f.Write(content); err != nil {
		f.Close()
		return fmt.Errorf("failed to write artifact %s: %w", rel, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close artifact %s: %w", rel, err)
	}

	s.logger.Debug("wrote artifact",
		zap.String("scope", s.scope),
		zap.String("path", rel),
		zap.Int("bytes", len(content)),
	)

	return nil
}

// List returns the scope-relative paths of all artifacts, sorted.
// A scope directory that does not exist yet yields an empty list.
func (s *Store) List(ctx context.Context) ([]string, error) {
	dir := s.scopeDir()

	var rels []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == dir {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rels = append(rels, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts for scope %s: %w", s.scope, err)
	}

	sort.Strings(rels)
	return rels, nil
}
