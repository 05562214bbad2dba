package sanitize

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Validation errors for security checks.
var (
	// ErrPathTraversal indicates a path contains directory traversal sequences.
	ErrPathTraversal = errors.New("path contains directory traversal")

	// ErrInvalidScope indicates the feature scope format is invalid.
	ErrInvalidScope = errors.New("invalid feature scope format")

	// ErrEmptyPath indicates an empty path was provided.
	ErrEmptyPath = errors.New("path cannot be empty")
)

// scopePattern matches valid sanitized scopes: lowercase alphanumeric with
// underscores, max 64 chars to keep directory names portable.
var scopePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_]{0,62}[a-z0-9]?$`)

// ValidateScope checks that a feature scope is safe to use as a path
// component under the output root.
func ValidateScope(scope string) error {
	if scope == "" {
		return fmt.Errorf("%w: empty", ErrInvalidScope)
	}

	// Path characters are rejected outright, not sanitized: a caller that
	// passes them is constructing paths from unvetted input.
	if strings.ContainsAny(scope, "/\\") || strings.Contains(scope, "..") {
		return fmt.Errorf("%w: contains path characters", ErrInvalidScope)
	}

	if !scopePattern.MatchString(scope) {
		return fmt.Errorf("%w: must be lowercase alphanumeric with underscores (1-64 chars)", ErrInvalidScope)
	}

	return nil
}

// SanitizeAndValidateScope sanitizes a feature scope and validates the
// result. This is the recommended way to process caller-provided scopes.
func SanitizeAndValidateScope(scope string) (string, error) {
	sanitized := Scope(scope)

	if err := ValidateScope(sanitized); err != nil {
		return "", err
	}

	return sanitized, nil
}

// ValidatePath checks a path for security issues:
//   - No directory traversal (..)
//   - Resolves to absolute path and validates it stays within allowedRoot
//   - Returns the cleaned, absolute path or an error
//
// If allowedRoot is empty, only traversal checks are performed.
func ValidatePath(path, allowedRoot string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}

	// Check for obvious traversal patterns before any processing
	if strings.Contains(path, "..") {
		return "", fmt.Errorf("%w: contains '..'", ErrPathTraversal)
	}

	cleanPath := filepath.Clean(path)

	// Re-check after cleaning (handles edge cases like "foo/../..")
	if strings.Contains(cleanPath, "..") {
		return "", fmt.Errorf("%w: resolves to traversal", ErrPathTraversal)
	}

	absPath := cleanPath
	if !filepath.IsAbs(cleanPath) {
		var err error
		absPath, err = filepath.Abs(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to resolve path: %w", err)
		}
	}

	if allowedRoot != "" {
		absRoot, err := filepath.Abs(allowedRoot)
		if err != nil {
			return "", fmt.Errorf("failed to resolve allowed root: %w", err)
		}

		rel, err := filepath.Rel(absRoot, absPath)
		if err != nil {
			return "", fmt.Errorf("%w: path outside allowed root", ErrPathTraversal)
		}

		// If the relative path starts with "..", it escapes the root
		if strings.HasPrefix(rel, "..") {
			return "", fmt.Errorf("%w: path escapes allowed root", ErrPathTraversal)
		}
	}

	return absPath, nil
}
