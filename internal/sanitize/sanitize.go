// Package sanitize provides shared identifier sanitization and input validation.
//
// Feature scopes become filesystem path components under the output root, so
// every scope must pass through this package before any path is constructed.
package sanitize

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	// MaxScopeLength is the maximum length for a feature scope component.
	MaxScopeLength = 64

	// HashSuffixLength is the length of the hash suffix added to truncated
	// identifiers. Format: _<8-char-hash> = 9 characters total.
	HashSuffixLength = 9

	// DefaultScope is used when sanitization produces an empty result.
	DefaultScope = "default"
)

// Scope sanitizes a string for use as a feature-scope directory name.
//
// Rules applied:
//   - Converts to lowercase
//   - Replaces invalid characters with underscores
//   - Collapses multiple underscores
//   - Trims leading/trailing underscores
//   - Truncates to MaxScopeLength with hash suffix if too long
//   - Returns DefaultScope if the result would be empty
//
// Examples:
//
//	"User Auth PRP"  -> "user_auth_prp"
//	"api/v2-billing" -> "api_v2_billing"
//	"" or "!!!"      -> "default"
func Scope(s string) string {
	if s == "" {
		return DefaultScope
	}

	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}

	out := collapseUnderscores(b.String())
	out = strings.Trim(out, "_")

	if out == "" {
		return DefaultScope
	}

	if len(out) > MaxScopeLength {
		out = truncateWithHash(out)
	}

	return out
}

// collapseUnderscores replaces runs of underscores with a single one.
func collapseUnderscores(s string) string {
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return s
}

// truncateWithHash shortens an identifier to MaxScopeLength while keeping it
// unique: the tail is replaced with a hash of the full original value.
func truncateWithHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	suffix := "_" + hex.EncodeToString(sum[:])[:HashSuffixLength-1]
	return s[:MaxScopeLength-HashSuffixLength] + suffix
}
