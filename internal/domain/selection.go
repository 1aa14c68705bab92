package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	quotedLiteral   = regexp.MustCompile(`'(?:[^']|'')*'|"(?:[^"]|"")*"`)
	leadingKeyword  = regexp.MustCompile(`(?i)^\s*(select|with)\b`)
	forbiddenTokens = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|create|replace|attach|detach|pragma|vacuum|reindex|analyze|begin|commit|rollback|savepoint|release)\b`)
)

// ValidateSelection enforces the read-only grammar accepted as a corpus
// selection: one SELECT (or WITH ... SELECT) statement with no writes.
func ValidateSelection(selection string) error {
	s := strings.TrimSpace(selection)
	s = strings.TrimSuffix(s, ";")
	if s == "" {
		return fmt.Errorf("%w: empty", ErrInvalidSelection)
	}
	if !leadingKeyword.MatchString(s) {
		return fmt.Errorf("%w: must start with SELECT or WITH", ErrInvalidSelection)
	}

	bare := quotedLiteral.ReplaceAllString(s, "''")
	if strings.Contains(bare, ";") {
		return fmt.Errorf("%w: multiple statements", ErrInvalidSelection)
	}
	if strings.Contains(bare, "--") || strings.Contains(bare, "/*") {
		return fmt.Errorf("%w: comments are not allowed", ErrInvalidSelection)
	}
	if kw := forbiddenTokens.FindString(bare); kw != "" {
		return fmt.Errorf("%w: keyword %q is not allowed", ErrInvalidSelection, strings.ToUpper(kw))
	}
	return nil
}

// NormalizeSelection trims whitespace and a single trailing semicolon.
func NormalizeSelection(selection string) string {
	s := strings.TrimSpace(selection)
	return strings.TrimSpace(strings.TrimSuffix(s, ";"))
}
