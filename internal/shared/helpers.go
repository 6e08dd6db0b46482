// Package shared provides common utility functions used across multiple
// packages in the pybins codebase.
package shared

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// NormalizePipName lowercases a Python package name and replaces
// underscores and dots with hyphens, following PEP 503 normalization.
func NormalizePipName(value string) string {
	lower := strings.ToLower(strings.TrimSpace(value))
	replacer := strings.NewReplacer("_", "-", ".", "-")
	return replacer.Replace(lower)
}

// HTTPStatusError creates a formatted error for non-2xx HTTP responses.
func HTTPStatusError(status int, url string) error {
	return fmt.Errorf("status=%d url=%s", status, url)
}

// ErrorMessage returns the errbuilder message of err when one is set, and
// err.Error() otherwise.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) && strings.TrimSpace(builder.Msg) != "" {
		return builder.Msg
	}
	return err.Error()
}

var unsafePathChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// PathSegment turns value into a single filesystem-safe path segment.
func PathSegment(value string) string {
	cleaned := unsafePathChars.ReplaceAllString(strings.TrimSpace(value), "_")
	cleaned = strings.Trim(cleaned, ".")
	if cleaned == "" {
		return "_"
	}
	return cleaned
}
