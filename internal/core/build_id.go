package core

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"pybins/internal/shared"
	"pybins/internal/types"
)

const buildTimestampLayout = "20060102_150405"

// NewBuildID derives a build id from the requested package, version and kind,
// the creation time and a random suffix. The result is a single path segment.
func NewBuildID(name string, version string, kind types.BuildKind, createdAt time.Time, suffix string) string {
	if strings.TrimSpace(version) == "" {
		version = types.LatestVersion
	}
	parts := []string{shared.PathSegment(name), shared.PathSegment(version)}
	if kind == types.BuildKindBinary {
		parts = append(parts, "bin")
	}
	parts = append(parts, createdAt.UTC().Format(buildTimestampLayout))
	if suffix = strings.TrimSpace(suffix); suffix != "" {
		parts = append(parts, shared.PathSegment(suffix))
	}
	return strings.Join(parts, "-")
}

// RandomSuffix returns eight hex characters taken from a fresh UUID.
func RandomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
