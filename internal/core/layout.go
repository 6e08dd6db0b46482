package core

import (
	"os"
	"path"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pybins/internal/types"
)

// DownloadPrefix is the URL path under which build directories are served.
const DownloadPrefix = "/download"

const (
	stagingSuffix = "_dl"
	extractSuffix = "_src"
)

// NewBuildLayout returns the directories owned by buildID under
// artifactsDir. Nothing is created.
func NewBuildLayout(artifactsDir string, buildID string) types.BuildLayout {
	return types.BuildLayout{
		StagingDir:   filepath.Join(artifactsDir, buildID+stagingSuffix),
		ExtractDir:   filepath.Join(artifactsDir, buildID+extractSuffix),
		ArtifactsDir: filepath.Join(artifactsDir, buildID),
	}
}

// PrepareLayout creates every directory in layout.
func PrepareLayout(layout types.BuildLayout) error {
	for _, dir := range []string{layout.StagingDir, layout.ExtractDir, layout.ArtifactsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to create build directory").
				WithCause(err)
		}
	}
	return nil
}

// DownloadPath is the client-facing path of a file in a build's artifacts
// directory.
func DownloadPath(buildID string, filename string) string {
	return path.Join(DownloadPrefix, buildID, filename)
}
