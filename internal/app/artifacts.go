package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// ArtifactPath maps a download path of a known build to a regular file in
// that build's artifacts directory. Anything outside it is refused.
func (s Service) ArtifactPath(ctx context.Context, buildID string, filename string) (string, error) {
	if !isPlainSegment(buildID) || !isPlainSegment(filename) {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid download path")
	}
	if _, err := s.GetBuild(ctx, buildID); err != nil {
		return "", err
	}
	path := filepath.Join(s.ArtifactsDir, buildID, filename)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("File %s not found for build %s", filename, buildID))
	}
	return path, nil
}

func isPlainSegment(value string) bool {
	if value == "" || value == "." || value == ".." {
		return false
	}
	if strings.ContainsAny(value, `/\`) {
		return false
	}
	return filepath.IsLocal(value)
}
