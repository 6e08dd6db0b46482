package types

import "time"

// BuildLogName is the file in a build's artifacts directory holding merged
// tool output.
const BuildLogName = "build.log"

type PackageReference struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
}

// IsLatest reports whether the reference asks for the index's current release.
func (r PackageReference) IsLatest() bool {
	return r.Version == "" || r.Version == LatestVersion
}

// ResolvedSource is a concrete, fetchable source location. Version is never
// "latest".
type ResolvedSource struct {
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version" yaml:"version"`
	DownloadURL string `json:"download_url" yaml:"download_url"`
	Filename    string `json:"filename,omitempty" yaml:"filename,omitempty"`
	Author      string `json:"author" yaml:"author"`
	Summary     string `json:"summary" yaml:"summary"`
	Homepage    string `json:"homepage" yaml:"homepage"`
}

type BuildRecord struct {
	BuildID         string      `json:"build_id" yaml:"build_id"`
	PackageName     string      `json:"package_name" yaml:"package_name"`
	Version         string      `json:"version" yaml:"version"`
	ResolvedVersion string      `json:"resolved_version,omitempty" yaml:"resolved_version,omitempty"`
	Kind            BuildKind   `json:"kind" yaml:"kind"`
	Status          BuildStatus `json:"status" yaml:"status"`
	Stage           BuildStage  `json:"stage,omitempty" yaml:"stage,omitempty"`
	StartedAt       time.Time   `json:"started_at" yaml:"started_at"`
	FinishedAt      *time.Time  `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Output          string      `json:"output,omitempty" yaml:"output,omitempty"`
	DownloadURL     string      `json:"download_url,omitempty" yaml:"download_url,omitempty"`
	LogURL          string      `json:"log_url,omitempty" yaml:"log_url,omitempty"`
}

// ExecutionRequest carries everything the build executor needs for one
// attempt. All directories belong to a single build.
type ExecutionRequest struct {
	PackageName  string
	Kind         BuildKind
	BuildRoot    string
	ExtractDir   string
	ArtifactsDir string
}

type ExecutionResult struct {
	Success      bool
	ExitCode     int
	LogPath      string
	ProducedFile string
}

// BuildLayout lists the directories owned by one build.
type BuildLayout struct {
	StagingDir   string
	ExtractDir   string
	ArtifactsDir string
}
