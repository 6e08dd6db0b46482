package app

import (
	"time"

	"pybins/internal/types"
)

// Config carries the settings the service wires into its adapters. Zero
// values fall back to the adapter defaults.
type Config struct {
	IndexURL       string
	IndexUser      string
	IndexToken     string
	ArtifactsDir   string
	ResolveTimeout time.Duration
	FetchTimeout   time.Duration
	BuildTimeout   time.Duration
	Python         string
	PyInstaller    string
	PublicURL      string
}

type BuildRequest struct {
	Package string
	Version string
	Kind    string
}

type ResolveRequest struct {
	Package string
	Version string
}

type InstallerRequest struct {
	Tool    string
	Version string
}

type InstallerResult struct {
	Tool     string
	Version  string
	WheelURL string
	Script   string
}

type BuildList struct {
	Builds []types.BuildRecord `json:"builds" yaml:"builds"`
	Count  int                 `json:"count" yaml:"count"`
}
