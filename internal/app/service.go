package app

import (
	"path/filepath"
	"strings"

	"pybins/internal/adapters"
	"pybins/internal/core"
	"pybins/internal/ports"
)

const DefaultArtifactsDir = "artifacts"

type Service struct {
	Resolver     ports.SourceResolverPort
	Store        ports.BuildStorePort
	Orchestrator core.BuildOrchestrator
	ArtifactsDir string
	PublicURL    string
}

func NewService(cfg Config) Service {
	artifactsDir := strings.TrimSpace(cfg.ArtifactsDir)
	if artifactsDir == "" {
		artifactsDir = DefaultArtifactsDir
	}
	// Tools run with the build tree as their working directory.
	if abs, err := filepath.Abs(artifactsDir); err == nil {
		artifactsDir = abs
	}
	resolver := adapters.NewPyPIResolverAdapter(cfg.IndexURL, cfg.IndexUser, cfg.IndexToken, cfg.ResolveTimeout)
	store := adapters.NewMemoryBuildStore()
	orchestrator := core.NewBuildOrchestrator(
		resolver,
		adapters.NewArchiveFetcherAdapter(cfg.FetchTimeout),
		adapters.NewArchiveExtractorAdapter(),
		adapters.NewBuildExecutorAdapter(cfg.Python, cfg.PyInstaller, cfg.BuildTimeout),
		store,
		artifactsDir,
	)
	return Service{
		Resolver:     resolver,
		Store:        store,
		Orchestrator: orchestrator,
		ArtifactsDir: artifactsDir,
		PublicURL:    strings.TrimRight(strings.TrimSpace(cfg.PublicURL), "/"),
	}
}
