package app

import (
	"context"
	"strings"

	"pybins/internal/core"
	"pybins/internal/shared"
	"pybins/internal/types"
)

// ParseToolRequest splits "tool" or "tool@version".
func ParseToolRequest(value string) InstallerRequest {
	tool, version, found := strings.Cut(strings.TrimSpace(value), "@")
	if !found {
		return InstallerRequest{Tool: tool}
	}
	return InstallerRequest{Tool: tool, Version: version}
}

// Installer renders an install script for a concrete release. When a public
// URL is configured and a wheel for that release was built here, the script
// installs that wheel instead of going to the index.
func (s Service) Installer(ctx context.Context, req InstallerRequest) (InstallerResult, error) {
	source, err := s.Resolve(ctx, ResolveRequest{Package: req.Tool, Version: req.Version})
	if err != nil {
		return InstallerResult{}, err
	}
	wheelURL := ""
	if s.PublicURL != "" {
		if record, ok := s.latestWheel(ctx, source.Name, source.Version); ok {
			wheelURL = s.PublicURL + record.DownloadURL
		}
	}
	script, err := core.RenderInstaller(core.InstallerScript{
		Tool:     source.Name,
		Version:  source.Version,
		WheelURL: wheelURL,
	})
	if err != nil {
		return InstallerResult{}, err
	}
	return InstallerResult{
		Tool:     source.Name,
		Version:  source.Version,
		WheelURL: wheelURL,
		Script:   script,
	}, nil
}

func (s Service) latestWheel(ctx context.Context, name string, version string) (types.BuildRecord, bool) {
	if s.Store == nil {
		return types.BuildRecord{}, false
	}
	records, err := s.Store.List(ctx)
	if err != nil {
		return types.BuildRecord{}, false
	}
	wanted := shared.NormalizePipName(name)
	for i := len(records) - 1; i >= 0; i-- {
		record := records[i]
		if record.Kind != types.BuildKindWheel || record.Status != types.BuildStatusSuccess {
			continue
		}
		if shared.NormalizePipName(record.PackageName) != wanted || record.ResolvedVersion != version {
			continue
		}
		return record, true
	}
	return types.BuildRecord{}, false
}
