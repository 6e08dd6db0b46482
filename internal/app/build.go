package app

import (
	"context"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pybins/internal/types"
)

// Build validates the request and runs one build to completion. A failed
// build is not an error; it is reported through the returned record.
func (s Service) Build(ctx context.Context, req BuildRequest) (types.BuildRecord, error) {
	ref, err := validateReference(req.Package, req.Version)
	if err != nil {
		return types.BuildRecord{}, err
	}
	kind, err := validateKind(req.Kind)
	if err != nil {
		return types.BuildRecord{}, err
	}
	return s.Orchestrator.Run(ctx, ref, kind), nil
}

func (s Service) GetBuild(ctx context.Context, buildID string) (types.BuildRecord, error) {
	if s.Store == nil {
		return types.BuildRecord{}, storeMissing()
	}
	return s.Store.Get(ctx, buildID)
}

func (s Service) ListBuilds(ctx context.Context) (BuildList, error) {
	if s.Store == nil {
		return BuildList{}, storeMissing()
	}
	records, err := s.Store.List(ctx)
	if err != nil {
		return BuildList{}, err
	}
	return BuildList{Builds: records, Count: len(records)}, nil
}

func storeMissing() error {
	return errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg("build store is not configured")
}
