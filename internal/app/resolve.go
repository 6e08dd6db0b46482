package app

import (
	"context"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pybins/internal/types"
)

// Resolve looks up the source distribution a build of req would use.
func (s Service) Resolve(ctx context.Context, req ResolveRequest) (types.ResolvedSource, error) {
	ref, err := validateReference(req.Package, req.Version)
	if err != nil {
		return types.ResolvedSource{}, err
	}
	if s.Resolver == nil {
		return types.ResolvedSource{}, resolverMissing()
	}
	return s.Resolver.Resolve(ctx, ref)
}

func (s Service) Versions(ctx context.Context, name string) ([]string, error) {
	validName, err := validatePackageName(name)
	if err != nil {
		return nil, err
	}
	if s.Resolver == nil {
		return nil, resolverMissing()
	}
	return s.Resolver.Versions(ctx, validName)
}

func resolverMissing() error {
	return errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg("package resolver is not configured")
}
