package ports

import (
	"context"

	"pybins/internal/types"
)

// SourceResolverPort maps a package reference to a fetchable source archive.
// Every failure is reported with errbuilder.CodeNotFound.
type SourceResolverPort interface {
	Resolve(ctx context.Context, ref types.PackageReference) (types.ResolvedSource, error)

	// Versions lists the releases that have at least one distribution file,
	// oldest first in PEP 440 order.
	Versions(ctx context.Context, name string) ([]string, error)
}

// ArchiveFetcherPort downloads a URL into an existing directory and returns
// the local path of the complete file.
type ArchiveFetcherPort interface {
	Fetch(ctx context.Context, url string, destDir string) (string, error)
}

// ArchiveExtractorPort unpacks an archive and returns the build root inside
// extractDir. A tree without a build descriptor is not an error here.
type ArchiveExtractorPort interface {
	ExtractAndLocate(ctx context.Context, archivePath string, extractDir string) (string, error)
}
