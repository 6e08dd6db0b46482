package ports

import (
	"context"

	"pybins/internal/types"
)

type BuildStorePort interface {
	Create(ctx context.Context, record types.BuildRecord) error
	Update(ctx context.Context, record types.BuildRecord) error
	Get(ctx context.Context, buildID string) (types.BuildRecord, error)
	List(ctx context.Context) ([]types.BuildRecord, error)
}
