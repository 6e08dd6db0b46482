package ports

import (
	"context"

	"pybins/internal/types"
)

// BuildExecutorPort runs the external build tool once for a build. A tool
// that exits nonzero yields Success=false with a nil error; precondition
// failures are returned as errors.
type BuildExecutorPort interface {
	Execute(ctx context.Context, request types.ExecutionRequest) (types.ExecutionResult, error)
}
