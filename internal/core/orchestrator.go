package core

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"pybins/internal/ports"
	"pybins/internal/shared"
	"pybins/internal/types"
)

// BuildOrchestrator drives one build from request to terminal record. Stages
// run strictly in order and every failure ends in a failed record.
type BuildOrchestrator struct {
	Resolver     ports.SourceResolverPort
	Fetcher      ports.ArchiveFetcherPort
	Extractor    ports.ArchiveExtractorPort
	Executor     ports.BuildExecutorPort
	Store        ports.BuildStorePort
	ArtifactsDir string
	Clock        func() time.Time
	NewSuffix    func() string
}

func NewBuildOrchestrator(
	resolver ports.SourceResolverPort,
	fetcher ports.ArchiveFetcherPort,
	extractor ports.ArchiveExtractorPort,
	executor ports.BuildExecutorPort,
	store ports.BuildStorePort,
	artifactsDir string,
) BuildOrchestrator {
	return BuildOrchestrator{
		Resolver:     resolver,
		Fetcher:      fetcher,
		Extractor:    extractor,
		Executor:     executor,
		Store:        store,
		ArtifactsDir: artifactsDir,
		Clock:        time.Now,
		NewSuffix:    RandomSuffix,
	}
}

// Run executes the pipeline and returns the terminal record. It never
// returns an error; the outcome is carried by the record's status and output.
func (o BuildOrchestrator) Run(ctx context.Context, ref types.PackageReference, kind types.BuildKind) types.BuildRecord {
	version := strings.TrimSpace(ref.Version)
	if ref.IsLatest() {
		version = types.LatestVersion
	}
	name := strings.TrimSpace(ref.Name)
	startedAt := o.now()
	record := types.BuildRecord{
		BuildID:     NewBuildID(name, version, kind, startedAt, o.suffix()),
		PackageName: name,
		Version:     version,
		Kind:        kind,
		Status:      types.BuildStatusPending,
		StartedAt:   startedAt,
	}

	logger := log.Ctx(ctx).With().
		Str("build_id", record.BuildID).
		Str("package", name).
		Str("version", version).
		Str("kind", string(kind)).
		Logger()
	ctx = logger.WithContext(ctx)
	assert.NotEmpty(ctx, record.BuildID, "build id must be set")

	if o.Store == nil {
		record.Status = types.BuildStatusFailed
		record.Output = "build store is not configured"
		finishedAt := o.now()
		record.FinishedAt = &finishedAt
		logger.Error().Msg(record.Output)
		return record
	}
	if err := o.Store.Create(ctx, record); err != nil {
		logger.Error().Err(err).Msg("failed to record build")
		record.Status = types.BuildStatusFailed
		record.Output = shared.ErrorMessage(err)
		finishedAt := o.now()
		record.FinishedAt = &finishedAt
		return record
	}
	record.Status = types.BuildStatusInProgress
	o.save(ctx, record)
	logger.Info().Msg("build started")

	if err := o.checkPorts(); err != nil {
		return o.fail(ctx, record, types.NewStageError(types.BuildStageNone, err))
	}
	if _, known := types.BuildKindFromString(string(kind)); !known {
		return o.fail(ctx, record, types.NewStageError(types.BuildStageNone, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("Unknown build type: %s", kind))))
	}

	record = o.enter(ctx, record, types.BuildStageResolve)
	source, err := o.Resolver.Resolve(ctx, types.PackageReference{Name: name, Version: version})
	if err != nil {
		return o.fail(ctx, record, types.NewStageError(types.BuildStageResolve, resolutionError(name, version, err)))
	}
	record.ResolvedVersion = source.Version

	record = o.enter(ctx, record, types.BuildStageFetch)
	layout := NewBuildLayout(o.ArtifactsDir, record.BuildID)
	if err := PrepareLayout(layout); err != nil {
		return o.fail(ctx, record, types.NewStageError(types.BuildStageFetch, err))
	}
	archivePath, err := o.Fetcher.Fetch(ctx, source.DownloadURL, layout.StagingDir)
	if err != nil {
		return o.fail(ctx, record, types.NewStageError(types.BuildStageFetch, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("Failed to download package source: %s", shared.ErrorMessage(err))).
			WithCause(err)))
	}

	record = o.enter(ctx, record, types.BuildStageExtract)
	buildRoot, err := o.Extractor.ExtractAndLocate(ctx, archivePath, layout.ExtractDir)
	if err != nil {
		return o.fail(ctx, record, types.NewStageError(types.BuildStageExtract, err))
	}

	record = o.enter(ctx, record, types.BuildStageExecute)
	result, err := o.Executor.Execute(ctx, types.ExecutionRequest{
		PackageName:  name,
		Kind:         kind,
		BuildRoot:    buildRoot,
		ExtractDir:   layout.ExtractDir,
		ArtifactsDir: layout.ArtifactsDir,
	})
	if err != nil {
		if strings.TrimSpace(result.LogPath) != "" {
			record.LogURL = DownloadPath(record.BuildID, filepath.Base(result.LogPath))
		}
		return o.fail(ctx, record, types.NewStageError(types.BuildStageExecute, err))
	}
	logURL := DownloadPath(record.BuildID, logFileName(result.LogPath))
	if !result.Success {
		record.DownloadURL = logURL
		record.LogURL = logURL
		return o.fail(ctx, record, types.NewStageError(types.BuildStageExecute, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("%s See log at %s", toolFailurePrefix(kind), logURL)).
			WithCause(fmt.Errorf("exit_code=%d", result.ExitCode))))
	}
	if strings.TrimSpace(result.ProducedFile) == "" {
		record.LogURL = logURL
		return o.fail(ctx, record, types.NewStageError(types.BuildStageExecute, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("Build produced no artifact.")))
	}

	record.DownloadURL = DownloadPath(record.BuildID, filepath.Base(result.ProducedFile))
	record.LogURL = logURL
	record.Output = successMessage(kind, name, source.Version)
	return o.finish(ctx, record, types.BuildStatusSuccess, types.BuildStageDone)
}

func (o BuildOrchestrator) checkPorts() error {
	if o.Resolver == nil || o.Fetcher == nil || o.Extractor == nil || o.Executor == nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("build pipeline is not configured")
	}
	if strings.TrimSpace(o.ArtifactsDir) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("artifacts directory is not configured")
	}
	return nil
}

func (o BuildOrchestrator) enter(ctx context.Context, record types.BuildRecord, stage types.BuildStage) types.BuildRecord {
	record.Stage = stage
	o.save(ctx, record)
	log.Ctx(ctx).Debug().Str("stage", string(stage)).Msg("stage started")
	return record
}

func (o BuildOrchestrator) fail(ctx context.Context, record types.BuildRecord, stageErr *types.StageError) types.BuildRecord {
	if stageErr.Stage != types.BuildStageNone {
		record.Stage = stageErr.Stage
	}
	record.Output = shared.ErrorMessage(stageErr)
	log.Ctx(ctx).Warn().
		Str("stage", string(stageErr.Stage)).
		Err(stageErr.Err).
		Msg("build failed")
	return o.finish(ctx, record, types.BuildStatusFailed, record.Stage)
}

func (o BuildOrchestrator) finish(ctx context.Context, record types.BuildRecord, status types.BuildStatus, stage types.BuildStage) types.BuildRecord {
	finishedAt := o.now()
	record.Status = status
	record.Stage = stage
	record.FinishedAt = &finishedAt
	o.save(ctx, record)
	if status == types.BuildStatusSuccess {
		log.Ctx(ctx).Info().
			Str("download_url", record.DownloadURL).
			Dur("elapsed", finishedAt.Sub(record.StartedAt)).
			Msg("build succeeded")
	}
	return record
}

func (o BuildOrchestrator) save(ctx context.Context, record types.BuildRecord) {
	if err := o.Store.Update(ctx, record); err != nil {
		log.Ctx(ctx).Error().
			Err(err).
			Str("status", string(record.Status)).
			Msg("failed to update build record")
	}
}

func (o BuildOrchestrator) now() time.Time {
	if o.Clock == nil {
		return time.Now()
	}
	return o.Clock()
}

func (o BuildOrchestrator) suffix() string {
	if o.NewSuffix == nil {
		return RandomSuffix()
	}
	return o.NewSuffix()
}

// resolutionError keeps the user-facing message stable whatever the
// resolver reported.
func resolutionError(name string, version string, err error) error {
	if errbuilder.CodeOf(err) == errbuilder.CodeNotFound {
		return err
	}
	return errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("Could not find package %s version %s", name, version)).
		WithCause(err)
}

func logFileName(logPath string) string {
	if strings.TrimSpace(logPath) == "" {
		return types.BuildLogName
	}
	return filepath.Base(logPath)
}

func toolFailurePrefix(kind types.BuildKind) string {
	if kind == types.BuildKindBinary {
		return "Binary build failed."
	}
	return "Build failed."
}

func successMessage(kind types.BuildKind, name string, version string) string {
	if kind == types.BuildKindBinary {
		return fmt.Sprintf("Successfully built binary for %s version %s", name, version)
	}
	return fmt.Sprintf("Successfully built %s version %s", name, version)
}
