package adapters

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"pybins/internal/ports"
	"pybins/internal/types"
)

const (
	wheelExtension  = ".whl"
	moduleEntryName = "__main__.py"
)

type BuildExecutorAdapter struct {
	Python      string
	PyInstaller string
	// Timeout bounds one tool run; zero leaves it unbounded.
	Timeout time.Duration
}

func NewBuildExecutorAdapter(python string, pyinstaller string, timeout time.Duration) BuildExecutorAdapter {
	if strings.TrimSpace(python) == "" {
		python = "python3"
	}
	if strings.TrimSpace(pyinstaller) == "" {
		pyinstaller = "pyinstaller"
	}
	return BuildExecutorAdapter{Python: toolPath(python), PyInstaller: toolPath(pyinstaller), Timeout: timeout}
}

// toolPath anchors a relative tool path to the process working directory.
// Bare names are left for PATH lookup.
func toolPath(tool string) string {
	tool = strings.TrimSpace(tool)
	if filepath.IsAbs(tool) || !strings.ContainsRune(tool, filepath.Separator) {
		return tool
	}
	if abs, err := filepath.Abs(tool); err == nil {
		return abs
	}
	return tool
}

func (a BuildExecutorAdapter) Execute(ctx context.Context, request types.ExecutionRequest) (types.ExecutionResult, error) {
	if strings.TrimSpace(request.ArtifactsDir) == "" {
		return types.ExecutionResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("artifacts directory is empty")
	}
	request, err := absoluteRequest(request)
	if err != nil {
		return types.ExecutionResult{}, err
	}
	switch request.Kind {
	case types.BuildKindWheel:
		return a.buildWheel(ctx, request)
	case types.BuildKindBinary:
		return a.buildBinary(ctx, request)
	default:
		return types.ExecutionResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("Unknown build type: %s", request.Kind))
	}
}

// absoluteRequest resolves every directory against the process working
// directory, since the tools run from the build root or the script directory.
func absoluteRequest(request types.ExecutionRequest) (types.ExecutionRequest, error) {
	for _, dir := range []*string{&request.ArtifactsDir, &request.BuildRoot, &request.ExtractDir} {
		if strings.TrimSpace(*dir) == "" {
			continue
		}
		abs, err := filepath.Abs(*dir)
		if err != nil {
			return request, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to resolve build directory").
				WithCause(err)
		}
		*dir = abs
	}
	return request, nil
}

func (a BuildExecutorAdapter) buildWheel(ctx context.Context, request types.ExecutionRequest) (types.ExecutionResult, error) {
	args := []string{"-m", "build", "--wheel", "--outdir", request.ArtifactsDir}
	result, err := a.runTool(ctx, request.ArtifactsDir, request.BuildRoot, a.Python, args)
	if err != nil || !result.Success {
		return result, err
	}
	produced, err := firstArtifact(request.ArtifactsDir, func(name string) bool {
		return strings.HasSuffix(name, wheelExtension)
	})
	if err != nil {
		return result, err
	}
	if produced == "" {
		return result, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("Wheel build failed: no .whl file found.")
	}
	result.ProducedFile = produced
	return result, nil
}

func (a BuildExecutorAdapter) buildBinary(ctx context.Context, request types.ExecutionRequest) (types.ExecutionResult, error) {
	searchRoot := request.ExtractDir
	if strings.TrimSpace(searchRoot) == "" {
		searchRoot = request.BuildRoot
	}
	script, err := FindEntryScript(searchRoot, request.PackageName)
	if err != nil {
		return types.ExecutionResult{}, err
	}
	if script == "" {
		return types.ExecutionResult{}, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("Could not find an entry script (__main__.py or <package>.py) for binary build.")
	}
	log.Ctx(ctx).Debug().Str("entry_script", script).Msg("entry script selected")

	args := []string{"--onefile", "--distpath", request.ArtifactsDir, script}
	result, err := a.runTool(ctx, request.ArtifactsDir, filepath.Dir(script), a.PyInstaller, args)
	if err != nil || !result.Success {
		return result, err
	}
	produced, err := firstArtifact(request.ArtifactsDir, func(name string) bool {
		return name != types.BuildLogName
	})
	if err != nil {
		return result, err
	}
	if produced == "" {
		return result, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("Binary build failed: no binary file found.")
	}
	result.ProducedFile = produced
	return result, nil
}

// runTool starts exactly one process with stdout and stderr merged into the
// build log. A nonzero exit is reported through the result, not the error.
func (a BuildExecutorAdapter) runTool(ctx context.Context, artifactsDir string, workDir string, tool string, args []string) (types.ExecutionResult, error) {
	if err := os.MkdirAll(artifactsDir, 0o755); err != nil {
		return types.ExecutionResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create artifacts directory").
			WithCause(err)
	}
	logPath := filepath.Join(artifactsDir, types.BuildLogName)
	logFile, err := os.Create(logPath)
	if err != nil {
		return types.ExecutionResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create build log").
			WithCause(err)
	}
	defer logFile.Close()

	runCtx := ctx
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(runCtx, tool, args...)
	cmd.Dir = workDir
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	started := time.Now()
	runErr := cmd.Run()
	result := types.ExecutionResult{LogPath: logPath, Success: runErr == nil}
	if runErr != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		if runCtx.Err() != nil {
			fmt.Fprintf(logFile, "\n%s terminated: %v\n", filepath.Base(tool), runCtx.Err())
		} else if result.ExitCode == -1 {
			fmt.Fprintf(logFile, "\nfailed to run %s: %v\n", tool, runErr)
		}
	}
	log.Ctx(ctx).Info().
		Str("tool", filepath.Base(tool)).
		Str("dir", workDir).
		Int("exit_code", result.ExitCode).
		Dur("elapsed", time.Since(started)).
		Msg("build tool finished")
	return result, nil
}

// FindEntryScript walks root in pre-order lexical order and returns the first
// __main__.py, falling back to the first file named <packageName>.py. It
// returns "" when neither exists.
func FindEntryScript(root string, packageName string) (string, error) {
	candidates := []string{moduleEntryName}
	if name := strings.TrimSpace(packageName); name != "" {
		candidates = append(candidates, name+".py")
	}
	for _, candidate := range candidates {
		found, err := findFirstFile(root, candidate)
		if err != nil {
			return "", err
		}
		if found != "" {
			return found, nil
		}
	}
	return "", nil
}

func findFirstFile(root string, name string) (string, error) {
	found := ""
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if d.Name() == name {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to search for entry script").
			WithCause(err)
	}
	return found, nil
}

// firstArtifact returns the first regular file, by name, in dir accepted by
// match.
func firstArtifact(dir string, match func(name string) bool) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read artifacts directory").
			WithCause(err)
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if match(entry.Name()) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", nil
}

var _ ports.BuildExecutorPort = BuildExecutorAdapter{}
