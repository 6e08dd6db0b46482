package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pybins/internal/adapters"
	"pybins/internal/core"
	"pybins/internal/types"
	"pybins/tests/testutil"
)

type fakeResolver struct {
	releases map[string]string
	refs     []types.PackageReference
}

func (f *fakeResolver) Resolve(_ context.Context, ref types.PackageReference) (types.ResolvedSource, error) {
	f.refs = append(f.refs, ref)
	latest, ok := f.releases[ref.Name]
	if !ok || (!ref.IsLatest() && ref.Version != latest) {
		return types.ResolvedSource{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("Could not find package " + ref.Name + " version " + ref.Version)
	}
	return types.ResolvedSource{
		Name:        ref.Name,
		Version:     latest,
		DownloadURL: "https://files.example/" + ref.Name + "-" + latest + ".tar.gz",
	}, nil
}

func (f *fakeResolver) Versions(_ context.Context, name string) ([]string, error) {
	return []string{f.releases[name]}, nil
}

type fakePipeline struct{}

func (fakePipeline) Fetch(_ context.Context, url string, destDir string) (string, error) {
	path := filepath.Join(destDir, filepath.Base(url))
	return path, os.WriteFile(path, []byte("archive"), 0o644)
}

func (fakePipeline) ExtractAndLocate(_ context.Context, _ string, extractDir string) (string, error) {
	return extractDir, nil
}

func (fakePipeline) Execute(_ context.Context, req types.ExecutionRequest) (types.ExecutionResult, error) {
	logPath := filepath.Join(req.ArtifactsDir, types.BuildLogName)
	if err := os.WriteFile(logPath, []byte("ok\n"), 0o644); err != nil {
		return types.ExecutionResult{}, err
	}
	wheel := filepath.Join(req.ArtifactsDir, req.PackageName+"-2.31.0-py3-none-any.whl")
	if err := os.WriteFile(wheel, []byte("wheel"), 0o644); err != nil {
		return types.ExecutionResult{}, err
	}
	return types.ExecutionResult{Success: true, LogPath: logPath, ProducedFile: wheel}, nil
}

func newTestService(t *testing.T) (Service, *fakeResolver) {
	t.Helper()
	resolver := &fakeResolver{releases: map[string]string{"requests": "2.31.0"}}
	store := adapters.NewMemoryBuildStore()
	artifactsDir := t.TempDir()
	orchestrator := core.NewBuildOrchestrator(resolver, fakePipeline{}, fakePipeline{}, fakePipeline{}, store, artifactsDir)
	orchestrator.Clock = func() time.Time { return time.Date(2024, 5, 1, 12, 30, 45, 0, time.UTC) }
	return Service{
		Resolver:     resolver,
		Store:        store,
		Orchestrator: orchestrator,
		ArtifactsDir: artifactsDir,
	}, resolver
}

func TestBuildRejectsInvalidRequests(t *testing.T) {
	svc, resolver := newTestService(t)

	tests := []struct {
		name    string
		req     BuildRequest
		message string
	}{
		{name: "missing package", req: BuildRequest{}, message: "package name is required"},
		{name: "bad package", req: BuildRequest{Package: "../etc"}, message: "invalid package name: ../etc"},
		{name: "bad version", req: BuildRequest{Package: "requests", Version: "1.0; rm -rf"}, message: "invalid version: 1.0; rm -rf"},
		{name: "unknown kind", req: BuildRequest{Package: "requests", Kind: "sdist"}, message: "Unknown build type: sdist"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Build(t.Context(), tt.req)
			require.Error(t, err)
			assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
	assert.Empty(t, resolver.refs)

	list, err := svc.ListBuilds(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 0, list.Count)
}

func TestBuildDefaultsAndRecordsBuild(t *testing.T) {
	svc, resolver := newTestService(t)

	record, err := svc.Build(t.Context(), BuildRequest{Package: " requests "})
	require.NoError(t, err)
	assert.Equal(t, types.BuildStatusSuccess, record.Status)
	assert.Equal(t, types.BuildKindWheel, record.Kind)
	assert.Equal(t, "latest", record.Version)
	assert.Equal(t, "2.31.0", record.ResolvedVersion)
	assert.True(t, strings.HasPrefix(record.BuildID, "requests-latest-20240501_123045-"), record.BuildID)
	assert.Equal(t, "/download/"+record.BuildID+"/requests-2.31.0-py3-none-any.whl", record.DownloadURL)

	if diff := cmp.Diff([]types.PackageReference{{Name: "requests", Version: "latest"}}, resolver.refs); diff != "" {
		t.Fatalf("resolver calls mismatch (-want +got):\n%s", diff)
	}

	stored, err := svc.GetBuild(t.Context(), record.BuildID)
	require.NoError(t, err)
	if diff := cmp.Diff(record, stored); diff != "" {
		t.Fatalf("stored record mismatch (-want +got):\n%s", diff)
	}

	list, err := svc.ListBuilds(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, list.Count)
}

func TestGetBuildUnknown(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetBuild(t.Context(), "missing")
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}

func TestServiceWithoutStore(t *testing.T) {
	svc := Service{}

	_, err := svc.GetBuild(t.Context(), "x")
	assert.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
	_, err = svc.ListBuilds(t.Context())
	assert.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
	_, err = svc.Resolve(t.Context(), ResolveRequest{Package: "requests"})
	assert.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
}

func TestResolveAndVersions(t *testing.T) {
	svc, _ := newTestService(t)

	source, err := svc.Resolve(t.Context(), ResolveRequest{Package: "requests", Version: "2.31.0"})
	require.NoError(t, err)
	assert.Equal(t, "2.31.0", source.Version)

	_, err = svc.Resolve(t.Context(), ResolveRequest{Package: "requests", Version: "9.9.9"})
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))

	versions, err := svc.Versions(t.Context(), "requests")
	require.NoError(t, err)
	assert.Equal(t, []string{"2.31.0"}, versions)

	_, err = svc.Versions(t.Context(), "")
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestParseToolRequest(t *testing.T) {
	tests := map[string]InstallerRequest{
		"httpie":         {Tool: "httpie"},
		"httpie@3.2.2":   {Tool: "httpie", Version: "3.2.2"},
		" black@24.1.0 ": {Tool: "black", Version: "24.1.0"},
		"ruff@":          {Tool: "ruff"},
	}
	for input, want := range tests {
		if diff := cmp.Diff(want, ParseToolRequest(input)); diff != "" {
			t.Fatalf("ParseToolRequest(%q) mismatch (-want +got):\n%s", input, diff)
		}
	}
}

func TestInstallerFromIndex(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.Installer(t.Context(), ParseToolRequest("requests"))
	require.NoError(t, err)
	assert.Equal(t, "2.31.0", result.Version)
	assert.Empty(t, result.WheelURL)
	assert.Contains(t, result.Script, `"$PIP" install 'requests==2.31.0'`)
}

func TestInstallerPrefersBuiltWheel(t *testing.T) {
	svc, _ := newTestService(t)
	svc.PublicURL = "https://bins.example"

	record, err := svc.Build(t.Context(), BuildRequest{Package: "requests", Version: "2.31.0"})
	require.NoError(t, err)
	require.Equal(t, types.BuildStatusSuccess, record.Status)

	result, err := svc.Installer(t.Context(), ParseToolRequest("requests@2.31.0"))
	require.NoError(t, err)
	assert.Equal(t, "https://bins.example"+record.DownloadURL, result.WheelURL)
	assert.Contains(t, result.Script, `"$PIP" install 'https://bins.example`+record.DownloadURL+`'`)
}

func TestInstallerUnknownTool(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Installer(t.Context(), ParseToolRequest("nonexistent-package-xyz"))
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}

func TestArtifactPath(t *testing.T) {
	svc, _ := newTestService(t)
	record, err := svc.Build(t.Context(), BuildRequest{Package: "requests"})
	require.NoError(t, err)

	path, err := svc.ArtifactPath(t.Context(), record.BuildID, "build.log")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(svc.ArtifactsDir, record.BuildID, "build.log"), path)

	tests := []struct {
		name    string
		buildID string
		file    string
		code    errbuilder.ErrCode
	}{
		{name: "parent traversal", buildID: record.BuildID, file: "..", code: errbuilder.CodeInvalidArgument},
		{name: "nested file", buildID: record.BuildID, file: "a/b", code: errbuilder.CodeInvalidArgument},
		{name: "backslash", buildID: record.BuildID, file: `..\secret`, code: errbuilder.CodeInvalidArgument},
		{name: "empty build", buildID: "", file: "build.log", code: errbuilder.CodeInvalidArgument},
		{name: "unknown build", buildID: "other", file: "build.log", code: errbuilder.CodeNotFound},
		{name: "missing file", buildID: record.BuildID, file: "nope.whl", code: errbuilder.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ArtifactPath(t.Context(), tt.buildID, tt.file)
			require.Error(t, err)
			assert.Equal(t, tt.code, errbuilder.CodeOf(err))
		})
	}
}

func TestNewServiceDefaults(t *testing.T) {
	svc := NewService(Config{PublicURL: " https://bins.example/ "})
	assert.True(t, filepath.IsAbs(svc.ArtifactsDir), svc.ArtifactsDir)
	assert.Equal(t, DefaultArtifactsDir, filepath.Base(svc.ArtifactsDir))
	assert.Equal(t, "https://bins.example", svc.PublicURL)
	assert.NotNil(t, svc.Resolver)
	assert.NotNil(t, svc.Store)
}

func newDemoIndex(t *testing.T) *httptest.Server {
	t.Helper()
	archive := filepath.Join(t.TempDir(), "demo-1.0.tar.gz")
	testutil.WriteTarGz(t, archive, map[string]string{
		"demo-1.0/setup.py":         "from setuptools import setup\n",
		"demo-1.0/demo/__main__.py": "print('demo')\n",
	})
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("GET /demo/json", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(types.IndexProject{
			Info: types.IndexInfo{Name: "demo", Version: "1.0"},
			Releases: map[string][]types.IndexRelease{
				"1.0": {{URL: server.URL + "/files/demo-1.0.tar.gz", PackageType: "sdist"}},
			},
		})
	})
	mux.HandleFunc("GET /files/demo-1.0.tar.gz", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, archive)
	})
	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestBuildWithDefaultRelativeArtifactsDir(t *testing.T) {
	index := newDemoIndex(t)
	work := t.TempDir()
	t.Chdir(work)

	// The fake tools resolve their path arguments against their own working
	// directory, as python -m build and pyinstaller do.
	require.NoError(t, os.MkdirAll("tools", 0o755))
	testutil.WriteScript(t, "tools", "python", `test -f setup.py || exit 9
touch "$5/demo-1.0-py3-none-any.whl"
`)
	testutil.WriteScript(t, "tools", "pyinstaller", `test -f "$4" || exit 7
printf bin > "$3/demo"
`)

	svc := NewService(Config{
		IndexURL:    index.URL,
		Python:      filepath.Join("tools", "python"),
		PyInstaller: filepath.Join("tools", "pyinstaller"),
	})

	tests := []struct {
		kind     string
		artifact string
	}{
		{kind: "wheel", artifact: "demo-1.0-py3-none-any.whl"},
		{kind: "binary", artifact: "demo"},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			record, err := svc.Build(t.Context(), BuildRequest{Package: "demo", Kind: tt.kind})
			require.NoError(t, err)
			require.Equal(t, types.BuildStatusSuccess, record.Status, record.Output)
			assert.Equal(t, "/download/"+record.BuildID+"/"+tt.artifact, record.DownloadURL)
			assert.FileExists(t, filepath.Join(work, DefaultArtifactsDir, record.BuildID, tt.artifact))

			path, err := svc.ArtifactPath(t.Context(), record.BuildID, tt.artifact)
			require.NoError(t, err)
			assert.FileExists(t, path)
		})
	}
}
