package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"
	"github.com/rs/zerolog/log"

	"pybins/internal/ports"
	"pybins/internal/shared"
	"pybins/internal/types"
)

const DefaultIndexURL = "https://pypi.org/pypi"

const (
	resolveReasonTransport = "transport"
	resolveReasonStatus    = "status"
	resolveReasonDecode    = "decode"
	resolveReasonAbsent    = "absent"
)

type PyPIResolverAdapter struct {
	IndexURL string
	auth     basicAuth
	client   *http.Client
}

func NewPyPIResolverAdapter(indexURL string, user string, token string, timeout time.Duration) PyPIResolverAdapter {
	if strings.TrimSpace(indexURL) == "" {
		indexURL = DefaultIndexURL
	}
	if timeout <= 0 {
		timeout = defaultResolveTimeout
	}
	return PyPIResolverAdapter{
		IndexURL: strings.TrimRight(strings.TrimSpace(indexURL), "/"),
		auth:     basicAuth{user: user, token: token},
		client:   &http.Client{Timeout: timeout},
	}
}

func (a PyPIResolverAdapter) Resolve(ctx context.Context, ref types.PackageReference) (types.ResolvedSource, error) {
	name := strings.TrimSpace(ref.Name)
	requested := ref.Version
	if ref.IsLatest() {
		requested = types.LatestVersion
	}
	if name == "" {
		return types.ResolvedSource{}, a.notFound(ctx, name, requested, resolveReasonAbsent, nil)
	}
	project, reason, err := a.fetchProject(ctx, name)
	if err != nil {
		return types.ResolvedSource{}, a.notFound(ctx, name, requested, reason, err)
	}

	version := ref.Version
	if ref.IsLatest() {
		version = strings.TrimSpace(project.Info.Version)
		if version == "" {
			version = latestReleaseWithFiles(project.Releases)
		}
		if version == "" {
			return types.ResolvedSource{}, a.notFound(ctx, name, requested, resolveReasonAbsent, fmt.Errorf("index lists no releases"))
		}
	}
	files := project.Releases[version]
	if len(files) == 0 {
		return types.ResolvedSource{}, a.notFound(ctx, name, requested, resolveReasonAbsent, fmt.Errorf("release %s has no files", version))
	}
	file := selectDistribution(files)
	if strings.TrimSpace(file.URL) == "" {
		return types.ResolvedSource{}, a.notFound(ctx, name, requested, resolveReasonDecode, fmt.Errorf("release %s file has no url", version))
	}
	assert.NotEmpty(ctx, version, "resolved version must be set")

	filename := file.Filename
	if filename == "" {
		filename = urlBase(file.URL)
	}
	source := types.ResolvedSource{
		Name:        name,
		Version:     version,
		DownloadURL: file.URL,
		Filename:    filename,
		Author:      defaultString(project.Info.Author, "Unknown"),
		Summary:     defaultString(project.Info.Summary, "No description"),
		Homepage:    projectHomepage(project.Info),
	}
	log.Ctx(ctx).Debug().
		Str("package", name).
		Str("version", version).
		Str("url", source.DownloadURL).
		Msg("package resolved")
	return source, nil
}

func (a PyPIResolverAdapter) Versions(ctx context.Context, name string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, a.notFound(ctx, name, types.LatestVersion, resolveReasonAbsent, nil)
	}
	project, reason, err := a.fetchProject(ctx, name)
	if err != nil {
		return nil, a.notFound(ctx, name, types.LatestVersion, reason, err)
	}
	var versions []string
	for version, files := range project.Releases {
		if len(files) == 0 {
			continue
		}
		versions = append(versions, version)
	}
	if len(versions) == 0 {
		return nil, a.notFound(ctx, name, types.LatestVersion, resolveReasonAbsent, fmt.Errorf("index lists no releases"))
	}
	return sortPep440Versions(versions), nil
}

func (a PyPIResolverAdapter) projectURL(name string) string {
	return a.IndexURL + "/" + url.PathEscape(name) + "/json"
}

func (a PyPIResolverAdapter) fetchProject(ctx context.Context, name string) (types.IndexProject, string, error) {
	endpoint := a.projectURL(name)
	resp, err := doGet(ctx, a.client, endpoint, a.auth)
	if err != nil {
		return types.IndexProject{}, resolveReasonTransport, err
	}
	defer resp.Body.Close()
	if !isSuccessStatus(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, resp.Body)
		return types.IndexProject{}, resolveReasonStatus, shared.HTTPStatusError(resp.StatusCode, endpoint)
	}
	var project types.IndexProject
	if err := json.NewDecoder(resp.Body).Decode(&project); err != nil {
		return types.IndexProject{}, resolveReasonDecode, err
	}
	return project, "", nil
}

func (a PyPIResolverAdapter) notFound(ctx context.Context, name string, version string, reason string, cause error) error {
	log.Ctx(ctx).Warn().
		Str("package", name).
		Str("version", version).
		Str("reason", reason).
		Err(cause).
		Msg("package resolution failed")
	err := errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("Could not find package %s version %s", name, version))
	if cause != nil {
		return err.WithCause(cause)
	}
	return err
}

// selectDistribution picks the most recently listed source distribution.
// When a release carries none, the most recently listed file is returned and
// the extractor rejects it later.
func selectDistribution(files []types.IndexRelease) types.IndexRelease {
	for i := len(files) - 1; i >= 0; i-- {
		file := files[i]
		if file.PackageType == "sdist" {
			return file
		}
		name := file.Filename
		if name == "" {
			name = urlBase(file.URL)
		}
		if _, ok := archiveFormatFor(name); ok {
			return file
		}
	}
	return files[len(files)-1]
}

func latestReleaseWithFiles(releases map[string][]types.IndexRelease) string {
	var versions []string
	for version, files := range releases {
		if len(files) == 0 {
			continue
		}
		if _, err := pep440.Parse(version); err != nil {
			continue
		}
		versions = append(versions, version)
	}
	if len(versions) == 0 {
		return ""
	}
	sorted := sortPep440Versions(versions)
	return sorted[len(sorted)-1]
}

// sortPep440Versions orders versions oldest first. Versions that do not
// parse as PEP 440 sort before all others, lexically among themselves.
func sortPep440Versions(versions []string) []string {
	parsed := make(map[string]pep440.Version, len(versions))
	for _, version := range versions {
		if v, err := pep440.Parse(version); err == nil {
			parsed[version] = v
		}
	}
	sort.SliceStable(versions, func(i, j int) bool {
		vi, okI := parsed[versions[i]]
		vj, okJ := parsed[versions[j]]
		if okI != okJ {
			return okJ
		}
		if okI {
			if cmp := vi.Compare(vj); cmp != 0 {
				return cmp < 0
			}
		}
		return versions[i] < versions[j]
	})
	return versions
}

func projectHomepage(info types.IndexInfo) string {
	if strings.TrimSpace(info.HomePage) != "" {
		return info.HomePage
	}
	for _, key := range []string{"Homepage", "homepage", "Home", "Source"} {
		if value := strings.TrimSpace(info.ProjectURLs[key]); value != "" {
			return value
		}
	}
	return info.PackageURL
}

func urlBase(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return path.Base(raw)
	}
	base := path.Base(parsed.Path)
	if unescaped, err := url.PathUnescape(base); err == nil {
		return unescaped
	}
	return base
}

func defaultString(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

var _ ports.SourceResolverPort = PyPIResolverAdapter{}
