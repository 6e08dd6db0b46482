package adapters

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog/log"

	"pybins/internal/ports"
)

type archiveFormat string

const (
	archiveFormatTarGz archiveFormat = "tar.gz"
	archiveFormatZip   archiveFormat = "zip"
)

// buildDescriptors mark a directory as a Python project root.
var buildDescriptors = []string{"setup.py", "pyproject.toml"}

type ArchiveExtractorAdapter struct{}

func NewArchiveExtractorAdapter() ArchiveExtractorAdapter {
	return ArchiveExtractorAdapter{}
}

func (a ArchiveExtractorAdapter) ExtractAndLocate(ctx context.Context, archivePath string, extractDir string) (string, error) {
	format, ok := archiveFormatFor(archivePath)
	if !ok {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("Unknown source archive format.").
			WithCause(fmt.Errorf("path=%s", archivePath))
	}
	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create extraction directory").
			WithCause(err)
	}
	var err error
	switch format {
	case archiveFormatTarGz:
		err = extractTarGz(archivePath, extractDir)
	case archiveFormatZip:
		err = extractZip(archivePath, extractDir)
	}
	if err != nil {
		return "", err
	}
	root, err := locateBuildRoot(extractDir)
	if err != nil {
		return "", err
	}
	log.Ctx(ctx).Debug().
		Str("archive", archivePath).
		Str("format", string(format)).
		Str("build_root", root).
		Msg("archive extracted")
	return root, nil
}

// archiveFormatFor dispatches on the file extension only.
func archiveFormatFor(name string) (archiveFormat, bool) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return archiveFormatTarGz, true
	case strings.HasSuffix(lower, ".zip"):
		return archiveFormatZip, true
	default:
		return "", false
	}
}

func extractTarGz(archivePath string, extractDir string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to open source archive").
			WithCause(err)
	}
	defer file.Close()
	gz, err := gzip.NewReader(file)
	if err != nil {
		return invalidArchive(err)
	}
	defer gz.Close()

	reader := tar.NewReader(gz)
	for {
		header, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, tar.ErrInsecurePath) {
			return unsafeEntry(header.Name)
		}
		if err != nil {
			return invalidArchive(err)
		}
		target, err := archiveTarget(extractDir, header.Name)
		if err != nil {
			return err
		}
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return extractWriteError(err)
			}
		case tar.TypeReg:
			if err := writeArchiveFile(target, reader, header.FileInfo().Mode()); err != nil {
				return err
			}
		default:
			// Links, devices and PAX globals carry no build input.
			continue
		}
	}
}

func extractZip(archivePath string, extractDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return invalidArchive(err)
	}
	defer reader.Close()
	for _, entry := range reader.File {
		target, err := archiveTarget(extractDir, entry.Name)
		if err != nil {
			return err
		}
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return extractWriteError(err)
			}
			continue
		}
		if !entry.Mode().IsRegular() {
			continue
		}
		src, err := entry.Open()
		if err != nil {
			return invalidArchive(err)
		}
		err = writeArchiveFile(target, src, entry.Mode())
		src.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// archiveTarget maps an entry name to a path inside extractDir and rejects
// names that would escape it.
func archiveTarget(extractDir string, name string) (string, error) {
	cleaned := filepath.FromSlash(strings.TrimPrefix(name, "./"))
	if cleaned == "" {
		cleaned = "."
	}
	if !filepath.IsLocal(cleaned) {
		return "", unsafeEntry(name)
	}
	return filepath.Join(extractDir, cleaned), nil
}

func writeArchiveFile(target string, src io.Reader, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return extractWriteError(err)
	}
	perm := mode.Perm() | 0o600
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return extractWriteError(err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return invalidArchive(err)
	}
	if err := out.Close(); err != nil {
		return extractWriteError(err)
	}
	return nil
}

// locateBuildRoot returns the first directory in a pre-order lexical walk
// that holds a build descriptor, or root itself when none does.
func locateBuildRoot(root string) (string, error) {
	found := ""
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if hasBuildDescriptor(path) {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to scan extracted sources").
			WithCause(err)
	}
	if found == "" {
		return root, nil
	}
	return found, nil
}

func hasBuildDescriptor(dir string) bool {
	for _, name := range buildDescriptors {
		info, err := os.Stat(filepath.Join(dir, name))
		if err == nil && info.Mode().IsRegular() {
			return true
		}
	}
	return false
}

func unsafeEntry(name string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("source archive contains an unsafe path").
		WithCause(fmt.Errorf("entry=%s", name))
}

func invalidArchive(cause error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("Source archive is corrupt or unreadable.").
		WithCause(cause)
}

func extractWriteError(cause error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("failed to write extracted sources").
		WithCause(cause)
}

var _ ports.ArchiveExtractorPort = ArchiveExtractorAdapter{}
