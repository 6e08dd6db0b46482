package adapters

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"pybins/internal/ports"
	"pybins/internal/shared"
)

const partialSuffix = ".part"

type ArchiveFetcherAdapter struct {
	client *http.Client
}

func NewArchiveFetcherAdapter(timeout time.Duration) ArchiveFetcherAdapter {
	return ArchiveFetcherAdapter{client: newFetchClient(timeout)}
}

func (a ArchiveFetcherAdapter) Fetch(ctx context.Context, rawURL string, destDir string) (string, error) {
	filename := urlBase(strings.TrimSpace(rawURL))
	if filename == "" || filename == "." || filename == "/" || filename == ".." || strings.ContainsAny(filename, `/\`) {
		return "", fetchError("download url has no file name", fmt.Errorf("url=%s", rawURL))
	}
	info, err := os.Stat(destDir)
	if err != nil {
		return "", fetchError("download directory is not available", err)
	}
	if !info.IsDir() {
		return "", fetchError("download directory is not a directory", fmt.Errorf("path=%s", destDir))
	}

	resp, err := doGet(ctx, a.client, rawURL, basicAuth{})
	if err != nil {
		return "", fetchError("download request failed", err)
	}
	defer resp.Body.Close()
	if !isSuccessStatus(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fetchError("download returned an error status", shared.HTTPStatusError(resp.StatusCode, rawURL))
	}

	finalPath := filepath.Join(destDir, filename)
	partialPath := finalPath + partialSuffix
	written, err := writeStream(partialPath, resp.Body)
	if err != nil {
		_ = os.Remove(partialPath)
		return "", fetchError("failed to write downloaded archive", err)
	}
	if err := os.Rename(partialPath, finalPath); err != nil {
		_ = os.Remove(partialPath)
		return "", fetchError("failed to finalize downloaded archive", err)
	}
	log.Ctx(ctx).Debug().
		Str("url", rawURL).
		Str("path", finalPath).
		Int64("bytes", written).
		Msg("archive downloaded")
	return finalPath, nil
}

func writeStream(path string, body io.Reader) (int64, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	written, copyErr := io.Copy(file, body)
	closeErr := file.Close()
	if copyErr != nil {
		return written, copyErr
	}
	if closeErr != nil {
		return written, closeErr
	}
	return written, nil
}

func fetchError(msg string, cause error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(msg).
		WithCause(cause)
}

var _ ports.ArchiveFetcherPort = ArchiveFetcherAdapter{}
