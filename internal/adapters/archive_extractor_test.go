package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pybins/tests/testutil"
)

func TestArchiveExtractorTarGzLocatesBuildRoot(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "requests-2.31.0.tar.gz")
	testutil.WriteTarGz(t, archive, map[string]string{
		"requests-2.31.0/":                     "",
		"requests-2.31.0/setup.py":             "from setuptools import setup\nsetup()\n",
		"requests-2.31.0/requests/__init__.py": "",
	})
	extractDir := filepath.Join(dir, "src")

	root, err := NewArchiveExtractorAdapter().ExtractAndLocate(t.Context(), archive, extractDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(extractDir, "requests-2.31.0"), root)
	assert.FileExists(t, filepath.Join(root, "requests", "__init__.py"))
}

func TestArchiveExtractorZipLocatesProjectManifest(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "tool-1.0.ZIP")
	testutil.WriteZip(t, archive, map[string]string{
		"tool-1.0/pyproject.toml":   "[project]\nname = \"tool\"\n",
		"tool-1.0/tool/__main__.py": "print('hi')\n",
	})
	extractDir := filepath.Join(dir, "src")

	root, err := NewArchiveExtractorAdapter().ExtractAndLocate(t.Context(), archive, extractDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(extractDir, "tool-1.0"), root)
}

func TestArchiveExtractorFallsBackToExtractionRoot(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "bare.tgz")
	testutil.WriteTarGz(t, archive, map[string]string{
		"bare/README": "nothing to build",
	})
	extractDir := filepath.Join(dir, "src")

	root, err := NewArchiveExtractorAdapter().ExtractAndLocate(t.Context(), archive, extractDir)
	require.NoError(t, err)
	assert.Equal(t, extractDir, root)
}

func TestArchiveExtractorWalkOrderIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "multi.tar.gz")
	testutil.WriteTarGz(t, archive, map[string]string{
		"a/sub/setup.py": "",
		"b/setup.py":     "",
	})
	extractDir := filepath.Join(dir, "src")

	root, err := NewArchiveExtractorAdapter().ExtractAndLocate(t.Context(), archive, extractDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(extractDir, "a", "sub"), root)
}

func TestArchiveExtractorUnknownFormatIsNotOpened(t *testing.T) {
	dir := t.TempDir()
	extractDir := filepath.Join(dir, "src")

	_, err := NewArchiveExtractorAdapter().ExtractAndLocate(t.Context(), filepath.Join(dir, "missing.rar"), extractDir)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
	assert.Contains(t, err.Error(), "Unknown source archive format.")
	assert.NoDirExists(t, extractDir)
}

func TestArchiveExtractorTarGzNeverUsesZipDecoder(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "disguised.tar.gz")
	testutil.WriteZip(t, archive, map[string]string{"pkg/setup.py": ""})

	_, err := NewArchiveExtractorAdapter().ExtractAndLocate(t.Context(), archive, filepath.Join(dir, "src"))
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
	assert.Contains(t, err.Error(), "Source archive is corrupt or unreadable.")
}

func TestArchiveExtractorRejectsEscapingEntries(t *testing.T) {
	for _, name := range []string{"../evil.py", "pkg/../../evil.py", "/abs/evil.py"} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			archive := filepath.Join(dir, "evil.tar.gz")
			testutil.WriteTarGz(t, archive, map[string]string{name: "boom"})
			extractDir := filepath.Join(dir, "src")

			_, err := NewArchiveExtractorAdapter().ExtractAndLocate(t.Context(), archive, extractDir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "unsafe path")
			_, statErr := os.Stat(filepath.Join(dir, "evil.py"))
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestArchiveFormatFor(t *testing.T) {
	tests := []struct {
		name   string
		format archiveFormat
		ok     bool
	}{
		{name: "pkg-1.0.tar.gz", format: archiveFormatTarGz, ok: true},
		{name: "PKG-1.0.TGZ", format: archiveFormatTarGz, ok: true},
		{name: "pkg-1.0.zip", format: archiveFormatZip, ok: true},
		{name: "pkg-1.0.tar.bz2", ok: false},
		{name: "pkg-1.0-py3-none-any.whl", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, ok := archiveFormatFor(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.format, format)
		})
	}
}
