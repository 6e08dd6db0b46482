package core

import (
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderInstallerFromIndex(t *testing.T) {
	script, err := RenderInstaller(InstallerScript{Tool: "requests", Version: "2.31.0"})
	require.NoError(t, err)
	assert.Contains(t, script, "#!/usr/bin/env bash\n")
	assert.Contains(t, script, `"$PIP" install 'requests==2.31.0'`)
	assert.Contains(t, script, "Installation complete!")
}

func TestRenderInstallerFromBuiltWheel(t *testing.T) {
	script, err := RenderInstaller(InstallerScript{
		Tool:     "requests",
		Version:  "2.31.0",
		WheelURL: "https://bins.example/download/b1/requests-2.31.0-py3-none-any.whl",
	})
	require.NoError(t, err)
	assert.Contains(t, script, `"$PIP" install 'https://bins.example/download/b1/requests-2.31.0-py3-none-any.whl'`)
	assert.NotContains(t, script, "requests==2.31.0'")
}

func TestRenderInstallerRequiresConcreteRelease(t *testing.T) {
	_, err := RenderInstaller(InstallerScript{Tool: "requests"})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, `'plain'`, shellQuote("plain"))
	assert.Equal(t, `'it'"'"'s'`, shellQuote("it's"))
}
