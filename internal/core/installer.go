package core

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// InstallerScript describes what a generated installer installs. WheelURL,
// when set, points at a wheel this service built for the same release.
type InstallerScript struct {
	Tool     string
	Version  string
	WheelURL string
}

var installerTemplate = template.Must(template.New("installer").
	Funcs(template.FuncMap{"quote": shellQuote}).
	Parse(`#!/usr/bin/env bash
# Installer for {{ .Tool }}=={{ .Version }}
set -euo pipefail

PIP="${PIP:-pip}"
echo "Installing {{ .Tool }} version {{ .Version }}..."
{{- if .WheelURL }}
"$PIP" install {{ quote .WheelURL }}
{{- else }}
"$PIP" install {{ quote (printf "%s==%s" .Tool .Version) }}
{{- end }}
echo "Installation complete!"
`))

// RenderInstaller returns a bash script that installs the described release.
func RenderInstaller(script InstallerScript) (string, error) {
	if strings.TrimSpace(script.Tool) == "" || strings.TrimSpace(script.Version) == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("installer requires a tool and a concrete version")
	}
	var buf bytes.Buffer
	if err := installerTemplate.Execute(&buf, script); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to render installer script").
			WithCause(err)
	}
	return buf.String(), nil
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'"'"'`) + "'"
}
