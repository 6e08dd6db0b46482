package app

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pybins/internal/types"
)

var (
	packageNamePattern = regexp.MustCompile(`^([A-Za-z0-9]|[A-Za-z0-9][A-Za-z0-9._-]*[A-Za-z0-9])$`)
	versionPattern     = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._+!-]*$`)
)

func validatePackageName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("package name is required")
	}
	if !packageNamePattern.MatchString(name) {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid package name: %s", name))
	}
	return name, nil
}

// validateVersion returns "latest" for an empty value.
func validateVersion(version string) (string, error) {
	version = strings.TrimSpace(version)
	if version == "" || version == types.LatestVersion {
		return types.LatestVersion, nil
	}
	if !versionPattern.MatchString(version) {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid version: %s", version))
	}
	return version, nil
}

func validateKind(kind string) (types.BuildKind, error) {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return types.BuildKindWheel, nil
	}
	parsed, known := types.BuildKindFromString(kind)
	if !known {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("Unknown build type: %s", kind))
	}
	return parsed, nil
}

func validateReference(name string, version string) (types.PackageReference, error) {
	validName, err := validatePackageName(name)
	if err != nil {
		return types.PackageReference{}, err
	}
	validVersion, err := validateVersion(version)
	if err != nil {
		return types.PackageReference{}, err
	}
	return types.PackageReference{Name: validName, Version: validVersion}, nil
}
