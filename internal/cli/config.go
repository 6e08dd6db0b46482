package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pybins/internal/app"
)

func newAppService(cmd *cobra.Command) (app.Service, error) {
	cfg, err := serviceConfig(cmd)
	if err != nil {
		return app.Service{}, err
	}
	return app.NewService(cfg), nil
}

func serviceConfig(cmd *cobra.Command) (app.Config, error) {
	resolveTimeout, err := resolveDuration(cmd, "resolve_timeout", "resolve-timeout")
	if err != nil {
		return app.Config{}, err
	}
	fetchTimeout, err := resolveDuration(cmd, "fetch_timeout", "fetch-timeout")
	if err != nil {
		return app.Config{}, err
	}
	buildTimeout, err := resolveDuration(cmd, "build_timeout", "build-timeout")
	if err != nil {
		return app.Config{}, err
	}
	return app.Config{
		IndexURL:       resolveString(cmd, flagString(cmd, "index-url"), "index_url", "index-url"),
		IndexUser:      resolveString(cmd, flagString(cmd, "index-user"), "index_user", "index-user"),
		IndexToken:     resolveString(cmd, flagString(cmd, "index-token"), "index_token", "index-token"),
		ArtifactsDir:   resolveString(cmd, flagString(cmd, "artifacts-dir"), "artifacts_dir", "artifacts-dir"),
		ResolveTimeout: resolveTimeout,
		FetchTimeout:   fetchTimeout,
		BuildTimeout:   buildTimeout,
		Python:         resolveString(cmd, flagString(cmd, "python"), "python", "python"),
		PyInstaller:    resolveString(cmd, flagString(cmd, "pyinstaller"), "pyinstaller", "pyinstaller"),
		PublicURL:      resolveString(cmd, flagString(cmd, "public-url"), "public_url", "public-url"),
	}, nil
}

func resolveString(cmd *cobra.Command, value string, key string, flagName string) string {
	if cmd == nil {
		if value != "" {
			return value
		}
		return viper.GetString(key)
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetString(key)
}

// resolveDuration accepts Go duration strings and bare seconds.
func resolveDuration(cmd *cobra.Command, key string, flagName string) (time.Duration, error) {
	raw := strings.TrimSpace(resolveString(cmd, flagString(cmd, flagName), key, flagName))
	if raw == "" {
		return 0, nil
	}
	if duration, err := time.ParseDuration(raw); err == nil {
		if duration < 0 {
			return 0, invalidDuration(key, raw)
		}
		return duration, nil
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0, invalidDuration(key, raw)
	}
	return time.Duration(seconds) * time.Second, nil
}

func invalidDuration(key string, raw string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("invalid duration for %s: %s", key, raw))
}

// flagString reads a string flag from the command or its parents.
func flagString(cmd *cobra.Command, name string) string {
	if cmd == nil {
		return ""
	}
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		flag = cmd.InheritedFlags().Lookup(name)
	}
	if flag == nil {
		return ""
	}
	return flag.Value.String()
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil || strings.TrimSpace(name) == "" {
		return false
	}
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag.Changed
	}
	if flag := cmd.PersistentFlags().Lookup(name); flag != nil {
		return flag.Changed
	}
	if flag := cmd.InheritedFlags().Lookup(name); flag != nil {
		return flag.Changed
	}
	return false
}
