package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pybins/internal/shared"
)

// version is set at build time via ldflags.
var version = "dev"

const envPrefix = "PYBINS"

type RootConfig struct {
	ConfigFile     string
	LogLevel       string
	IndexURL       string
	IndexUser      string
	IndexToken     string
	ArtifactsDir   string
	ResolveTimeout string
	FetchTimeout   string
	BuildTimeout   string
	Python         string
	PyInstaller    string
	PublicURL      string
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	root := newRootCommand()
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", errorMessage(err))
		os.Exit(exitCodeForError(err))
	}
}

func newRootCommand() *cobra.Command {
	cfg := RootConfig{}
	cmd := &cobra.Command{
		Use:           "pybins",
		Short:         "Build Python wheels and single-file binaries on demand",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(cfg.ConfigFile); err != nil {
				return err
			}
			setupLogging(viper.GetString("log_level"))
			cmd.SetContext(log.Logger.WithContext(cmd.Context()))
			return nil
		},
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&cfg.ConfigFile, "config", "", "Config file path")
	flags.StringVar(&cfg.LogLevel, "log-level", "info", "Log level")
	flags.StringVar(&cfg.IndexURL, "index-url", "https://pypi.org/pypi", "Package index JSON API base URL")
	flags.StringVar(&cfg.IndexUser, "index-user", "", "Package index user")
	flags.StringVar(&cfg.IndexToken, "index-token", "", "Package index token")
	flags.StringVar(&cfg.ArtifactsDir, "artifacts-dir", "artifacts", "Root directory for build outputs")
	flags.StringVar(&cfg.ResolveTimeout, "resolve-timeout", "10s", "Package index request timeout")
	flags.StringVar(&cfg.FetchTimeout, "fetch-timeout", "30s", "Source download connect and header timeout")
	flags.StringVar(&cfg.BuildTimeout, "build-timeout", "0", "Build tool deadline (0 disables)")
	flags.StringVar(&cfg.Python, "python", "python3", "Python interpreter used for wheel builds")
	flags.StringVar(&cfg.PyInstaller, "pyinstaller", "pyinstaller", "PyInstaller executable used for binary builds")
	flags.StringVar(&cfg.PublicURL, "public-url", "", "Public base URL embedded in installer scripts")

	_ = viper.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("index_url", flags.Lookup("index-url"))
	_ = viper.BindPFlag("index_user", flags.Lookup("index-user"))
	_ = viper.BindPFlag("index_token", flags.Lookup("index-token"))
	_ = viper.BindPFlag("artifacts_dir", flags.Lookup("artifacts-dir"))
	_ = viper.BindPFlag("resolve_timeout", flags.Lookup("resolve-timeout"))
	_ = viper.BindPFlag("fetch_timeout", flags.Lookup("fetch-timeout"))
	_ = viper.BindPFlag("build_timeout", flags.Lookup("build-timeout"))
	_ = viper.BindPFlag("python", flags.Lookup("python"))
	_ = viper.BindPFlag("pyinstaller", flags.Lookup("pyinstaller"))
	_ = viper.BindPFlag("public_url", flags.Lookup("public-url"))

	cmd.AddCommand(newBuildCommand())
	cmd.AddCommand(newResolveCommand())
	cmd.AddCommand(newInstallerCommand())
	cmd.AddCommand(newServeCommand())
	return cmd
}

func initConfig(configFile string) error {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to read config file").
				WithCause(err)
		}
		return nil
	}

	viper.SetConfigName("pybins")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/pybins")
	if err := viper.ReadInConfig(); err != nil {
		return nil
	}
	return nil
}

// setupLogging writes to stderr so command output on stdout stays parseable.
func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.DefaultContextLogger = &log.Logger
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func exitCodeForError(err error) int {
	switch errbuilder.CodeOf(err) {
	case errbuilder.CodeInvalidArgument, errbuilder.CodeAlreadyExists:
		return 2
	case errbuilder.CodePermissionDenied:
		return 3
	case errbuilder.CodeFailedPrecondition:
		return 4
	case errbuilder.CodeNotFound, errbuilder.CodeInternal:
		return 5
	default:
		return 1
	}
}

func errorMessage(err error) string {
	return shared.ErrorMessage(err)
}
