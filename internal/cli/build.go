package cli

import (
	"context"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"

	"pybins/internal/app"
	"pybins/internal/types"
)

type buildOptions struct {
	Version string
	Kind    string
	Format  string
}

func newBuildCommand() *cobra.Command {
	opts := buildOptions{}
	cmd := &cobra.Command{
		Use:   "build <package>",
		Short: "Build a wheel or single-file binary for a package release",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Version, "version", types.LatestVersion, "Package version or latest")
	cmd.Flags().StringVar(&opts.Kind, "kind", string(types.BuildKindWheel), "Build kind (wheel, binary)")
	cmd.Flags().StringVar(&opts.Format, "format", formatJSON, "Output format (json, yaml)")

	return cmd
}

func runBuild(ctx context.Context, cmd *cobra.Command, pkg string, opts buildOptions) error {
	service, err := newAppService(cmd)
	if err != nil {
		return err
	}
	record, err := service.Build(ctx, app.BuildRequest{
		Package: pkg,
		Version: opts.Version,
		Kind:    opts.Kind,
	})
	if err != nil {
		return err
	}
	if err := writeOutput(cmd.OutOrStdout(), opts.Format, record); err != nil {
		return err
	}
	if record.Status != types.BuildStatusSuccess {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(record.Output)
	}
	return nil
}
