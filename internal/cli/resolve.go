package cli

import (
	"context"

	"github.com/spf13/cobra"

	"pybins/internal/app"
	"pybins/internal/types"
)

type resolveOptions struct {
	Version  string
	Versions bool
	Format   string
}

func newResolveCommand() *cobra.Command {
	opts := resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve <package>",
		Short: "Show the source distribution a build would use",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context(), cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Version, "version", types.LatestVersion, "Package version or latest")
	cmd.Flags().BoolVar(&opts.Versions, "versions", false, "List available releases instead")
	cmd.Flags().StringVar(&opts.Format, "format", formatJSON, "Output format (json, yaml)")

	return cmd
}

func runResolve(ctx context.Context, cmd *cobra.Command, pkg string, opts resolveOptions) error {
	service, err := newAppService(cmd)
	if err != nil {
		return err
	}
	if opts.Versions {
		versions, err := service.Versions(ctx, pkg)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), opts.Format, versions)
	}
	source, err := service.Resolve(ctx, app.ResolveRequest{Package: pkg, Version: opts.Version})
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), opts.Format, source)
}
