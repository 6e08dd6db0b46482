package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"pybins/internal/app"
)

func newInstallerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "installer <package>[@version]",
		Short: "Print an install script for a package release",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstaller(cmd.Context(), cmd, args[0])
		},
	}
}

func runInstaller(ctx context.Context, cmd *cobra.Command, request string) error {
	service, err := newAppService(cmd)
	if err != nil {
		return err
	}
	result, err := service.Installer(ctx, app.ParseToolRequest(request))
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), result.Script)
	return err
}
