package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pybins/internal/server"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	Listen string
}

func newServeCommand() *cobra.Command {
	opts := serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the build API, downloads and installer scripts over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", server.DefaultListen, "Listen address")
	_ = viper.BindPFlag("listen", cmd.Flags().Lookup("listen"))

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, opts serveOptions) error {
	service, err := newAppService(cmd)
	if err != nil {
		return err
	}
	srv := server.New(server.Config{
		Listen: resolveString(cmd, opts.Listen, "listen", "listen"),
	}, service)

	errCh := make(chan error, 1)
	go func() {
		log.Ctx(ctx).Info().
			Str("listen", srv.Addr).
			Str("artifacts_dir", service.ArtifactsDir).
			Msg("server started")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return serveError(err)
	case <-ctx.Done():
	}

	log.Ctx(ctx).Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("server shutdown failed").
			WithCause(err)
	}
	return serveError(<-errCh)
}

func serveError(err error) error {
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("server failed").
		WithCause(err)
}
