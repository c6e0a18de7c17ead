package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/Digital-Shane/shirarium/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve classifications over HTTP",
		Long: `Serve exposes GET /health and POST /v1/parse-filename. The process stops
gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.close()

			if cmd.Flags().Changed("addr") {
				rt.cfg.Server.ListenAddr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.New(rt.classifier, rt.logger).ListenAndServe(ctx, rt.cfg.Server.ListenAddr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8000)")
	return cmd
}
