package commands

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/propsage/propsage/internal/engine"
	"github.com/propsage/propsage/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the prediction API",
		Long: `Start the HTTP server exposing the prediction API.

The server starts even when no model bundle exists yet; prediction
endpoints return 503 until one is trained. With --watch the server
picks up newly published bundles without a restart.`,
		Example: `  # Serve on the configured host and port
  propsage serve

  # Serve on a specific port and reload on new bundles
  propsage serve --port 9000 --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}

	cmd.Flags().String("host", "", "Host to bind to")
	cmd.Flags().Int("port", 0, "Port to listen on")
	cmd.Flags().Bool("watch", false, "Reload the model bundle when a new one is published")
	return cmd
}

func runServe(cmd *cobra.Command) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	logger := cmdCtx.Logger

	watch, _ := cmd.Flags().GetBool("watch")

	eng := engine.New(engine.Config{
		BundlePath: bundlePath(cfg),
		Logger:     logger,
	})
	if err := eng.Load(); err != nil {
		if !errors.Is(err, engine.ErrBundleNotFound) {
			return err
		}
		logger.Warn("no model bundle yet, serving unready", "path", bundlePath(cfg))
	}

	srv := server.NewServer(server.Config{
		Engine:      eng,
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		Watch:       watch,
		Environment: cfg.Environment,
		Logger:      logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Serve(ctx)
}
