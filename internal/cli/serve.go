package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ironsheep/hough-tools-mcp/internal/server"
)

// shutdownTimeout bounds how long serve-http waits for in-flight requests.
const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdin/stdout",
		Long:  `Run the MCP server over stdin/stdout. Configure it as a stdio server in your MCP client.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			cfg := configFromContext(ctx)

			logger.Info("starting MCP server", "version", version, "commit", commit)
			srv := server.New(cfg.Pipeline, logger)
			return srv.Serve(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func newServeHTTPCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve-http",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			cfg := configFromContext(ctx)
			if addr != "" {
				cfg.HTTP.Addr = addr
			}

			srv := server.New(cfg.Pipeline, logger)
			httpSrv := &http.Server{
				Addr:              cfg.HTTP.Addr,
				Handler:           srv.Handler(cfg.HTTP.MaxUploadBytes),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				logger.Info("listening", "addr", cfg.HTTP.Addr, "version", version)
				errc <- httpSrv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config and HOUGH_MCP_HTTP_ADDR)")
	return cmd
}
