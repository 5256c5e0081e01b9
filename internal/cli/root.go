// Package cli implements the hough-mcp command-line interface.
//
// # Commands
//
//   - serve: MCP server over stdin/stdout
//   - serve-http: HTTP API for uploaded images
//   - detect: run the pipeline on image files and write the stage images
//
// # Configuration
//
// Every command reads an optional TOML file (--config) on top of the
// built-in defaults, then applies HOUGH_MCP_* environment overrides. The
// resolved config and a logger are attached to the command context.
//
// # Logging
//
// Logs go to stderr so stdout stays reserved for MCP traffic. --verbose
// (-v) forces debug level.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ironsheep/hough-tools-mcp/internal/config"
	"github.com/ironsheep/hough-tools-mcp/internal/server"
)

var (
	version = "dev"     // semantic version (e.g., "v1.2.3")
	commit  = "unknown" // git commit SHA
	date    = "unknown" // build timestamp
)

// SetVersion sets the version information displayed by --version and
// reported in the MCP handshake. It is called by main with values injected
// via ldflags.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
	server.Version = v
}

// Execute runs the CLI until the command finishes or ctx is cancelled.
func Execute(ctx context.Context) error {
	return newRootCmd(os.Stderr).ExecuteContext(ctx)
}

// newRootCmd builds the command tree. Logs are written to logOut.
func newRootCmd(logOut io.Writer) *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	root := &cobra.Command{
		Use:          "hough-mcp",
		Short:        "Canny edge and Hough line detection tools",
		Long:         `hough-mcp detects straight lines and line segments in images. It runs as an MCP server, as an HTTP API, or as a batch command writing every pipeline stage to disk.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg.ApplyEnv()
			if verbose {
				cfg.Log.Level = "debug"
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			level, err := charmlog.ParseLevel(cfg.Log.Level)
			if err != nil {
				return fmt.Errorf("log level: %w", err)
			}
			logger := newLogger(logOut, level)
			logger.Debug("configuration loaded", "path", configPath, "params", fmt.Sprintf("%+v", cfg.Pipeline))

			ctx := withLogger(cmd.Context(), logger)
			cmd.SetContext(withConfig(ctx, cfg))
			return nil
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("hough-mcp %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML configuration file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newServeCmd())
	root.AddCommand(newServeHTTPCmd())
	root.AddCommand(newDetectCmd())

	return root
}
