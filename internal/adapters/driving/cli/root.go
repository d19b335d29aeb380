// Package cli provides the graphcal command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/graphcal/internal/config"
	"github.com/custodia-labs/graphcal/internal/logger"
)

// ServeFunc builds the application from cfg and serves until ctx is cancelled.
type ServeFunc func(ctx context.Context, cfg *config.Config) error

var (
	// Version is set by goreleaser ldflags.
	version = "dev"

	// Verbose enables debug logging.
	verbose bool

	// configPath overrides the default config file location.
	configPath string

	// serveFunc is injected by main.
	serveFunc ServeFunc
)

// Services holds the entry points injected into CLI commands.
type Services struct {
	Serve ServeFunc
}

// SetServices injects service implementations for CLI commands.
func SetServices(s *Services) {
	if s == nil {
		return
	}
	serveFunc = s.Serve
}

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "graphcal",
	Short: "Microsoft 365 calendar web app",
	Long: `graphcal signs users in with the Microsoft identity platform and shows
their calendar for the current week, with a form to create new events.

Run 'graphcal config init' to write a starter configuration, then
'graphcal serve' to start the web server.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string for the CLI.
func SetVersion(v string) {
	version = v
}

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose debug output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default "+config.DefaultPath()+")")

	// Use PersistentPreRunE to set verbose mode before any command executes
	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		return nil
	}
}
