package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/graphcal/internal/config"
	"github.com/custodia-labs/graphcal/internal/logger"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the graphcal web server.

Configuration is read from the config file, a .env file in the working
directory and GRAPHCAL_* environment variables, in increasing priority.

Examples:
  graphcal serve
  graphcal serve --listen 0.0.0.0:8080
  GRAPHCAL_CLIENT_ID=... GRAPHCAL_CLIENT_SECRET=... graphcal serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	if serveFunc == nil {
		return errors.New("serve is not available")
	}

	cfg, err := config.Load(resolvedConfigPath())
	if err != nil {
		return err
	}
	if serveListen != "" {
		cfg.Listen = serveListen
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w (run 'graphcal config init' or set %s and %s)",
			err, config.EnvClientID, config.EnvClientSecret)
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Debug("serve: config loaded, base url %s", cfg.BaseURL)
	return serveFunc(ctx, cfg)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
