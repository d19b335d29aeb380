package main

import (
	"context"
	"fmt"
	"os"

	"github.com/custodia-labs/graphcal/internal/adapters/driven/auth"
	"github.com/custodia-labs/graphcal/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/graphcal/internal/adapters/driving/cli"
	"github.com/custodia-labs/graphcal/internal/adapters/driving/web"
	"github.com/custodia-labs/graphcal/internal/config"
	"github.com/custodia-labs/graphcal/internal/connectors/microsoft"
	"github.com/custodia-labs/graphcal/internal/connectors/microsoft/calendar"
	"github.com/custodia-labs/graphcal/internal/core/services"
	"github.com/custodia-labs/graphcal/internal/logger"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cli.SetVersion(version)
	cli.SetServices(&cli.Services{Serve: serve})

	if err := cli.Execute(); err != nil {
		return 1
	}
	return 0
}

// serve wires the application from cfg and runs the web server until ctx is done.
func serve(ctx context.Context, cfg *config.Config) error {
	store, err := sqlite.NewStore(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer store.Close()

	oauth := microsoft.NewOAuthHandler(microsoft.OAuthConfig{
		Instance:     cfg.AzureAD.Instance,
		TenantID:     cfg.AzureAD.TenantID,
		ClientID:     cfg.AzureAD.ClientID,
		ClientSecret: cfg.AzureAD.ClientSecret,
		RedirectURL:  cfg.RedirectURL(),
		Scopes:       cfg.AzureAD.Scopes,
		Prompt:       cfg.AzureAD.Prompt,
	})

	// Profile reads at sign-in use their own bucket.
	calendarClient := microsoft.NewClient(microsoft.ClientConfig{
		BaseURL: cfg.Graph.BaseURL,
		Timeout: cfg.GraphTimeout(),
		Service: microsoft.ServiceCalendar,
		RateLimit: microsoft.RateLimitConfig{
			RequestsPerSecond: cfg.Graph.RequestsPerSecond,
			BurstSize:         cfg.Graph.Burst,
		},
	})
	profileClient := microsoft.NewClient(microsoft.ClientConfig{
		BaseURL: cfg.Graph.BaseURL,
		Timeout: cfg.GraphTimeout(),
		Service: microsoft.ServiceProfile,
	})

	calendarCfg := calendar.DefaultConfig()
	calendarCfg.PageSize = cfg.Graph.PageSize
	calendarConnector := calendar.New(calendarClient, calendarCfg)
	profiles := microsoft.NewProfileService(profileClient, cfg.Graph.PhotoSize)
	tokens := auth.NewFactory(oauth, store)

	calendarSvc := services.NewCalendarService(calendarConnector, tokens, cfg.Graph.PageSize)
	signinSvc := services.NewSignInService(oauth, store, services.NewProfileEnricher(profiles), cfg.SessionTTL())

	server, err := web.NewServer(web.Options{
		CallbackPath:  cfg.AzureAD.CallbackPath,
		SecureCookies: cfg.SecureCookies(),
		TemplateDir:   cfg.TemplateDir,
		PruneSchedule: cfg.PruneSchedule,
	}, calendarSvc, signinSvc)
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}

	logger.Info("graphcal %s: redirect URI %s", version, cfg.RedirectURL())
	return server.Run(ctx, cfg.Listen)
}
