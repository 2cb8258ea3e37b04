package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oakfield-care/rosterkit/cmd/cli/commands"
	"github.com/oakfield-care/rosterkit/internal/config"
	"github.com/oakfield-care/rosterkit/pkg/metrics"
	"github.com/oakfield-care/rosterkit/pkg/postgres"
	"github.com/oakfield-care/rosterkit/pkg/utils/logging"
)

var (
	env         string
	metricsAddr string
	pushURL     string
	app         *commands.AppContext
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rosterkit",
		Short: "Rosterkit CLI - Carer availability, visit clustering and duration forecasting",
		Long:  `A CLI tool for managing home-care rosters: carer shift-pattern diaries, recurring-visit clustering, and visit duration forecasting.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			teardownApp()
		},
	}

	// Add persistent environment flag
	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Address to expose Prometheus metrics (e.g., :9090)")
	rootCmd.PersistentFlags().StringVar(&pushURL, "push-url", "", "Pushgateway URL to push metrics to (e.g., http://localhost:9091)")

	// Add all commands
	rootCmd.AddCommand(commands.MigrateCmd(appRef()))
	rootCmd.AddCommand(commands.BuildDiariesCmd(appRef()))
	rootCmd.AddCommand(commands.CheckAvailabilityCmd(appRef()))
	rootCmd.AddCommand(commands.ClusterVisitsCmd(appRef()))
	rootCmd.AddCommand(commands.ForecastDurationsCmd(appRef()))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// appRef returns the shared AppContext, allocating it before any command is
// constructed. initApp fills it in once flags are parsed.
func appRef() *commands.AppContext {
	if app == nil {
		app = &commands.AppContext{}
	}
	return app
}

// initApp sets up logger, config, database, and the optional metrics endpoint
func initApp() error {
	var err error
	app.Ctx = context.Background()
	app.Env = env

	// Initialize logger
	app.Logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	// Load configuration
	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully")

	// Load OAuth client configuration. Publishing and email are optional, so
	// a missing client file only disables those commands' flags.
	app.OAuthCfg, err = config.LoadOAuthClientWithEnv(env)
	if err != nil {
		app.Logger.Warn("OAuth client config not loaded; report publishing disabled", zap.Error(err))
		app.OAuthCfg = nil
	}

	// Connect to the database
	app.Logger.Info("Connecting to database")
	app.PG, err = postgres.NewDB(app.Ctx, app.Cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.Database = app.PG
	app.Logger.Info("Database initialized successfully")

	// Start metrics server if address provided
	if metricsAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
			app.Logger.Info("Metrics server listening", zap.String("addr", metricsAddr))
			if err := http.ListenAndServe(metricsAddr, nil); err != nil {
				app.Logger.Error("Metrics server error", zap.Error(err))
			}
		}()
	}

	return nil
}

// teardownApp pushes batch metrics if a pushgateway is configured, then
// closes the database and flushes the logger.
func teardownApp() {
	if app == nil {
		return
	}

	if pushURL != "" {
		if err := push.New(pushURL, "rosterkit").Gatherer(metrics.Registry).Push(); err != nil {
			if app.Logger != nil {
				app.Logger.Error("Failed to push metrics to Pushgateway", zap.Error(err))
			}
		} else if app.Logger != nil {
			app.Logger.Info("Metrics pushed to Pushgateway", zap.String("url", pushURL))
		}
	}

	if app.PG != nil {
		app.PG.Close()
	}
	if app.Logger != nil {
		app.Logger.Sync()
	}
}
