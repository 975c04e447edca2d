// Package cli provides the command-line interface for the alert engine.
package cli

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"nifty-alerts/internal/alert"
	"nifty-alerts/internal/config"
	"nifty-alerts/internal/engine"
	"nifty-alerts/internal/logging"
	"nifty-alerts/internal/marketdata"
	"nifty-alerts/internal/notify"
	"nifty-alerts/internal/store"
	"nifty-alerts/pkg/utils"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2025-08-01"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	ConfigDir string
	Logger    zerolog.Logger
	Source    marketdata.Source
	Store     store.DataStore
	Notifier  notify.Notifier
}

// initialize loads configuration from configDir and wires the market data
// client, the store and the notifier. Runs after flag parsing so --config
// is honored.
func (app *App) initialize(configDir string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	app.Config = cfg
	if configDir == "" {
		configDir = config.DefaultConfigDir()
	}
	app.ConfigDir = configDir

	if cfg.Credentials.Dhan.AccessToken != "" {
		app.Source = marketdata.NewDhanClient(cfg.Credentials.Dhan, cfg.Instrument, utils.IndiaLocation)
		app.Logger.Debug().Msg("Dhan client initialized")
	}

	dataStore, err := store.NewSQLiteStore(config.DBPath(configDir))
	if err != nil {
		app.Logger.Warn().Err(err).Msg("Failed to initialize store, some features may be unavailable")
	} else {
		app.Store = dataStore
		app.Logger.Debug().Msg("SQLite store initialized")
	}

	app.Notifier = notify.NewMultiNotifier(&cfg.Notifications)
	return nil
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(logger zerolog.Logger) *cobra.Command {
	app := &App{
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "niftyalerts",
		Short: "Nifty Alerts - intraday zone and level alert engine",
		Long: `Nifty Alerts monitors an index continuously during market hours,
detects volume order block zones across multiple timeframes and sends
deduplicated alerts through Telegram and webhooks.

Use 'niftyalerts help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			configDir, _ := cmd.Flags().GetString("config")
			return app.initialize(configDir)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/nifty-alerts)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addWatchCommands(rootCmd, app)
	addAnalysisCommands(rootCmd, app)
	addDataCommands(rootCmd, app)
	addAlertCommands(rootCmd, app)

	return rootCmd
}

// requireSource returns an error when no market data client is configured.
func (app *App) requireSource() error {
	if app.Source == nil {
		return fmt.Errorf("no Dhan credentials configured; set DHAN_ACCESS_TOKEN or edit %s/credentials.toml", config.DefaultConfigDir())
	}
	return nil
}

// requireStore returns an error when the data store failed to open.
func (app *App) requireStore() error {
	if app.Store == nil {
		return fmt.Errorf("data store unavailable")
	}
	return nil
}

// newEngine wires an engine instance. With live=false the notifier is a
// no-op so inspection commands never send alerts.
func (app *App) newEngine(live bool) (*engine.Engine, error) {
	if err := app.requireSource(); err != nil {
		return nil, err
	}
	if err := app.requireStore(); err != nil {
		return nil, err
	}

	var notifier notify.Notifier = notify.NewNoOpNotifier()
	if live {
		notifier = app.Notifier
	}

	evaluator := alert.NewEvaluator(
		app.Config.Instrument.Symbol,
		notifier,
		app.Store,
		app.Config.Engine.ProximityPercent,
		time.Duration(app.Config.Engine.RecencyMinutes)*time.Minute,
		app.Logger,
	)

	return engine.New(app.Config, app.Source, app.Store, evaluator, notifier, app.Logger), nil
}

// addCoreCommands adds version and config commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Nifty Alerts v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": app.ConfigDir})
			} else {
				output.Println(app.ConfigDir)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Instrument")
	output.Printf("  Symbol:           %s\n", cfg.Instrument.Symbol)
	output.Printf("  Security ID:      %s\n", cfg.Instrument.SecurityID)
	output.Printf("  Exchange segment: %s\n", cfg.Instrument.ExchangeSegment)
	output.Println()
	output.Bold("Engine")
	output.Printf("  Refresh:          %ds\n", cfg.Engine.RefreshSeconds)
	output.Printf("  Timeframes:       %v min\n", cfg.Engine.Timeframes)
	output.Printf("  VOB sensitivity:  %d\n", cfg.Engine.VOBSensitivity)
	output.Printf("  Proximity:        %.2f%%\n", cfg.Engine.ProximityPercent)
	output.Printf("  Recency window:   %d min\n", cfg.Engine.RecencyMinutes)
	output.Printf("  Retention:        %dh\n", cfg.Engine.RetentionHours)
	output.Println()
	output.Bold("Notifications")
	output.Printf("  Enabled:          %v\n", cfg.Notifications.Enabled)
	output.Printf("  Telegram:         %v\n", cfg.Notifications.Telegram.Enabled)
	output.Printf("  Webhook:          %v\n", cfg.Notifications.Webhook.Enabled)
	output.Println()
	output.Bold("Credentials")
	output.Printf("  Dhan token:       %s\n", maskSecret(cfg.Credentials.Dhan.AccessToken))
	output.Printf("  Telegram token:   %s\n", maskSecret(cfg.Notifications.Telegram.BotToken))
}

// maskSecret hides all but the last 4 characters of a secret.
func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
