package cli

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"nifty-alerts/internal/models"
	"nifty-alerts/pkg/utils"
)

// addWatchCommands adds the continuous monitoring commands.
func addWatchCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newWatchCmd(app))
	rootCmd.AddCommand(newCycleCmd(app))
}

func newWatchCmd(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the alert engine continuously",
		Long: `Runs fetch, analyze, alert cycles at the configured refresh interval
until interrupted. Outside market hours the engine idles; use --force to
run cycles regardless.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			eng, err := app.newEngine(true)
			if err != nil {
				return err
			}
			eng.IgnoreMarketHours = force

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			output.Info("Watching %s every %ds (timeframes: %v min)",
				app.Config.Instrument.Symbol,
				app.Config.Engine.RefreshSeconds,
				app.Config.Engine.Timeframes)
			if !utils.IsMarketOpen(time.Now()) && !force {
				output.Warning("Market is closed; next open %s",
					utils.NextMarketOpen(time.Now()).Format("Mon 02 Jan 15:04"))
			}

			err = eng.Run(ctx)
			if ctx.Err() != nil {
				output.Println()
				output.Dim("Stopped.")
				return nil
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "run cycles even when the market is closed")
	return cmd
}

func newCycleCmd(app *App) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Run a single engine cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			eng, err := app.newEngine(!dryRun)
			if err != nil {
				return err
			}
			eng.IgnoreMarketHours = true

			result, err := eng.RunCycle(cmd.Context())
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}

			output.Bold("Cycle %s complete in %s", result.CycleID, result.Duration.Round(time.Millisecond))
			output.SourceLine(SourceDhan, "Fetched %d candles, pruned %d", result.CandlesSaved, result.CandlesPruned)
			output.SourceLine(SourceDhan, "Spot: %s", utils.FormatPrice(result.SpotPrice))
			for _, minutes := range app.Config.Engine.Timeframes {
				tf := models.Timeframe(minutes)
				tr := result.Timeframe[tf]
				output.SourceLine(SourceCalc, "%2dm: %d candles, %d zones", minutes, tr.Candles, len(tr.Zones))
			}
			output.Printf("  Alerts: %d zone, %d level\n", result.ZoneAlerts, result.LevelAlerts)
			if dryRun {
				output.Dim("Dry run: no notifications were sent.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "analyze without sending notifications")
	return cmd
}
