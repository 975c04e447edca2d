package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"nifty-alerts/internal/marketdata"
	"nifty-alerts/internal/models"
	"nifty-alerts/pkg/utils"
)

// addDataCommands adds raw market data commands.
func addDataCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newCandlesCmd(app))
	rootCmd.AddCommand(newQuoteCmd(app))
}

func newCandlesCmd(app *App) *cobra.Command {
	var timeframe int
	var count int

	cmd := &cobra.Command{
		Use:   "candles",
		Short: "Show recent candles",
		Long:  "Prints the most recent stored candles, resampled to the requested timeframe.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.requireStore(); err != nil {
				return err
			}

			tf := models.Timeframe(timeframe)
			if tf.Duration() <= 0 {
				return fmt.Errorf("invalid timeframe: %d", timeframe)
			}

			retention := time.Duration(app.Config.Engine.RetentionHours) * time.Hour
			series, err := app.Store.GetCandles(cmd.Context(), app.Config.Instrument.Symbol, time.Now().Add(-retention))
			if err != nil {
				return err
			}
			if len(series) == 0 {
				output.Warning("No stored candles; run 'niftyalerts cycle' first")
				return nil
			}

			resampled, err := marketdata.Resample(series, models.Timeframe1Min.Duration(), tf.Duration())
			if err != nil {
				return err
			}
			if count > 0 && len(resampled) > count {
				resampled = resampled[len(resampled)-count:]
			}

			if output.IsJSON() {
				return output.JSON(resampled)
			}

			output.Bold("%s %dm candles", app.Config.Instrument.Symbol, timeframe)
			output.Printf("  %-13s %10s %10s %10s %10s %12s\n", "Time", "Open", "High", "Low", "Close", "Volume")
			for _, c := range resampled {
				output.Printf("  %-13s %10.2f %10.2f %10.2f %10.2f %12s\n",
					c.Timestamp.In(utils.IndiaLocation).Format("02-Jan 15:04"),
					c.Open, c.High, c.Low, c.Close,
					utils.FormatVolume(c.Volume))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&timeframe, "timeframe", "t", 5, "candle timeframe in minutes (1, 3, 5, 15)")
	cmd.Flags().IntVarP(&count, "count", "n", 20, "number of candles to show (0 for all)")
	return cmd
}

func newQuoteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "quote",
		Short: "Show the live spot price",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.requireSource(); err != nil {
				return err
			}

			price, err := app.Source.GetSpotPrice(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetching quote: %w", err)
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"symbol": app.Config.Instrument.Symbol,
					"ltp":    price,
				})
			}

			output.SourceLine(SourceDhan, "%s  %s", app.Config.Instrument.Symbol, utils.FormatPrice(price))
			return nil
		},
	}
}
