package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"nifty-alerts/internal/analysis/indicators"
	"nifty-alerts/internal/marketdata"
	"nifty-alerts/internal/models"
	"nifty-alerts/pkg/utils"
)

// addAnalysisCommands adds zone and level inspection commands.
func addAnalysisCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newZonesCmd(app))
	rootCmd.AddCommand(newLevelsCmd(app))
}

// loadSeries fetches fresh candles and returns the retained series.
func (app *App) loadSeries(cmd *cobra.Command) ([]models.Candle, error) {
	if err := app.requireSource(); err != nil {
		return nil, err
	}
	if err := app.requireStore(); err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	now := time.Now()
	from := now.AddDate(0, 0, -app.Config.Engine.HistoryDays)

	candles, err := utils.RetryWithResult(ctx, utils.DefaultRetryConfig(), func() ([]models.Candle, error) {
		return app.Source.GetIntraday(ctx, from, now)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching intraday data: %w", err)
	}
	if err := app.Store.SaveCandles(ctx, app.Config.Instrument.Symbol, candles); err != nil {
		return nil, fmt.Errorf("saving candles: %w", err)
	}

	retention := time.Duration(app.Config.Engine.RetentionHours) * time.Hour
	return app.Store.GetCandles(ctx, app.Config.Instrument.Symbol, now.Add(-retention))
}

func newZonesCmd(app *App) *cobra.Command {
	var timeframe int

	cmd := &cobra.Command{
		Use:   "zones",
		Short: "Detect volume order block zones",
		Long:  "Fetches fresh data and prints detected zones for one timeframe without sending alerts.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			tf := models.Timeframe(timeframe)
			if tf.Duration() <= 0 {
				return fmt.Errorf("invalid timeframe: %d", timeframe)
			}

			series, err := app.loadSeries(cmd)
			if err != nil {
				return err
			}

			resampled, err := marketdata.Resample(series, models.Timeframe1Min.Duration(), tf.Duration())
			if err != nil {
				return err
			}

			detector := indicators.NewVOB(app.Config.Engine.VOBSensitivity)
			zones, err := detector.Detect(resampled)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"timeframe_min": timeframe,
					"candles":       len(resampled),
					"zones":         zones,
				})
			}

			output.Bold("%s %dm: %d candles, %d zones", app.Config.Instrument.Symbol, timeframe, len(resampled), len(zones))
			for _, z := range zones {
				line := fmt.Sprintf("%-7s  %s  base %s  extreme %s",
					z.Type,
					z.StartTime.In(utils.IndiaLocation).Format("02-Jan 15:04"),
					utils.FormatPrice(z.BaseLevel),
					utils.FormatPrice(z.ExtremeLevel))
				if z.Type == models.ZoneBullish {
					output.Bullish("  %s", line)
				} else {
					output.Bearish("  %s", line)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&timeframe, "timeframe", "t", 5, "candle timeframe in minutes (1, 3, 5, 15)")
	return cmd
}

func newLevelsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "levels",
		Short: "Show pivot, Fibonacci and Camarilla levels",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			series, err := app.loadSeries(cmd)
			if err != nil {
				return err
			}

			levels := indicators.AllLevels(series)
			if len(levels) == 0 {
				output.Warning("Not enough data to compute levels")
				return nil
			}

			price, err := app.Source.GetSpotPrice(cmd.Context())
			if err != nil || price <= 0 {
				price = series[len(series)-1].Close
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"spot":   price,
					"levels": levels,
				})
			}

			output.Bold("%s levels (spot %s)", app.Config.Instrument.Symbol, utils.FormatPrice(price))
			method := ""
			for _, l := range levels {
				if l.Method != method {
					method = l.Method
					output.Println()
					output.Info("%s", method)
				}
				marker := " "
				dist := (l.Value - price) / price * 100
				if dist < 0 {
					dist = -dist
				}
				if dist <= app.Config.Engine.ProximityPercent {
					marker = "*"
				}
				output.Printf("  %s %-6s %12s  (%s)\n", marker, l.Name, utils.FormatPrice(l.Value),
					utils.FormatPercent((l.Value-price)/price*100))
			}
			return nil
		},
	}
}
