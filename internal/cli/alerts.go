package cli

import (
	"github.com/spf13/cobra"

	"nifty-alerts/internal/models"
	"nifty-alerts/pkg/utils"
)

// addAlertCommands adds the sent-alert audit commands.
func addAlertCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newAlertsCmd(app))
}

func newAlertsCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List recently sent zone alerts",
		Long:  "Shows the sent-alerts ledger, newest first. Entries here are never re-alerted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.requireStore(); err != nil {
				return err
			}

			alerts, err := app.Store.GetSentAlerts(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(alerts)
			}

			if len(alerts) == 0 {
				output.Dim("No alerts sent yet.")
				return nil
			}

			output.Bold("Sent alerts")
			for _, a := range alerts {
				line := output.DimText(a.SentTime.In(utils.IndiaLocation).Format("02-Jan 15:04"))
				zone := string(a.ZoneType)
				if a.ZoneType == models.ZoneBullish {
					zone = output.Green(zone)
				} else {
					zone = output.Red(zone)
				}
				output.Printf("  %s  %-7s  zone %s  base %s\n",
					line, zone,
					a.StartTime.In(utils.IndiaLocation).Format("02-Jan 15:04"),
					utils.FormatPrice(a.BaseLevel))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum entries to show (0 for all)")
	return cmd
}
