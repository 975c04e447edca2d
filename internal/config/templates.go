package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Nifty Alerts Configuration

[instrument]
# Index symbol used in logs and alerts
symbol = "NIFTY 50"
# DhanHQ security id for the index
security_id = "13"
# DhanHQ exchange segment
exchange_segment = "IDX_I"

[engine]
# Evaluation cycle interval in seconds (25-120)
refresh_seconds = 25
# Candle timeframes to evaluate, in minutes
timeframes = [1, 3, 5, 15]
# VOB detector sensitivity (EMA span); typical range 3-10
vob_sensitivity = 5
# Proximity alert threshold as a percentage of price
proximity_percent = 0.5
# Only notify zones whose crossover is within this many minutes of now
recency_minutes = 5
# Candle retention window in hours
retention_hours = 72
# Days of history to request from the market data source
history_days = 3
# Minimum series length before running zone detection
min_series_for_zones = 50

[notifications]
# Enable notifications
enabled = true

[notifications.telegram]
enabled = false
bot_token = ""
chat_id = ""

[notifications.webhook]
enabled = false
url = ""
`

const credentialsTemplate = `# Nifty Alerts Credentials
# Keep this file secure. Environment variables DHAN_ACCESS_TOKEN and
# DHAN_CLIENT_ID override these values.

[dhan]
access_token = ""
client_id = ""
`

func createTemplateConfig(configDir string) error {
	return writeTemplate(configDir, "config.toml", configTemplate)
}

func createTemplateCredentials(configDir string) error {
	return writeTemplate(configDir, "credentials.toml", credentialsTemplate)
}

func writeTemplate(configDir, name, content string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing %s template: %w", name, err)
	}

	return nil
}
