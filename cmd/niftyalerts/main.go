package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"nifty-alerts/internal/cli"
	"nifty-alerts/internal/logging"
)

func main() {
	// .env is optional; environment variables win over config files either way.
	_ = godotenv.Load()

	logger := logging.NewLogger()

	rootCmd := cli.NewRootCmd(logger)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
