package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ridelink-cli",
	Short: "RideLink CLI tool",
	Long: `RideLink CLI is a command-line interface for the RideLink service.

Available commands:
  chat    Join a tour's chat room from the terminal

Use "ridelink-cli [command] --help" for more information about a specific command.`,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
