package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "minddump",
	Short: "Capture, categorize and route thoughts",
	Long: `MindDump turns free-form thoughts into categorized records.

Each thought is analyzed, logged to the master sheet, routed to the
category webhook and, for project ideas, given its own spreadsheet.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "override LOG_FORMAT (json or console)")

	rootCmd.AddCommand(serveCmd, processCmd, categoriesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
