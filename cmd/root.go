package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "obengine",
	Short: "Streaming level-2 order book engine",
	Long: `obengine subscribes to a level-2 order book feed for a single
product, maintains the live bid/ask book, derives rolling mid-price and
spread statistics over several windows, and forecasts the mid-price with
a seasonal model refit on a rolling basis.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	// Flags can be added here if needed
}
