package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "strata",
	Short: "STRATA - declarative strategy analysis and backtesting",
	Long: `STRATA evaluates declarative trading strategies against price series.
A strategy names its indicators (SMA, EMA, RSI, MACD) and the crossover and
threshold rules that turn them into entry and exit signals. Signals can be
backtested with a single-position portfolio simulation.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
