package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newthinker/strata/internal/pricedata"
)

var convertSymbol string

var convertCmd = &cobra.Command{
	Use:   "convert [input] [output.parquet]",
	Short: "Convert a CSV or JSON price file to Parquet",
	Long:  "Read a price file, sort and validate it, and write it as a Parquet file of timestamp/close bars.",
	Args:  cobra.ExactArgs(2),
	RunE:  runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&convertSymbol, "symbol", "", "symbol to select from multi-symbol input and to record in the output")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	in, out := args[0], args[1]
	if f, err := pricedata.DetectFormat(out); err != nil || f != pricedata.FormatParquet {
		return fmt.Errorf("output must be a .parquet file, got %s", out)
	}

	series, err := pricedata.Load(in, convertSymbol)
	if err != nil {
		return fmt.Errorf("loading prices: %w", err)
	}
	if err := pricedata.WriteParquet(out, convertSymbol, series.Points()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bars to %s\n", series.Len(), out)
	return nil
}
