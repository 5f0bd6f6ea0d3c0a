package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/newthinker/strata/internal/analysis"
	"github.com/newthinker/strata/internal/backtest"
	"github.com/newthinker/strata/internal/pricedata"
)

var (
	runStrategy    string
	runPrices      string
	runSymbol      string
	runOutput      string
	runFormat      string
	runInitialCash float64
	runCommission  float64
	runPeriods     float64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute indicators and signals for a strategy",
	Long:  "Load a price file, compute the strategy's indicators and report every entry and exit signal.",
	RunE:  runAnalyze,
}

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run backtest on a strategy",
	Long:  "Run a strategy against historical data and show performance statistics",
	RunE:  runBacktest,
}

func init() {
	for _, cmd := range []*cobra.Command{analyzeCmd, backtestCmd} {
		cmd.Flags().StringVarP(&runStrategy, "strategy", "s", "", "strategy name or document path (required)")
		cmd.Flags().StringVarP(&runPrices, "prices", "p", "", "price file: .csv, .json or .parquet (required)")
		cmd.Flags().StringVar(&runSymbol, "symbol", "", "symbol to select from multi-symbol price files")
		cmd.Flags().StringVarP(&runOutput, "output", "o", "", "write the JSON report to this file")
		cmd.Flags().StringVarP(&runFormat, "format", "f", "table", "stdout format: table or json")
		cmd.MarkFlagRequired("strategy")
		cmd.MarkFlagRequired("prices")
		rootCmd.AddCommand(cmd)
	}

	backtestCmd.Flags().Float64Var(&runInitialCash, "initial-cash", 0, "starting cash (default from config)")
	backtestCmd.Flags().Float64Var(&runCommission, "commission", -1, "commission per trade as a fraction (default from config)")
	backtestCmd.Flags().Float64Var(&runPeriods, "periods-per-year", -1, "Sharpe annualisation, 0 infers from the data (default from config)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	return execute(cmd.Context(), cmd.OutOrStdout(), false)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	return execute(cmd.Context(), cmd.OutOrStdout(), true)
}

func execute(ctx context.Context, out io.Writer, withBacktest bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if runFormat != "table" && runFormat != "json" {
		return fmt.Errorf("unknown format %q (expected table or json)", runFormat)
	}

	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Logger().Sync()

	def, err := a.ResolveStrategy(runStrategy)
	if err != nil {
		return err
	}
	prices, err := pricedata.Load(runPrices, runSymbol)
	if err != nil {
		return fmt.Errorf("loading prices: %w", err)
	}

	var report *analysis.Report
	if withBacktest {
		params, err := backtestParams(a.BacktestDefaults())
		if err != nil {
			return err
		}
		report, err = a.Analyzer().Backtest(ctx, def, prices, runSymbol, params)
		if err != nil {
			return err
		}
	} else {
		report, err = a.Analyzer().Analyze(ctx, def, prices, runSymbol)
		if err != nil {
			return err
		}
	}

	if runOutput != "" {
		if err := writeJSONFile(runOutput, report); err != nil {
			return err
		}
	}
	if runFormat == "json" {
		return writeJSON(out, report)
	}
	printReport(out, report)
	return nil
}

// backtestParams applies the command line overrides to the configured defaults.
func backtestParams(defaults backtest.Params) (backtest.Params, error) {
	params := defaults
	if runInitialCash > 0 {
		params.InitialCash = runInitialCash
	}
	if runCommission >= 0 {
		params.Commission = runCommission
	}
	if runPeriods >= 0 {
		params.PeriodsPerYear = runPeriods
	}
	if err := params.ValidateBounds(); err != nil {
		return backtest.Params{}, err
	}
	return params, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeJSONFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := writeJSON(f, v); err != nil {
		f.Close()
		return fmt.Errorf("writing output file: %w", err)
	}
	return f.Close()
}

func printReport(out io.Writer, r *analysis.Report) {
	fmt.Fprintln(out, "=== STRATA Report ===")
	fmt.Fprintf(out, "Strategy: %s\n", r.Strategy)
	if r.Symbol != "" {
		fmt.Fprintf(out, "Symbol:   %s\n", r.Symbol)
	}
	fmt.Fprintf(out, "Period:   %s to %s (%d bars)\n", r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"), r.Bars)
	fmt.Fprintf(out, "Run ID:   %s\n", r.RunID)
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RULE\tKIND\tTYPE\tFIRED")
	for _, rule := range r.Signals.Rules {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", rule.Name, rule.Kind, rule.SignalType, rule.Count)
	}
	w.Flush()
	fmt.Fprintf(out, "\nCombined: %d entries, %d exits\n", len(r.Signals.Entries), len(r.Signals.Exits))

	bt := r.Backtest
	if bt == nil {
		return
	}
	perf := bt.Performance
	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Initial cash\t%.2f\n", bt.Params.InitialCash)
	fmt.Fprintf(w, "Final value\t%.2f\n", perf.FinalValue)
	fmt.Fprintf(w, "Total return\t%.2f%%\n", perf.TotalReturn*100)
	fmt.Fprintf(w, "Sharpe ratio\t%.3f\n", perf.SharpeRatio)
	fmt.Fprintf(w, "Max drawdown\t%.2f%%\n", perf.MaxDrawdown*100)
	fmt.Fprintf(w, "Trades\t%d\n", perf.TotalTrades)
	fmt.Fprintf(w, "Win rate\t%.1f%%\n", perf.WinRate*100)
	if bt.OpenPosition != nil {
		fmt.Fprintf(w, "Open position\t%.4f shares since %s\n", bt.OpenPosition.Shares, bt.OpenPosition.EntryTime.Format("2006-01-02"))
	}
	w.Flush()

	if r.ArchivePath != "" {
		fmt.Fprintf(out, "\nArchived: %s\n", r.ArchivePath)
	}
}
