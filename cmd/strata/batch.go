package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/newthinker/strata/internal/analysis"
	"github.com/newthinker/strata/internal/pricedata"
	"github.com/newthinker/strata/internal/strategy"
)

var (
	batchStrategies []string
	batchPrices     []string
	batchSymbols    []string
	batchAnalyze    bool
	batchFormat     string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Backtest many strategy and price combinations",
	Long: `Run every strategy against every price series on the configured worker pool.
Series come from one file per --prices, or from one multi-symbol file with --symbols.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringSliceVarP(&batchStrategies, "strategy", "s", nil, "strategy names or document paths (default: all registered)")
	batchCmd.Flags().StringSliceVarP(&batchPrices, "prices", "p", nil, "price files (required)")
	batchCmd.Flags().StringSliceVar(&batchSymbols, "symbols", nil, "symbols to select from a single multi-symbol price file")
	batchCmd.Flags().BoolVar(&batchAnalyze, "analyze-only", false, "skip the portfolio simulation")
	batchCmd.Flags().StringVarP(&batchFormat, "format", "f", "table", "stdout format: table or json")
	batchCmd.MarkFlagRequired("prices")
	rootCmd.AddCommand(batchCmd)
}

// series is one loaded price input with the label it is reported under.
type series struct {
	symbol string
	path   string
}

func batchInputs() ([]series, error) {
	if len(batchSymbols) == 0 {
		inputs := make([]series, len(batchPrices))
		for i, p := range batchPrices {
			inputs[i] = series{symbol: strings.TrimSuffix(filepath.Base(p), filepath.Ext(p)), path: p}
		}
		return inputs, nil
	}
	if len(batchPrices) != 1 {
		return nil, fmt.Errorf("--symbols needs exactly one --prices file, got %d", len(batchPrices))
	}
	inputs := make([]series, len(batchSymbols))
	for i, s := range batchSymbols {
		inputs[i] = series{symbol: s, path: batchPrices[0]}
	}
	return inputs, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	if batchFormat != "table" && batchFormat != "json" {
		return fmt.Errorf("unknown format %q (expected table or json)", batchFormat)
	}

	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Logger().Sync()

	var defs []*strategy.Definition
	if len(batchStrategies) == 0 {
		defs = a.Strategies().List()
	}
	for _, ref := range batchStrategies {
		def, err := a.ResolveStrategy(ref)
		if err != nil {
			return err
		}
		defs = append(defs, def)
	}

	inputs, err := batchInputs()
	if err != nil {
		return err
	}

	params := a.BacktestDefaults()
	if err := params.ValidateBounds(); err != nil {
		return err
	}

	var tasks []analysis.Task
	for _, in := range inputs {
		symbol := in.symbol
		if len(batchSymbols) == 0 {
			symbol = ""
		}
		prices, err := pricedata.Load(in.path, symbol)
		if err != nil {
			return fmt.Errorf("loading %s: %w", in.path, err)
		}
		for _, def := range defs {
			task := analysis.Task{Symbol: in.symbol, Strategy: def, Prices: prices}
			if !batchAnalyze {
				p := params
				task.Backtest = &p
			}
			tasks = append(tasks, task)
		}
	}

	results := a.Analyzer().RunBatch(cmd.Context(), tasks)

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}

	out := cmd.OutOrStdout()
	if batchFormat == "json" {
		items := make([]map[string]any, len(results))
		for i, res := range results {
			item := map[string]any{"symbol": res.Symbol, "strategy": res.Strategy}
			if res.Err != nil {
				item["error"] = res.Err.Error()
			} else {
				item["report"] = res.Report
			}
			items[i] = item
		}
		if err := writeJSON(out, items); err != nil {
			return err
		}
	} else {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SYMBOL\tSTRATEGY\tENTRIES\tEXITS\tTRADES\tRETURN\tSHARPE\tMAX DD")
		for _, res := range results {
			if res.Err != nil {
				fmt.Fprintf(w, "%s\t%s\terror: %v\n", res.Symbol, res.Strategy, res.Err)
				continue
			}
			r := res.Report
			fmt.Fprintf(w, "%s\t%s\t%d\t%d", res.Symbol, res.Strategy, len(r.Signals.Entries), len(r.Signals.Exits))
			if bt := r.Backtest; bt != nil {
				fmt.Fprintf(w, "\t%d\t%.2f%%\t%.3f\t%.2f%%\n", bt.Performance.TotalTrades,
					bt.Performance.TotalReturn*100, bt.Performance.SharpeRatio, bt.Performance.MaxDrawdown*100)
			} else {
				fmt.Fprintln(w, "\t-\t-\t-\t-")
			}
		}
		w.Flush()
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d runs failed", failed, len(results))
	}
	return nil
}
