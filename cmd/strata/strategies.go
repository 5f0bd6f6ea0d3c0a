package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List registered strategies",
	Long:  "List the built-in presets and any documents loaded from the configured strategies directory.",
	RunE:  runStrategiesList,
}

var strategiesShowCmd = &cobra.Command{
	Use:   "show [name or path]",
	Short: "Print a strategy as a YAML document",
	Args:  cobra.ExactArgs(1),
	RunE:  runStrategiesShow,
}

func init() {
	strategiesCmd.AddCommand(strategiesShowCmd)
	rootCmd.AddCommand(strategiesCmd)
}

func runStrategiesList(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Logger().Sync()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tINDICATORS\tRULES\tDESCRIPTION")
	for _, d := range a.Strategies().List() {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", d.Name, len(d.Indicators),
			len(d.CrossoverRules)+len(d.ThresholdRules), d.Description)
	}
	return w.Flush()
}

func runStrategiesShow(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Logger().Sync()

	def, err := a.ResolveStrategy(args[0])
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(def.ToRaw()); err != nil {
		return fmt.Errorf("encoding strategy: %w", err)
	}
	return enc.Close()
}
