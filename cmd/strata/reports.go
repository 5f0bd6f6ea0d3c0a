package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newthinker/strata/internal/analysis"
	"github.com/newthinker/strata/internal/app"
)

var reportsJSON bool

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Browse archived backtest reports",
}

var reportsListCmd = &cobra.Command{
	Use:   "list [strategy]",
	Short: "List archived reports, optionally for one strategy",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReportsList,
}

var reportsShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Print an archived report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportsShow,
}

func init() {
	reportsShowCmd.Flags().BoolVar(&reportsJSON, "json", false, "print the full JSON report")
	reportsCmd.AddCommand(reportsListCmd, reportsShowCmd)
	rootCmd.AddCommand(reportsCmd)
}

func archiveApp() (*app.App, error) {
	a, err := setup()
	if err != nil {
		return nil, err
	}
	if a.Reports() == nil {
		a.Logger().Sync()
		return nil, fmt.Errorf("report archive is disabled (set archive.enabled in the config)")
	}
	return a, nil
}

func runReportsList(cmd *cobra.Command, args []string) error {
	a, err := archiveApp()
	if err != nil {
		return err
	}
	defer a.Logger().Sync()

	strategyName := ""
	if len(args) == 1 {
		strategyName = args[0]
	}
	paths, err := a.Reports().List(cmd.Context(), strategyName)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	return nil
}

func runReportsShow(cmd *cobra.Command, args []string) error {
	a, err := archiveApp()
	if err != nil {
		return err
	}
	defer a.Logger().Sync()

	var report analysis.Report
	if err := a.Reports().Load(cmd.Context(), args[0], &report); err != nil {
		return err
	}
	report.ArchivePath = args[0]

	if reportsJSON {
		return writeJSON(cmd.OutOrStdout(), report)
	}
	printReport(cmd.OutOrStdout(), &report)
	return nil
}
