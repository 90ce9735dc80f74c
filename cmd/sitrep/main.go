package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	appName = "sitrep"
	version = "v0.4.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     "sitrep",
		Short:   "Situation analysis engine for news and market streams",
		Version: version,
		Long: `sitrep ingests news and market quote batches and produces structured
situational intelligence: classified alerts, cross-source patterns, trends,
risk and opportunity signals, correlation matrices, narratives and fused
decisions, plus persistent keyword monitors that raise alerts when their
match ratio crosses a threshold.`,
		Run: runDefaultEntry,
	}
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config (defaults apply when omitted)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run one analysis pass over a batch",
		Long:  "Reads news/quote batches from JSON files or the configured sources, runs the full pipeline once and prints the result",
		RunE:  runAnalyze,
	}
	analyzeCmd.Flags().String("news", "", "Path to a JSON file with news items")
	analyzeCmd.Flags().String("market", "", "Path to a JSON file with market quotes")
	analyzeCmd.Flags().Bool("live", false, "Fetch the batch from the configured feeds instead of files")
	analyzeCmd.Flags().Bool("evaluate-monitors", true, "Evaluate persistent monitors against the batch")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the engine as a service",
		Long:  "Starts the scheduled analysis loop and the HTTP interface with /health, /metrics, analysis, alert and monitor endpoints",
		RunE:  runServe,
	}
	serveCmd.Flags().String("addr", "", "HTTP listen address (overrides config)")
	serveCmd.Flags().StringSlice("feeds", nil, "RSS feed URLs (overrides config)")
	serveCmd.Flags().String("schedule", "", "Cron spec for analysis runs (overrides config)")

	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Manage persistent keyword monitors",
	}

	monitorAddCmd := &cobra.Command{
		Use:   "add [query]",
		Short: "Add an active monitor",
		Args:  cobra.ExactArgs(1),
		RunE:  runMonitorAdd,
	}
	monitorAddCmd.Flags().Float64("threshold", 0, "Alert threshold in [0, 1] (0 uses the configured default)")
	monitorListCmd := &cobra.Command{
		Use:   "list",
		Short: "List monitors with their state and counters",
		RunE:  runMonitorList,
	}
	monitorRemoveCmd := &cobra.Command{
		Use:   "remove [id]",
		Short: "Remove a monitor by id",
		Args:  cobra.ExactArgs(1),
		RunE:  runMonitorRemove,
	}
	monitorDeactivateCmd := &cobra.Command{
		Use:   "deactivate [id]",
		Short: "Deactivate a monitor without deleting it",
		Args:  cobra.ExactArgs(1),
		RunE:  runMonitorDeactivate,
	}

	monitorCmd.AddCommand(monitorAddCmd)
	monitorCmd.AddCommand(monitorListCmd)
	monitorCmd.AddCommand(monitorRemoveCmd)
	monitorCmd.AddCommand(monitorDeactivateCmd)

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(monitorCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// runDefaultEntry points interactive users at the subcommands.
func runDefaultEntry(cmd *cobra.Command, _ []string) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintf(os.Stderr, "sitrep requires a subcommand in non-interactive use:\n\n")
		fmt.Fprintf(os.Stderr, "  sitrep analyze --news items.json --market quotes.json\n")
		fmt.Fprintf(os.Stderr, "  sitrep serve --addr :8090\n")
		fmt.Fprintf(os.Stderr, "  sitrep --help\n")
		os.Exit(2)
	}
	_ = cmd.Help()
}
