// Package commands implements the corertctl command tree: a small
// diagnostic CLI over the concurrency runtime.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// maxThreads is the worker pool size used by submit.
	maxThreads int

	// maxQueue is the per-actor queue cap used by submit.
	maxQueue int

	// journalPath optionally enables submit's SQLite job journal.
	journalPath string

	// outputFormat controls how results print (text, codec).
	outputFormat string

	// logDir optionally enables dual-stream (console + rotating file)
	// logging for actor/scheduler lifecycle events.
	logDir string
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "corertctl",
	Short: "Diagnostic CLI for the corert concurrency runtime",
	Long: `corertctl spins up a worker pool, submits jobs described in the
runtime's serialization format, and prints the jobs' results.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(logDir)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLogging()
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().IntVar(
		&maxThreads, "max-threads", 0,
		"Worker pool size (default: pool package default)",
	)
	rootCmd.PersistentFlags().IntVar(
		&maxQueue, "max-queue", 0,
		"Per-actor max queue depth (default: pool package default)",
	)
	rootCmd.PersistentFlags().StringVar(
		&journalPath, "journal", "",
		"Path to a SQLite journal file recording submitted jobs until their results arrive",
	)
	rootCmd.PersistentFlags().StringVar(
		&outputFormat, "format", "text",
		"Output format: text, codec",
	)
	rootCmd.PersistentFlags().StringVar(
		&logDir, "log-dir", "",
		"Directory for rotating log files (default: console only)",
	)
}
