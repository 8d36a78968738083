// Package cmd implements the coursemind command line interface.
package cmd

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/coursemind/coursemind/internal/log"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "coursemind",
	Short: "Document RAG and structured-extraction pipeline for course material",
	Long: `coursemind indexes uploaded course documents into a pgvector-backed
semantic index, answers student questions grounded in that index via a
streaming Gemini call, and extracts schema-validated syllabi, quizzes
and page ranges from raw document text.`,
	SilenceUsage: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		// Local development convenience; a missing .env is fine.
		_ = godotenv.Load()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// newLogger builds the process logger honoring the --verbose flag.
func newLogger() log.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level, JSON: true})
}
