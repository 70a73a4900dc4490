package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/docstruct/docstruct/internal/config"
	"github.com/docstruct/docstruct/internal/version"
)

var (
	cfgFile string
	verbose bool
	logFile string
)

var rootCmd = &cobra.Command{
	Use:   "docstruct",
	Short: "Infer and validate the structure of technical specification documents",
	Long: `docstruct infers the logical structure of a long technical specification
document from its page text: it locates the declared table of contents,
builds the section hierarchy, finds where each section actually begins in
the body, and cross-validates declared against observed structure.

Results are written as JSONL record files plus an Excel validation report.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("docstruct %s\n", version.String()))

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./docstruct.yaml or $HOME/.docstruct/docstruct.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig builds the effective configuration from defaults, the
// optional config file, and DOCSTRUCT_* environment variables.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger builds the run logger per the persistent flags: text handler
// on stderr, debug level with --verbose, duplicated into --log-file when
// set. The returned closer releases the log file.
func newLogger() (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	closer := func() {}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, f)
		closer = func() { f.Close() }
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return logger, closer, nil
}
