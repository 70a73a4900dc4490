package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docstruct/docstruct/internal/report"
)

var validatePrefix string

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Re-validate previously written output files",
	Long: `Validate checks the output files of an earlier run without parsing
anything: every JSONL record is checked against its schema, and the ToC
and section record sets are cross-checked for missing or extra sections,
page disagreements, and unresolved parent links.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		dir := cfg.OutputDir
		if len(args) == 1 {
			dir = args[0]
		}
		prefix := cfg.FilePrefix
		if cmd.Flags().Changed("prefix") {
			prefix = validatePrefix
		}

		logger, closeLog, err := newLogger()
		if err != nil {
			return err
		}
		defer closeLog()

		rep, err := report.CheckOutputs(dir, prefix, logger)
		if err != nil {
			return err
		}

		report.FormatCheckReport(cmd.OutOrStdout(), rep)
		if !rep.OK() {
			return fmt.Errorf("output validation failed with %d findings", rep.Findings())
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validatePrefix, "prefix", "", "output file prefix (default from config)")
	rootCmd.AddCommand(validateCmd)
}
