package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/docstruct/docstruct/internal/docsource"
	"github.com/docstruct/docstruct/internal/report"
	"github.com/docstruct/docstruct/internal/structure"
)

var samplesCmd = &cobra.Command{
	Use:   "samples [dir]",
	Short: "Run the engine over the embedded sample document",
	Long: `Samples parses the embedded demonstration document and writes all four
output files, so the record formats can be inspected without providing a
real specification. The default destination is a samples/ directory under
the configured output directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.OutputDir = filepath.Join(cfg.OutputDir, "samples")
		if len(args) == 1 {
			cfg.OutputDir = args[0]
		}

		logger, closeLog, err := newLogger()
		if err != nil {
			return err
		}
		defer closeLog()

		out := cmd.OutOrStdout()
		report.FormatRunHeader(out, docsource.SampleName, cfg.OutputDir)

		src := docsource.NewSampleSource()
		defer src.Close()

		_, err = executeRun(cmd.Context(), cfg, logger, out, src, structure.SourceInfo{Path: docsource.SampleName})
		return err
	},
}

func init() {
	rootCmd.AddCommand(samplesCmd)
}
