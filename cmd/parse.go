package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/docstruct/docstruct/internal/config"
	"github.com/docstruct/docstruct/internal/docsource"
	"github.com/docstruct/docstruct/internal/report"
	"github.com/docstruct/docstruct/internal/structure"
)

var (
	parseOutputDir string
	parsePrefix    string
	parseStrict    bool
	parseWorkers   int
	parseTimeout   time.Duration
)

var parseCmd = &cobra.Command{
	Use:   "parse <source>",
	Short: "Parse a document and write its structure records",
	Long: `Parse runs the full pipeline over one document: ToC location, entry
extraction, hierarchy construction, section location and analysis,
cross-validation, and the metadata rollup. PDF, Markdown, and plain-text
sources are selected by file extension.

The exit code is 0 on success, 1 on a fatal error, and 2 when strict mode
is enabled and the run recorded error-severity issues.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed, err := runParse(cmd, args[0])
		if err != nil {
			return err
		}
		if failed {
			os.Exit(2)
		}
		return nil
	},
}

func init() {
	parseCmd.Flags().StringVarP(&parseOutputDir, "output", "o", "", "output directory (default from config)")
	parseCmd.Flags().StringVar(&parsePrefix, "prefix", "", "output file prefix (default from config)")
	parseCmd.Flags().BoolVar(&parseStrict, "strict", false, "fail the run on any error-severity issue")
	parseCmd.Flags().IntVar(&parseWorkers, "workers", 0, "parallel section searches (default from config)")
	parseCmd.Flags().DurationVar(&parseTimeout, "timeout", 0, "processing timeout (default from config)")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, path string) (bool, error) {
	cfg, err := loadConfig()
	if err != nil {
		return false, err
	}
	applyParseFlags(cmd, cfg)

	logger, closeLog, err := newLogger()
	if err != nil {
		return false, err
	}
	defer closeLog()

	out := cmd.OutOrStdout()
	report.FormatRunHeader(out, path, cfg.OutputDir)

	src, err := docsource.Open(path, &docsource.Options{
		LinesPerPage:         cfg.LinesPerPage,
		PDFFallbackPdftotext: cfg.PDFFallbackPdftotext,
	})
	if err != nil {
		return false, err
	}
	defer src.Close()

	info := structure.SourceInfo{Path: path}
	if fi, err := os.Stat(path); err == nil {
		info.FileSize = fi.Size()
	}

	report.FormatStage(out, "Parsing document", fmt.Sprintf("%d pages", src.PageCount()))
	res, err := executeRun(cmd.Context(), cfg, logger, out, src, info)
	if err != nil {
		return false, err
	}

	return res.Failed, nil
}

// applyParseFlags overlays explicitly set command flags onto the loaded
// configuration.
func applyParseFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.OutputDir = parseOutputDir
	}
	if flags.Changed("prefix") {
		cfg.FilePrefix = parsePrefix
	}
	if flags.Changed("strict") {
		cfg.StrictMode = parseStrict
	}
	if flags.Changed("workers") {
		cfg.Workers = parseWorkers
	}
	if flags.Changed("timeout") {
		cfg.Timeout = parseTimeout
	}
}

// executeRun drives the engine over an opened source and writes every
// output surface. Shared by parse, watch, and samples.
func executeRun(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer, src docsource.Source, info structure.SourceInfo) (*structure.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	engine := structure.NewEngine(engineConfig(cfg), logger)
	res, err := engine.Run(runCtx, src, info)
	if err != nil {
		return nil, err
	}

	report.FormatStage(out, "Writing output files", cfg.OutputDir)
	writer, err := report.NewWriter(cfg.OutputDir, cfg.FilePrefix, logger)
	if err != nil {
		return nil, err
	}
	summary, err := writer.WriteAll(res)
	if err != nil {
		return nil, err
	}

	report.FormatSummary(out, res)
	report.FormatIssues(out, res.Issues)
	report.FormatFiles(out, summary)

	return res, nil
}

// engineConfig maps the loaded configuration onto the engine's tuning,
// keeping the engine-internal defaults for anything the file does not
// cover.
func engineConfig(cfg *config.Config) *structure.Config {
	ec := structure.DefaultConfig()
	ec.TocSearchPageLimit = cfg.TocSearchPageLimit
	ec.MinTocEntries = cfg.MinTocEntries
	ec.MaxSectionLevel = cfg.MaxSectionLevel
	ec.SectionLocatorWindow = cfg.SectionLocatorWindow
	ec.PageGapWarningThreshold = cfg.PageGapWarningThreshold
	ec.PageGapErrorThreshold = cfg.PageGapErrorThreshold
	ec.TitleSimilarityThreshold = cfg.TitleSimilarityThreshold
	ec.StrictMode = cfg.StrictMode
	ec.Workers = cfg.Workers
	if len(cfg.DomainTagKeywords) > 0 {
		ec.DomainTagKeywords = cfg.DomainTagKeywords
	}
	if len(cfg.TagCategories) > 0 {
		ec.TagCategories = cfg.TagCategories
	}
	if len(cfg.DocTitleKeywords) > 0 {
		ec.DocTitleKeywords = cfg.DocTitleKeywords
	}
	if cfg.DefaultDocTitle != "" {
		ec.DefaultDocTitle = cfg.DefaultDocTitle
	}
	return ec
}
