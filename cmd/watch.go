package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/docstruct/docstruct/internal/config"
	"github.com/docstruct/docstruct/internal/docsource"
	"github.com/docstruct/docstruct/internal/report"
	"github.com/docstruct/docstruct/internal/structure"
)

// watchDebounce coalesces the burst of filesystem events a single save
// produces into one re-parse.
const watchDebounce = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch <source>",
	Short: "Re-parse the document whenever it changes",
	Long: `Watch parses the document once, then re-runs the full pipeline each time
the file changes on disk. Opens are retried briefly because editors and
exporters often replace the file while it is still being written.
Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger, closeLog, err := newLogger()
		if err != nil {
			return err
		}
		defer closeLog()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runWatch(ctx, cfg, logger, cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}

	report.FormatRunHeader(out, abs, cfg.OutputDir)
	if err := watchParseOnce(ctx, cfg, logger, out, abs); err != nil {
		// A failing first parse should not stop the watch; the document
		// may simply not be complete yet.
		logger.Error("initial parse failed", "error", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: saves that replace the file
	// would otherwise drop the watch.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	report.FormatStage(out, "Watching for changes", abs)

	var timer *time.Timer
	rerun := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			report.FormatStage(out, "Watch stopped", "")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case rerun <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)

		case <-rerun:
			report.FormatStage(out, "Change detected", abs)
			if err := watchParseOnce(ctx, cfg, logger, out, abs); err != nil {
				logger.Error("re-parse failed", "error", err)
			}
		}
	}
}

// watchParseOnce opens the document, retrying while it is still being
// written, and runs the full pipeline over it.
func watchParseOnce(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer, path string) error {
	var src docsource.Source
	err := retry.Do(
		func() error {
			var openErr error
			src, openErr = docsource.Open(path, &docsource.Options{
				LinesPerPage:         cfg.LinesPerPage,
				PDFFallbackPdftotext: cfg.PDFFallbackPdftotext,
			})
			return openErr
		},
		retry.Context(ctx),
		retry.Attempts(5),
		retry.Delay(200*time.Millisecond),
	)
	if err != nil {
		return err
	}
	defer src.Close()

	info := structure.SourceInfo{Path: path}
	if fi, err := os.Stat(path); err == nil {
		info.FileSize = fi.Size()
	}

	_, err = executeRun(ctx, cfg, logger, out, src, info)
	return err
}
