package report

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/docstruct/docstruct/internal/structure"
)

// Writer emits a run's output files into one directory under a common
// prefix: <prefix>_toc.jsonl, <prefix>_spec.jsonl, <prefix>_metadata.jsonl
// and <prefix>_validation.xlsx.
type Writer struct {
	dir     string
	prefix  string
	logger  *slog.Logger
	schemas *Schemas
}

// WrittenFile describes one generated output file.
type WrittenFile struct {
	Path string
	Size int64
}

// WriteSummary reports what a WriteAll produced.
type WriteSummary struct {
	Files []WrittenFile

	// SchemaFailures counts records that failed their schema check but
	// were written anyway.
	SchemaFailures int
}

// TotalSize returns the combined size of the generated files.
func (s *WriteSummary) TotalSize() int64 {
	var total int64
	for _, f := range s.Files {
		total += f.Size
	}
	return total
}

// NewWriter creates a writer for the given output directory, creating the
// directory if needed. A nil logger discards.
func NewWriter(dir, prefix string, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if prefix == "" {
		prefix = "docstruct"
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", dir, err)
	}

	schemas, err := CompileSchemas()
	if err != nil {
		return nil, err
	}

	return &Writer{dir: dir, prefix: prefix, logger: logger, schemas: schemas}, nil
}

// TocPath returns the path of the ToC JSONL file.
func (w *Writer) TocPath() string { return filepath.Join(w.dir, w.prefix+"_toc.jsonl") }

// SpecPath returns the path of the sections JSONL file.
func (w *Writer) SpecPath() string { return filepath.Join(w.dir, w.prefix+"_spec.jsonl") }

// MetadataPath returns the path of the metadata JSONL file.
func (w *Writer) MetadataPath() string { return filepath.Join(w.dir, w.prefix+"_metadata.jsonl") }

// WorkbookPath returns the path of the Excel validation report.
func (w *Writer) WorkbookPath() string { return filepath.Join(w.dir, w.prefix+"_validation.xlsx") }

// WriteAll writes the three JSONL files and the validation workbook for
// one run. Schema failures are logged and counted but never drop a
// record; only I/O errors abort.
func (w *Writer) WriteAll(res *structure.Result) (*WriteSummary, error) {
	summary := &WriteSummary{}

	failures, err := w.writeJSONL(w.TocPath(), w.schemas.Toc, asAny(BuildTocRecords(res)))
	if err != nil {
		return nil, err
	}
	summary.SchemaFailures += failures
	w.logger.Info("toc records written", "path", w.TocPath(), "records", len(res.Entries))

	failures, err = w.writeJSONL(w.SpecPath(), w.schemas.Section, asAny(BuildSectionRecords(res)))
	if err != nil {
		return nil, err
	}
	summary.SchemaFailures += failures
	w.logger.Info("section records written", "path", w.SpecPath(), "records", len(res.Sections))

	failures, err = w.writeJSONL(w.MetadataPath(), w.schemas.Metadata, []any{res.Metadata})
	if err != nil {
		return nil, err
	}
	summary.SchemaFailures += failures
	w.logger.Info("metadata written", "path", w.MetadataPath())

	if err := w.WriteWorkbook(res); err != nil {
		return nil, err
	}
	w.logger.Info("validation workbook written", "path", w.WorkbookPath())

	for _, path := range []string{w.TocPath(), w.SpecPath(), w.MetadataPath(), w.WorkbookPath()} {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		summary.Files = append(summary.Files, WrittenFile{Path: path, Size: info.Size()})
	}

	return summary, nil
}

// writeJSONL writes one record per line, validating each against the
// schema first. Returns how many records failed validation.
func (w *Writer) writeJSONL(path string, schema *jsonschema.Schema, records []any) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	failures := 0

	for i, rec := range records {
		data, err := validateRecord(schema, rec)
		if err != nil {
			if data == nil {
				return failures, fmt.Errorf("record %d of %s: %w", i+1, filepath.Base(path), err)
			}
			// Write the record anyway; the run report carries the count.
			failures++
			w.logger.Warn("schema validation failed for record",
				"file", filepath.Base(path), "record", i+1, "error", err)
		}
		if _, err := bw.Write(data); err != nil {
			return failures, fmt.Errorf("writing %s: %w", path, err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return failures, fmt.Errorf("writing %s: %w", path, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return failures, fmt.Errorf("flushing %s: %w", path, err)
	}
	return failures, nil
}

func asAny[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
