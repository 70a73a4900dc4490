package structure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// TimeoutError reports a run that exceeded its processing deadline. The
// run aborts and nothing is produced; this is a fatal condition, not a
// ValidationIssue.
type TimeoutError struct {
	Stage   string
	Elapsed time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("processing timed out during %s after %s: %v", e.Stage, e.Elapsed.Round(time.Millisecond), e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// SourceInfo carries facts about the input document that the source
// itself cannot report.
type SourceInfo struct {
	Path     string
	FileSize int64
}

// Result is the complete output of one engine run: the immutable record
// collections handed to output generation, plus the strict-mode verdict.
type Result struct {
	DocTitle string
	Entries  []ToCEntry
	Sections []Section
	Issues   []ValidationIssue
	Metadata DocumentMetadata

	// Failed is true when strict mode is on and any error-severity issue
	// was recorded; the run still produced complete output.
	Failed bool
}

// ErrorCount returns the number of error-severity issues.
func (r *Result) ErrorCount() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			n++
		}
	}
	return n
}

// WarningCount returns the number of warning-severity issues.
func (r *Result) WarningCount() int {
	return len(r.Issues) - r.ErrorCount()
}

// Engine wires the pipeline stages together: ToC location, entry
// extraction, hierarchy construction, section location and analysis,
// validation, and the metadata rollup. Stages run strictly downstream;
// each consumes its predecessor's output read-only.
type Engine struct {
	cfg    *Config
	logger *slog.Logger

	// Overridable for tests.
	now      func() time.Time
	newRunID func() string
}

// NewEngine creates an engine. A nil config uses defaults; a nil logger
// discards.
func NewEngine(cfg *Config, logger *slog.Logger) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
}

// Run executes the full pipeline over the source. Only fatal conditions
// return an error: an unusable source, or the context expiring. All
// structural findings land in Result.Issues instead.
func (e *Engine) Run(ctx context.Context, src PageSource, info SourceInfo) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	started := e.now()
	checkpoint := func(stage string) error {
		if err := ctx.Err(); err != nil {
			return &TimeoutError{Stage: stage, Elapsed: e.now().Sub(started), Err: err}
		}
		return nil
	}

	pageCount := src.PageCount()
	if pageCount < 1 {
		return nil, fmt.Errorf("source %s has no pages", info.Path)
	}

	docTitle := ExtractDocTitle(src, e.cfg)
	e.logger.Info("document title resolved", "title", docTitle)

	var parsingErrors []string

	tocRange, tocFound := NewTocLocator(e.cfg).Locate(src)
	var skipRange *TocRange
	if tocFound {
		skipRange = &tocRange
		e.logger.Info("toc located", "start_page", tocRange.StartPage, "end_page", tocRange.EndPage)
	} else {
		e.logger.Warn("toc not located", "pages_scanned", e.cfg.TocSearchPageLimit)
	}
	if err := checkpoint("toc location"); err != nil {
		return nil, err
	}

	headings := scanBodyHeadings(src, skipRange)
	e.logger.Debug("body headings scanned", "count", len(headings))

	var cands []Candidate
	misses := 0
	degraded := !tocFound

	if tocFound {
		res := NewExtractor(e.cfg).Extract(e.tocLines(src, tocRange))
		cands = res.Candidates
		misses = res.Misses
		e.logger.Info("toc entries extracted", "entries", len(cands), "misses", misses)

		if len(cands) < e.cfg.MinTocEntries {
			parsingErrors = append(parsingErrors, fmt.Sprintf(
				"toc range %s yielded %d entries, below the minimum of %d; falling back to body headings",
				tocRange, len(cands), e.cfg.MinTocEntries))
			degraded = true
			skipRange = nil
			headings = scanBodyHeadings(src, nil)
		}
	}

	if degraded {
		if !tocFound {
			parsingErrors = append(parsingErrors, "table of contents not located; sections inferred from body headings")
		}
		cands = candidatesFromHeadings(headings)
		misses = 0
		e.logger.Warn("running in degraded mode", "synthesized_entries", len(cands))
	}
	if err := checkpoint("entry extraction"); err != nil {
		return nil, err
	}

	entries, hierarchyIssues := NewHierarchyBuilder(e.cfg).Build(cands)
	e.logger.Info("hierarchy built", "entries", len(entries), "issues", len(hierarchyIssues))
	if err := checkpoint("hierarchy construction"); err != nil {
		return nil, err
	}

	sections, locs, locateIssues, err := NewSectionLocator(e.cfg).Locate(ctx, src, entries, headings)
	if err != nil {
		return nil, &TimeoutError{Stage: "section location", Elapsed: e.now().Sub(started), Err: err}
	}
	e.logger.Info("sections located", "sections", len(sections), "issues", len(locateIssues))

	validatorIssues := NewValidator(e.cfg).Validate(entries, sections, locs, headings)
	if err := checkpoint("validation"); err != nil {
		return nil, err
	}

	issues := make([]ValidationIssue, 0, len(hierarchyIssues)+len(locateIssues)+len(validatorIssues))
	issues = append(issues, hierarchyIssues...)
	issues = append(issues, locateIssues...)
	issues = append(issues, validatorIssues...)

	var mdRange *TocRange
	if tocFound && !degraded {
		mdRange = &tocRange
	}
	metadata := AggregateMetadata(AggregateInput{
		DocTitle:         docTitle,
		TotalPages:       pageCount,
		SourceFileSize:   info.FileSize,
		RunID:            e.newRunID(),
		Timestamp:        e.now(),
		Entries:          entries,
		Sections:         sections,
		DegradedMode:     degraded,
		TocRange:         mdRange,
		ExtractionMisses: misses,
		ParsingErrors:    parsingErrors,
	}, e.cfg)

	result := &Result{
		DocTitle: docTitle,
		Entries:  entries,
		Sections: sections,
		Issues:   issues,
		Metadata: metadata,
	}
	result.Failed = e.cfg.StrictMode && result.ErrorCount() > 0

	e.logger.Info("run complete",
		"entries", len(entries),
		"sections", len(sections),
		"errors", result.ErrorCount(),
		"warnings", result.WarningCount(),
		"degraded", degraded,
		"elapsed", e.now().Sub(started).Round(time.Millisecond))

	return result, nil
}

// tocLines collects the text of the located ToC range in reading order.
func (e *Engine) tocLines(src PageSource, r TocRange) []string {
	var lines []string
	for page := r.StartPage; page <= r.EndPage && page <= src.PageCount(); page++ {
		pageLines, err := src.PageText(page)
		if err != nil {
			continue
		}
		lines = append(lines, pageLines...)
	}
	return lines
}

// candidatesFromHeadings synthesizes ToC candidates from the body heading
// scan for degraded mode. The first occurrence of each id wins and the
// page it was seen on stands in for the declared page.
func candidatesFromHeadings(headings []BodyHeading) []Candidate {
	var cands []Candidate
	seen := make(map[string]bool, len(headings))
	for _, h := range headings {
		if seen[h.SectionID] {
			continue
		}
		seen[h.SectionID] = true
		page := h.Page
		cands = append(cands, Candidate{
			SectionID: h.SectionID,
			Title:     h.Title,
			Page:      &page,
		})
	}
	return cands
}
