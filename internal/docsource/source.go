// Package docsource provides page-segmented text access to specification
// documents. Every source fully extracts its pages at open time and serves
// them from an immutable in-memory cache, so reads are deterministic,
// repeatable, and safe to share across goroutines.
package docsource

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Source supplies plain text for a document, one page at a time.
// Pages are 1-based. Implementations must be deterministic: the same
// document yields the same pages on every call and every run.
type Source interface {
	// PageCount returns the number of pages in the document.
	PageCount() int
	// PageText returns the text lines of the given 1-based page.
	// Callers must not modify the returned slice.
	PageText(page int) ([]string, error)
	// Close releases any resources held by the source.
	Close() error
}

// SourceUnavailableError reports a document that cannot be opened or read
// at all (missing, corrupt, password-protected). It is the only fatal
// source-side condition; per-page oddities degrade to empty pages instead.
type SourceUnavailableError struct {
	Path string
	Err  error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source unavailable: %s: %v", e.Path, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// Options configures how sources are opened.
type Options struct {
	// LinesPerPage paginates plain-text and markdown documents that carry
	// no explicit page separators.
	LinesPerPage int
	// PDFFallbackPdftotext enables shelling out to pdftotext when library
	// extraction produces no usable text.
	PDFFallbackPdftotext bool
}

// DefaultOptions returns the options used when nil is passed to Open.
func DefaultOptions() *Options {
	return &Options{
		LinesPerPage:         50,
		PDFFallbackPdftotext: true,
	}
}

// Open chooses a source implementation from the file extension:
// .pdf is extracted with the PDF reader, .md/.markdown is flattened from
// the markdown AST, anything else is treated as plain text.
func Open(path string, opts *Options) (Source, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return OpenPDF(path, opts)
	case ".md", ".markdown":
		return OpenMarkdown(path, opts)
	default:
		return OpenText(path, opts)
	}
}

// pageStore is the shared cache backing every source implementation.
type pageStore struct {
	pages [][]string
}

func (s *pageStore) PageCount() int { return len(s.pages) }

func (s *pageStore) PageText(page int) ([]string, error) {
	if page < 1 || page > len(s.pages) {
		return nil, fmt.Errorf("page %d out of range [1,%d]", page, len(s.pages))
	}
	return s.pages[page-1], nil
}

func (s *pageStore) Close() error { return nil }

// SliceSource serves pages handed to it directly. It backs tests and the
// embedded sample document.
type SliceSource struct {
	pageStore
}

// NewSliceSource wraps pre-segmented pages as a Source.
func NewSliceSource(pages [][]string) *SliceSource {
	return &SliceSource{pageStore{pages: pages}}
}

// splitLines breaks raw text into trimmed-right lines. Trailing whitespace
// is dropped because PDF extractors pad line ends inconsistently; leading
// whitespace is kept since indentation can matter to line-shape rules.
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, strings.TrimRight(l, " \t\r"))
	}
	return lines
}

// paginate chunks a flat line list into fixed-size pages.
func paginate(lines []string, perPage int) [][]string {
	if perPage < 1 {
		perPage = 1
	}
	var pages [][]string
	for start := 0; start < len(lines); start += perPage {
		end := start + perPage
		if end > len(lines) {
			end = len(lines)
		}
		pages = append(pages, lines[start:end])
	}
	if pages == nil {
		pages = [][]string{{}}
	}
	return pages
}
