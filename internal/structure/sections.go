package structure

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// SectionLocator resolves where each ToC entry actually begins in the
// document body and analyzes the resulting page ranges. Per-entry searches
// only read immutable page text and write to disjoint slots, so they run
// on a worker pool when Workers > 1 without changing results.
type SectionLocator struct {
	cfg *Config
}

// NewSectionLocator creates a locator with the given configuration.
func NewSectionLocator(cfg *Config) *SectionLocator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &SectionLocator{cfg: cfg}
}

// Content cues. A line is grid-like when it has at least three runs of
// text separated by multi-space gutters, the shape column layouts leave in
// extracted text.
var (
	tableCaptionPattern = regexp.MustCompile(`(?i)^table\s+\d+`)
	figureRefPattern    = regexp.MustCompile(`(?i)\bfigure\s+\d+`)
	gridLinePattern     = regexp.MustCompile(`\S+\s{2,}\S+\s{2,}\S+`)
)

const (
	previewLimit = 200
	minGridLines = 2
)

type orderedEntry struct {
	entry ToCEntry
	base  int // declared page, or carried forward from the previous entry
}

// Locate returns one Section per entry, ordered by resolved start page,
// together with per-entry location observations and MissingInBody issues.
// The error is non-nil only when the context expired mid-run.
func (sl *SectionLocator) Locate(ctx context.Context, src PageSource, entries []ToCEntry, headings []BodyHeading) ([]Section, []Location, []ValidationIssue, error) {
	if len(entries) == 0 {
		return nil, nil, nil, nil
	}

	pageCount := src.PageCount()
	ordered := orderByDeclaredPage(entries)
	byPage := headingsByPage(headings)

	locs := sl.findStarts(byPage, pageCount, ordered)
	if err := ctx.Err(); err != nil {
		return nil, nil, nil, err
	}

	var issues []ValidationIssue
	for i, loc := range locs {
		if loc.Found {
			continue
		}
		e := ordered[i]
		detail := fmt.Sprintf("no heading for %q found within %d pages of page %d; content start falls back to page %d",
			e.entry.FullPath, sl.cfg.SectionLocatorWindow, e.base, loc.StartPage)
		if e.entry.DeclaredPage == nil {
			detail = fmt.Sprintf("no heading for %q found within %d pages of page %d (no declared page); content start falls back to page %d",
				e.entry.FullPath, sl.cfg.SectionLocatorWindow, e.base, loc.StartPage)
		}
		issues = append(issues, ValidationIssue{
			Kind:      KindMissingInBody,
			SectionID: loc.SectionID,
			Severity:  SeverityWarning,
			Detail:    detail,
		})
	}

	// Sections are ordered by resolved start, not declared order; the
	// exclusive end of each is the next one's start.
	idx := make([]int, len(ordered))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		la, lb := locs[idx[a]], locs[idx[b]]
		if la.StartPage != lb.StartPage {
			return la.StartPage < lb.StartPage
		}
		return compareSectionIDs(la.SectionID, lb.SectionID) < 0
	})

	sections := make([]Section, len(idx))
	outLocs := make([]Location, len(idx))
	for out, in := range idx {
		outLocs[out] = locs[in]
		sections[out] = Section{
			SectionID:        locs[in].SectionID,
			ContentStartPage: locs[in].StartPage,
		}
	}
	for i := range sections {
		if i+1 < len(sections) {
			sections[i].ContentEndPage = sections[i+1].ContentStartPage
		} else {
			sections[i].ContentEndPage = pageCount + 1
		}
	}

	sl.analyzeAll(src, sections)
	if err := ctx.Err(); err != nil {
		return nil, nil, nil, err
	}

	return sections, outLocs, issues, nil
}

// orderByDeclaredPage sorts entries by declared page with section-id order
// breaking ties. Entries without a declared page inherit the preceding
// entry's page as their search base.
func orderByDeclaredPage(entries []ToCEntry) []orderedEntry {
	ordered := make([]orderedEntry, len(entries))
	base := 1
	for i, e := range entries {
		if e.DeclaredPage != nil {
			base = *e.DeclaredPage
		}
		ordered[i] = orderedEntry{entry: e, base: base}
	}
	sort.SliceStable(ordered, func(a, b int) bool {
		if ordered[a].base != ordered[b].base {
			return ordered[a].base < ordered[b].base
		}
		return compareSectionIDs(ordered[a].entry.SectionID, ordered[b].entry.SectionID) < 0
	})
	return ordered
}

// findStarts resolves every entry's start page, in parallel when
// configured. Each job writes only its own slot.
func (sl *SectionLocator) findStarts(byPage map[int][]BodyHeading, pageCount int, ordered []orderedEntry) []Location {
	locs := make([]Location, len(ordered))

	workers := sl.cfg.Workers
	if workers <= 1 || len(ordered) == 1 {
		for i, oe := range ordered {
			locs[i] = sl.findStart(byPage, pageCount, oe)
		}
		return locs
	}

	jobs := make(chan int, len(ordered))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				locs[i] = sl.findStart(byPage, pageCount, ordered[i])
			}
		}()
	}
	for i := range ordered {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return locs
}

// findStart looks for the entry's heading near its declared page: first
// the page itself and pages after it, then pages before, all within the
// configured window. A heading must carry the exact section id; the title
// is matched fuzzily. If no page has id and title together, an id-only
// match is accepted so that a renamed heading still locates the section
// and surfaces later as a TitleMismatch. With no match at all, the start
// falls back to the declared page.
func (sl *SectionLocator) findStart(byPage map[int][]BodyHeading, pageCount int, oe orderedEntry) Location {
	base := oe.base
	if base < 1 {
		base = 1
	}
	if base > pageCount {
		base = pageCount
	}

	window := sl.cfg.SectionLocatorWindow
	pages := make([]int, 0, 2*window+1)
	for off := 0; off <= window; off++ {
		if p := base + off; p <= pageCount {
			pages = append(pages, p)
		}
	}
	for off := 1; off <= window; off++ {
		if p := base - off; p >= 1 {
			pages = append(pages, p)
		}
	}

	for _, p := range pages {
		for _, h := range byPage[p] {
			if h.SectionID == oe.entry.SectionID && sl.titleMatches(h.Title, oe.entry.Title) {
				return Location{SectionID: oe.entry.SectionID, StartPage: p, ObservedTitle: h.Title, Found: true}
			}
		}
	}
	for _, p := range pages {
		for _, h := range byPage[p] {
			if h.SectionID == oe.entry.SectionID {
				return Location{SectionID: oe.entry.SectionID, StartPage: p, ObservedTitle: h.Title, Found: true}
			}
		}
	}

	return Location{SectionID: oe.entry.SectionID, StartPage: base, Found: false}
}

func (sl *SectionLocator) titleMatches(observed, declared string) bool {
	if containsFuzzy(observed, declared) || containsFuzzy(declared, observed) {
		return true
	}
	return Similarity(observed, declared) >= sl.cfg.TitleSimilarityThreshold
}

// analyzeAll computes content metrics for every section, in parallel when
// configured, each job writing only its own section.
func (sl *SectionLocator) analyzeAll(src PageSource, sections []Section) {
	workers := sl.cfg.Workers
	if workers <= 1 || len(sections) == 1 {
		for i := range sections {
			sl.analyze(src, &sections[i])
		}
		return
	}

	jobs := make(chan int, len(sections))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				sl.analyze(src, &sections[i])
			}
		}()
	}
	for i := range sections {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// analyze scans the section's page range for word count, table and figure
// cues, and the content preview. The cues are lexical and may mislabel the
// odd section, but the same input always yields the same answer.
func (sl *SectionLocator) analyze(src PageSource, sec *Section) {
	var words, gridLines int
	var hasTables, hasFigures bool

	for page := sec.ContentStartPage; page < sec.ContentEndPage && page <= src.PageCount(); page++ {
		lines, err := src.PageText(page)
		if err != nil {
			continue
		}
		for _, raw := range lines {
			line := strings.TrimSpace(raw)
			if line == "" {
				continue
			}
			words += len(strings.Fields(line))
			if tableCaptionPattern.MatchString(line) {
				hasTables = true
			}
			if gridLinePattern.MatchString(raw) {
				gridLines++
			}
			if figureRefPattern.MatchString(line) {
				hasFigures = true
			}
		}
	}

	sec.WordCount = words
	sec.HasTables = hasTables || gridLines >= minGridLines
	sec.HasFigures = hasFigures
	sec.ContentPreview = sl.preview(src, sec)
}

// preview returns the leading body text of the section's start page,
// skipping the heading line itself, truncated to a fixed length.
func (sl *SectionLocator) preview(src PageSource, sec *Section) string {
	if sec.ContentStartPage >= sec.ContentEndPage || sec.ContentStartPage > src.PageCount() {
		return ""
	}
	lines, err := src.PageText(sec.ContentStartPage)
	if err != nil {
		return ""
	}

	var parts []string
	total := 0
	skippedHeading := false
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if !skippedHeading && strings.HasPrefix(line, sec.SectionID+" ") {
			skippedHeading = true
			continue
		}
		parts = append(parts, line)
		total += len(line)
		if total >= previewLimit {
			break
		}
	}

	s := strings.Join(parts, " ")
	if runes := []rune(s); len(runes) > previewLimit {
		s = string(runes[:previewLimit]) + "..."
	}
	return s
}
