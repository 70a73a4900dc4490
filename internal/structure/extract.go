package structure

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Extractor parses ToC page text into raw entry candidates using an
// ordered list of line-shape rules. The first rule that matches a line
// wins; a line matching no rule and not continuing a title is counted as
// an extraction miss.
type Extractor struct {
	cfg *Config
}

// NewExtractor creates an extractor with the given configuration.
func NewExtractor(cfg *Config) *Extractor {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Extractor{cfg: cfg}
}

// ExtractResult carries the parsed candidates plus the count of lines no
// rule could place.
type ExtractResult struct {
	Candidates []Candidate
	Misses     int
}

// Line-shape rules in priority order, most specific first. Dot leaders
// between title and page number ("Scope ..... 10") are absorbed by the
// separator group.
var (
	reEntryWithPage = regexp.MustCompile(`^(\d+(?:\.\d+)*)\s+(.+?)(?:\s*\.{2,}\s*|\s+)(\d{1,4})$`)
	reEntryNoPage   = regexp.MustCompile(`^(\d+(?:\.\d+)*)\s+(\p{L}.*)$`)
	reChapterEntry  = regexp.MustCompile(`(?i)^chapter\s+(\d+)\s+(.+?)(?:(?:\s*\.{2,}\s*|\s+)(\d{1,4}))?$`)
)

type lineRule struct {
	name string
	re   *regexp.Regexp
}

var entryRules = []lineRule{
	{"id-title-page", reEntryWithPage},
	{"id-title", reEntryNoPage},
	{"chapter", reChapterEntry},
}

// Extract parses the given ToC-range lines, in reading order, into an
// ordered sequence of candidates. Entries whose page numbers are missing
// are filled by interpolation from their neighbors before returning.
func (x *Extractor) Extract(lines []string) ExtractResult {
	var out []Candidate
	misses := 0

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if cand, ok := parseEntryLine(line); ok {
			out = append(out, cand)
			continue
		}

		if x.mergeContinuation(out, line) {
			continue
		}

		misses++
	}

	fillMissingPages(out)

	return ExtractResult{Candidates: out, Misses: misses}
}

// parseEntryLine tries each rule in priority order on one trimmed line.
func parseEntryLine(line string) (Candidate, bool) {
	for _, rule := range entryRules {
		m := rule.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		cand := Candidate{
			SectionID: m[1],
			Title:     strings.TrimRight(strings.TrimSpace(m[2]), " ."),
		}
		if cand.Title == "" {
			continue
		}
		if len(m) > 3 && m[3] != "" {
			if page, err := strconv.Atoi(m[3]); err == nil && page >= 1 {
				cand.Page = &page
			}
		}
		return cand, true
	}
	return Candidate{}, false
}

// mergeContinuation appends a wrapped title line to the previous
// candidate. A continuation starts with a letter, is not a ToC header
// phrase, and follows at least one parsed entry. A trailing bare number on
// the continuation resolves the previous entry's missing page: titles that
// wrap push their page number onto the next physical line.
func (x *Extractor) mergeContinuation(out []Candidate, line string) bool {
	if len(out) == 0 {
		return false
	}

	runes := []rune(line)
	if len(runes) < 2 || !unicode.IsLetter(runes[0]) {
		return false
	}

	lower := strings.ToLower(line)
	for _, ind := range x.cfg.TocIndicators {
		if lower == ind {
			return false
		}
	}

	last := &out[len(out)-1]

	fields := strings.Fields(line)
	if n := len(fields); n > 1 && last.Page == nil {
		if page, err := strconv.Atoi(fields[n-1]); err == nil && page >= 1 {
			last.Page = &page
			line = strings.Join(fields[:n-1], " ")
		}
	}

	last.Title += " " + strings.TrimRight(line, " .")
	return true
}

// fillMissingPages resolves nil pages by linear interpolation between the
// nearest neighbors that declare one. Rounding goes down, biasing the
// result toward the preceding entry, and the filled page never precedes
// the preceding entry's own page nor exceeds the following entry's.
func fillMissingPages(cands []Candidate) {
	for i := 0; i < len(cands); i++ {
		if cands[i].Page != nil {
			continue
		}

		// Find the extent of this run of missing pages.
		j := i
		for j < len(cands) && cands[j].Page == nil {
			j++
		}

		var prev, next *int
		if i > 0 {
			prev = cands[i-1].Page
		}
		if j < len(cands) {
			next = cands[j].Page
		}

		runLen := j - i
		for k := 0; k < runLen; k++ {
			page := interpolatePage(prev, next, k, runLen)
			if page != nil {
				cands[i+k].Page = page
			}
		}

		i = j - 1
	}
}

func interpolatePage(prev, next *int, pos, runLen int) *int {
	switch {
	case prev != nil && next != nil:
		v := *prev + ((*next-*prev)*(pos+1))/(runLen+1)
		if v < *prev {
			v = *prev
		}
		if *next >= *prev && v > *next {
			v = *next
		}
		return &v
	case prev != nil:
		v := *prev
		return &v
	case next != nil:
		v := *next
		return &v
	default:
		return nil
	}
}
