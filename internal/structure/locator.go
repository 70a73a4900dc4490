package structure

import (
	"regexp"
	"strings"
)

// TocLocator finds the contiguous page range most likely to hold the
// document's declared table of contents.
type TocLocator struct {
	cfg *Config
}

// NewTocLocator creates a locator with the given configuration.
func NewTocLocator(cfg *Config) *TocLocator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &TocLocator{cfg: cfg}
}

// Per-page score weights. A lone "Table of Contents" header qualifies a
// page by itself; dense numbered listings qualify without any header.
const (
	scoreHeadingKeyword = 3.0
	scoreWeakIndicator  = 1.0
	weightDottedLines   = 6.0
	weightPageNumbers   = 4.0
)

var (
	dottedLineLead  = regexp.MustCompile(`^\d+(\.\d+)*\s+\S`)
	pageNumberAtEnd = regexp.MustCompile(`\S\s+\d{1,4}$`)
)

// Locate scans the first TocSearchPageLimit pages and returns the range
// judged to be the ToC. The range opens once the score stays at or above
// the threshold for two consecutive pages and closes after two consecutive
// pages below it; a dip of a single noisy page inside the ToC does not
// split the range. The second return is false when no range qualifies, in
// which case callers fall back to body-heading detection.
func (l *TocLocator) Locate(src PageSource) (TocRange, bool) {
	limit := l.cfg.TocSearchPageLimit
	if n := src.PageCount(); limit > n {
		limit = n
	}
	if limit < 2 {
		return TocRange{}, false
	}

	scores := make([]float64, limit+1)
	for page := 1; page <= limit; page++ {
		lines, err := src.PageText(page)
		if err != nil {
			continue
		}
		scores[page] = l.scorePage(lines)
	}

	threshold := l.cfg.TocScoreThreshold

	start := 0
	for page := 1; page < limit; page++ {
		if scores[page] >= threshold && scores[page+1] >= threshold {
			start = page
			break
		}
	}
	if start == 0 {
		return TocRange{}, false
	}

	end := start + 1
	below := 0
	for page := start + 2; page <= limit; page++ {
		if scores[page] >= threshold {
			end = page
			below = 0
			continue
		}
		below++
		if below >= 2 {
			break
		}
	}

	return TocRange{StartPage: start, EndPage: end}, true
}

// scorePage computes the weighted ToC likelihood of a single page:
// heading keywords, the fraction of lines ending in a page number, and the
// fraction of lines starting with a dotted numeric id.
func (l *TocLocator) scorePage(lines []string) float64 {
	var nonblank, dotted, numbered int
	var strongKeyword, weakIndicator bool

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		nonblank++

		lower := strings.ToLower(line)
		if strings.Contains(lower, "table of contents") || strings.HasPrefix(lower, "contents") {
			strongKeyword = true
		} else if !weakIndicator {
			for _, ind := range l.cfg.TocIndicators {
				if strings.Contains(lower, ind) {
					weakIndicator = true
					break
				}
			}
		}

		if dottedLineLead.MatchString(line) {
			dotted++
		}
		if pageNumberAtEnd.MatchString(line) {
			numbered++
		}
	}

	if nonblank == 0 {
		return 0
	}

	score := 0.0
	switch {
	case strongKeyword:
		score += scoreHeadingKeyword
	case weakIndicator:
		score += scoreWeakIndicator
	}
	score += weightDottedLines * float64(dotted) / float64(nonblank)
	score += weightPageNumbers * float64(numbered) / float64(nonblank)
	return score
}
